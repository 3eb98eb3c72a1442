package search

import "fzncore/pkg/fzn"

// satisfied checks a single active constraint against a total assignment of
// every active variable. It covers the constraint families this reference
// driver knows how to check directly; an unrecognized type is treated as
// satisfied (a documented limitation — full builtin coverage is the back-
// end's job, §1 Non-goals).
func satisfied(c *fzn.Constraint, current map[*fzn.Variable]int64) bool {
	switch c.Type {
	case "int_eq", "bool_eq":
		return scalar(c.Args[0], current) == scalar(c.Args[1], current)
	case "int_ne", "bool_ne":
		return scalar(c.Args[0], current) != scalar(c.Args[1], current)
	case "int_le", "bool_le":
		return scalar(c.Args[0], current) <= scalar(c.Args[1], current)
	case "int_lt", "bool_lt":
		return scalar(c.Args[0], current) < scalar(c.Args[1], current)
	case "int_ge":
		return scalar(c.Args[0], current) >= scalar(c.Args[1], current)
	case "int_gt":
		return scalar(c.Args[0], current) > scalar(c.Args[1], current)

	case "int_eq_reif", "bool_eq_reif":
		return reif(scalar(c.Args[0], current) == scalar(c.Args[1], current), c.Args[2], current)
	case "int_ne_reif", "bool_ne_reif":
		return reif(scalar(c.Args[0], current) != scalar(c.Args[1], current), c.Args[2], current)
	case "int_le_reif":
		return reif(scalar(c.Args[0], current) <= scalar(c.Args[1], current), c.Args[2], current)
	case "int_lt_reif":
		return reif(scalar(c.Args[0], current) < scalar(c.Args[1], current), c.Args[2], current)
	case "int_ge_reif":
		return reif(scalar(c.Args[0], current) >= scalar(c.Args[1], current), c.Args[2], current)
	case "int_gt_reif":
		return reif(scalar(c.Args[0], current) > scalar(c.Args[1], current), c.Args[2], current)

	case "bool2int":
		return scalar(c.Args[0], current) == scalar(c.Args[1], current)

	case "int_plus":
		return scalar(c.Args[0], current)+scalar(c.Args[1], current) == scalar(c.Args[2], current)
	case "int_minus":
		return scalar(c.Args[0], current)-scalar(c.Args[1], current) == scalar(c.Args[2], current)
	case "int_times":
		return scalar(c.Args[0], current)*scalar(c.Args[1], current) == scalar(c.Args[2], current)
	case "int_div":
		y := scalar(c.Args[1], current)
		return y != 0 && scalar(c.Args[0], current)/y == scalar(c.Args[2], current)
	case "int_mod":
		y := scalar(c.Args[1], current)
		return y != 0 && scalar(c.Args[0], current)%y == scalar(c.Args[2], current)
	case "int_abs":
		x := scalar(c.Args[0], current)
		r := x
		if r < 0 {
			r = -r
		}
		return r == scalar(c.Args[1], current)
	case "int_min":
		return min64(scalar(c.Args[0], current), scalar(c.Args[1], current)) == scalar(c.Args[2], current)
	case "int_max":
		return max64(scalar(c.Args[0], current), scalar(c.Args[1], current)) == scalar(c.Args[2], current)

	case "int_lin_eq":
		return linear(c, current) == scalar(c.Args[2], current)
	case "int_lin_le":
		return linear(c, current) <= scalar(c.Args[2], current)
	case "int_lin_ne":
		return linear(c, current) != scalar(c.Args[2], current)

	case "all_different_int":
		return allDifferent(array(c.Args[0], current))

	case "minimum_int":
		return arrayExtreme(array(c.Args[0], current), false) == scalar(c.Args[1], current)
	case "maximum_int":
		return arrayExtreme(array(c.Args[0], current), true) == scalar(c.Args[1], current)

	case "array_bool_and":
		return allTrue(array(c.Args[0], current)) == scalar(c.Args[1], current)
	case "array_bool_or":
		return anyTrue(array(c.Args[0], current)) == scalar(c.Args[1], current)

	case "set_in":
		return setIn(c, current)

	default:
		return true
	}
}

func scalar(a fzn.Argument, current map[*fzn.Variable]int64) int64 {
	switch a.Kind {
	case fzn.ArgIntValue:
		return a.IntValue
	case fzn.ArgIntVarRef:
		return current[a.Var]
	default:
		panic("search: scalar() on a non-scalar argument")
	}
}

func array(a fzn.Argument, current map[*fzn.Variable]int64) []int64 {
	switch a.Kind {
	case fzn.ArgIntList:
		return a.List
	case fzn.ArgIntVarRefArray:
		out := make([]int64, len(a.Vars))
		for i, v := range a.Vars {
			out[i] = current[v]
		}
		return out
	default:
		panic("search: array() on a non-array argument")
	}
}

func reif(truth bool, b fzn.Argument, current map[*fzn.Variable]int64) bool {
	want := int64(0)
	if truth {
		want = 1
	}
	return scalar(b, current) == want
}

func linear(c *fzn.Constraint, current map[*fzn.Variable]int64) int64 {
	coeffs := array(c.Args[0], current)
	terms := array(c.Args[1], current)
	var sum int64
	for i, coeff := range coeffs {
		sum += coeff * terms[i]
	}
	return sum
}

func allDifferent(values []int64) bool {
	seen := make(map[int64]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func arrayExtreme(values []int64, maximum bool) int64 {
	best := values[0]
	for _, v := range values[1:] {
		if (maximum && v > best) || (!maximum && v < best) {
			best = v
		}
	}
	return best
}

func allTrue(values []int64) int64 {
	for _, v := range values {
		if v == 0 {
			return 0
		}
	}
	return 1
}

func anyTrue(values []int64) int64 {
	for _, v := range values {
		if v != 0 {
			return 1
		}
	}
	return 0
}

func setIn(c *fzn.Constraint, current map[*fzn.Variable]int64) bool {
	v := scalar(c.Args[0], current)
	switch c.Args[1].Kind {
	case fzn.ArgIntInterval:
		return v >= c.Args[1].IntervalLo && v <= c.Args[1].IntervalHi
	case fzn.ArgIntList:
		for _, x := range c.Args[1].List {
			if x == v {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
