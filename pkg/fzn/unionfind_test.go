package fzn

import "testing"

func TestUnionFindFindDefaultsToSelf(t *testing.T) {
	u := NewUnionFind()
	v := NewVariable("x", NewIntervalDomain(0, 10))
	if u.Find(v) != v {
		t.Error("an unaliased variable should be its own representative")
	}
	if !u.IsRoot(v) {
		t.Error("an unaliased variable should be a root")
	}
}

func TestUnionFindUnifyPrefersNonTemporary(t *testing.T) {
	u := NewUnionFind()
	temp := NewVariable("_temp1", NewIntervalDomain(0, 10))
	temp.Temporary = true
	named := NewVariable("x", NewIntervalDomain(5, 20))

	rep, err := u.Unify(temp, named)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if rep != named {
		t.Error("the non-temporary variable should become the representative")
	}
	if u.Find(temp) != named {
		t.Error("the temporary variable should resolve to the named representative")
	}
	if temp.Active {
		t.Error("the losing alias should be marked inactive")
	}
}

func TestUnionFindPathCompression(t *testing.T) {
	u := NewUnionFind()
	a := NewVariable("a", NewIntervalDomain(0, 10))
	b := NewVariable("b", NewIntervalDomain(0, 10))
	c := NewVariable("c", NewIntervalDomain(0, 10))

	if _, err := u.Unify(a, b); err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if _, err := u.Unify(b, c); err != nil {
		t.Fatalf("Unify: %v", err)
	}

	rep := u.Find(a)
	if u.Find(b) != rep || u.Find(c) != rep {
		t.Error("all three variables should resolve to the same representative")
	}
}

func TestUnionFindResetClearsAliases(t *testing.T) {
	u := NewUnionFind()
	a := NewVariable("a", NewIntervalDomain(0, 10))
	b := NewVariable("b", NewIntervalDomain(0, 10))
	_, _ = u.Unify(a, b)
	if u.Empty() {
		t.Fatal("expected a recorded alias before Reset")
	}
	u.Reset()
	if !u.Empty() {
		t.Error("Reset should clear all recorded aliases")
	}
}
