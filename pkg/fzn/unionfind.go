package fzn

// UnionFind tracks variable-alias equivalence classes during presolve.
// Absence from the internal map means "is its own representative" — per
// §4.3, roots are never stored explicitly. Find applies path compression
// so the substitutor's walk over the whole model stays close to linear
// rather than quadratic.
type UnionFind struct {
	parent map[*Variable]*Variable
	edges  []aliasEdge
}

// aliasEdge records one unify(a, b) call, in the order it happened, for
// callers that want to replay or audit the alias history (e.g. tests).
type aliasEdge struct {
	from, to *Variable
}

// NewUnionFind returns an empty union-find structure.
func NewUnionFind() *UnionFind {
	return &UnionFind{parent: make(map[*Variable]*Variable)}
}

// Find returns v's representative, compressing the path from v to the
// root as it walks.
func (u *UnionFind) Find(v *Variable) *Variable {
	// 1. Walk to the root.
	root := v
	for {
		p, ok := u.parent[root]
		if !ok {
			break
		}
		root = p
	}
	// 2. Compress the path: repoint every node visited directly at root.
	for v != root {
		next := u.parent[v]
		u.parent[v] = root
		v = next
	}
	return root
}

// Unify merges the equivalence classes of a and b. If they are already in
// the same class, it is a no-op returning (existingRep, nil). Otherwise it
// picks the non-temporary side as the new representative (falling back to
// a if both or neither are temporary), merges domains via MergeInto,
// marks the loser inactive, and records the edge. It returns the surviving
// representative.
func (u *UnionFind) Unify(a, b *Variable) (*Variable, error) {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return ra, nil
	}

	winner, loser := ra, rb
	if ra.Temporary && !rb.Temporary {
		winner, loser = rb, ra
	}

	if err := MergeInto(winner, loser); err != nil {
		return nil, err
	}

	u.parent[loser] = winner
	u.edges = append(u.edges, aliasEdge{from: loser, to: winner})
	return winner, nil
}

// IsRoot reports whether v is currently its own representative.
func (u *UnionFind) IsRoot(v *Variable) bool {
	_, aliased := u.parent[v]
	return !aliased
}

// Reset discards all recorded aliases, returning the structure to empty.
// Used between presolve passes once the substitutor has flushed the
// pending aliases into the model (§4.4: "clear alias map").
func (u *UnionFind) Reset() {
	u.parent = make(map[*Variable]*Variable)
	u.edges = nil
}

// Empty reports whether any aliases have been recorded since the last
// Reset.
func (u *UnionFind) Empty() bool {
	return len(u.parent) == 0
}
