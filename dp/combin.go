// Package dp implements the tsumo and metrics dynamic programs and the
// pipeline that drives them round by round.
package dp

// CombinGen generates combinations with replacement -- non-decreasing
// k-length index sequences drawn from [0,n) -- in lexicographic order.
// Used to enumerate agari meld-slot assignments (size-4 multisets of 49
// meld slots).
type CombinGen struct {
	n, k  int
	v     []int
	first bool
	done  bool
}

// NewCombinGen returns a generator over combinations with replacement of
// k indices from [0,n).
func NewCombinGen(n, k int) *CombinGen {
	return &CombinGen{n: n, k: k, v: make([]int, k), first: true}
}

// Next advances to the next combination, returning false once exhausted.
func (g *CombinGen) Next() bool {
	if g.done || g.n == 0 && g.k > 0 {
		return false
	}
	if g.first {
		g.first = false
		return true
	}
	i := g.k - 1
	for i >= 0 && g.v[i] == g.n-1 {
		i--
	}
	if i < 0 {
		g.done = true
		return false
	}
	g.v[i]++
	for j := i + 1; j < g.k; j++ {
		g.v[j] = g.v[i]
	}
	return true
}

// Combination returns a copy of the current combination.
func (g *CombinGen) Combination() []int {
	out := make([]int, g.k)
	copy(out, g.v)
	return out
}

// SubsetGen generates strictly-increasing k-subsets of [0,n) (combinations
// without replacement), used to enumerate seven-pairs tile-kind picks
// (7-subsets of 34 kinds).
type SubsetGen struct {
	n, k  int
	v     []int
	first bool
	done  bool
}

// NewSubsetGen returns a generator over k-subsets of [0,n).
func NewSubsetGen(n, k int) *SubsetGen {
	v := make([]int, k)
	for i := range v {
		v[i] = i
	}
	return &SubsetGen{n: n, k: k, v: v, first: true}
}

// Next advances to the next subset, returning false once exhausted.
func (g *SubsetGen) Next() bool {
	if g.done || g.k > g.n {
		return false
	}
	if g.first {
		g.first = false
		return true
	}
	i := g.k - 1
	for i >= 0 && g.v[i] == g.n-g.k+i {
		i--
	}
	if i < 0 {
		g.done = true
		return false
	}
	g.v[i]++
	for j := i + 1; j < g.k; j++ {
		g.v[j] = g.v[j-1] + 1
	}
	return true
}

// Subset returns a copy of the current subset.
func (g *SubsetGen) Subset() []int {
	out := make([]int, g.k)
	copy(out, g.v)
	return out
}
