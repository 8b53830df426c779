package cbc

// UnionFind is a disjoint-set forest over dendrogram node IDs. Rows being
// clustered occupy 0..n-1 and merged clusters take n..2n-2, so a dendrogram
// can be replayed against it step by step.
type UnionFind struct {
	parent []int
	// nextLabel is the ID handed to the next Merge, starting at n.
	nextLabel int
}

// NewUnionFind creates a UnionFind for n rows with room for the n-1 merged
// clusters a full dendrogram produces.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, max(2*n-1, 1))
	for i := range parent {
		parent[i] = -1 // root
	}
	return &UnionFind{
		parent:    parent,
		nextLabel: n,
	}
}

// Find returns the root of the set containing x, compressing the path.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != -1 {
		root = uf.parent[root]
	}
	for uf.parent[x] != -1 {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

// Merge joins the sets containing x and y under a fresh dendrogram label and
// returns that label. Both roots point at the new label, which is how a
// scipy-style dendrogram row [left, right, sim, size] is replayed.
func (uf *UnionFind) Merge(x, y int) int {
	rootX := uf.Find(x)
	rootY := uf.Find(y)
	label := uf.nextLabel
	uf.nextLabel++
	uf.parent[rootX] = label
	if rootY != rootX {
		uf.parent[rootY] = label
	}
	return label
}
