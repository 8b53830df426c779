package cbc

import (
	"context"
	"slices"
)

// NeighborSet holds the nearest neighbors of one row, sorted by row index.
// The row itself is normally among its own neighbors. Treat it as immutable;
// Without derives a reduced copy.
type NeighborSet struct {
	Row       int
	Neighbors []int
}

// Without returns a copy of s with the given rows removed. drop need not be
// sorted.
func (s NeighborSet) Without(drop []int) NeighborSet {
	kept := make([]int, 0, len(s.Neighbors))
	for _, n := range s.Neighbors {
		if !slices.Contains(drop, n) {
			kept = append(kept, n)
		}
	}
	return NeighborSet{Row: s.Row, Neighbors: kept}
}

// BuildNeighborLists computes a NeighborSet for every row of m. For row r the
// cfg.TopFeatures heaviest features select candidate rows through idx, and
// the cfg.Neighbors candidates most cosine-similar to r are kept. Rows are
// processed on cfg.Workers goroutines; the result is indexed by row and does
// not depend on scheduling. Any worker failure aborts the whole call.
func BuildNeighborLists(ctx context.Context, m *SparseMatrix, idx *FeatureIndex, cfg Config) ([]NeighborSet, error) {
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	out := make([]NeighborSet, m.Rows())
	err = parallelFor(ctx, m.Rows(), cfg.Workers, func(_ context.Context, r int) error {
		out[r] = buildNeighborSet(m, idx, r, cfg.TopFeatures, cfg.Neighbors)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buildNeighborSet computes the neighbor set of row r.
func buildNeighborSet(m *SparseMatrix, idx *FeatureIndex, r, topFeatures, k int) NeighborSet {
	row := m.Row(r)
	candidates := idx.Candidates(row.TopFeatures(topFeatures))

	nearest := newTopK(k)
	it := candidates.Iterator()
	for it.HasNext() {
		c := int(it.Next())
		nearest.Offer(c, CosineSimilarity(row, m.Row(c)))
	}

	neighbors := nearest.IDs()
	slices.Sort(neighbors)
	return NeighborSet{Row: r, Neighbors: neighbors}
}
