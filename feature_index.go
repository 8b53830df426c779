package cbc

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// FeatureIndex maps each feature (column) to the set of rows with a nonzero
// weight on it. Only features some row uses get a bitmap, so wide vocabularies
// cost nothing for their unused columns. It is built once and read-only
// afterwards, so concurrent readers need no locking.
type FeatureIndex struct {
	rows map[int]*roaring.Bitmap
}

// BuildFeatureIndex inverts m into feature→rows membership.
func BuildFeatureIndex(m *SparseMatrix) *FeatureIndex {
	rows := make(map[int]*roaring.Bitmap)
	for r := 0; r < m.Rows(); r++ {
		for _, f := range m.Row(r).Indices() {
			b, ok := rows[f]
			if !ok {
				b = roaring.New()
				rows[f] = b
			}
			b.Add(uint32(r))
		}
	}
	for _, b := range rows {
		b.RunOptimize()
	}
	return &FeatureIndex{rows: rows}
}

// Features returns the number of features used by at least one row.
func (idx *FeatureIndex) Features() int { return len(idx.rows) }

// Rows returns the rows that use feature f, or an empty bitmap when none do.
// The bitmap is shared and must not be modified.
func (idx *FeatureIndex) Rows(f int) *roaring.Bitmap {
	if b, ok := idx.rows[f]; ok {
		return b
	}
	return roaring.New()
}

// Candidates returns the union of the row sets of the given features as a
// new bitmap. Unused features contribute nothing.
func (idx *FeatureIndex) Candidates(features []int) *roaring.Bitmap {
	sets := make([]*roaring.Bitmap, 0, len(features))
	for _, f := range features {
		if b, ok := idx.rows[f]; ok {
			sets = append(sets, b)
		}
	}
	if len(sets) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(sets...)
}
