package cbc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeatureIndex(t *testing.T) {
	m := matrix(t, 4,
		map[int]float64{0: 1, 2: 1},
		map[int]float64{2: 3},
		map[int]float64{},
		map[int]float64{0: 1, 3: 1},
	)
	idx := BuildFeatureIndex(m)

	// Column 1 is never used and gets no bitmap.
	assert.Equal(t, 3, idx.Features())
	assert.Equal(t, []uint32{0, 3}, idx.Rows(0).ToArray())
	assert.True(t, idx.Rows(1).IsEmpty())
	assert.Equal(t, []uint32{0, 1}, idx.Rows(2).ToArray())
	assert.Equal(t, []uint32{3}, idx.Rows(3).ToArray())
}

func TestFeatureIndex_Candidates(t *testing.T) {
	m := matrix(t, 4,
		map[int]float64{0: 1},
		map[int]float64{1: 1},
		map[int]float64{2: 1},
		map[int]float64{0: 1, 2: 1},
	)
	idx := BuildFeatureIndex(m)

	assert.Equal(t, []uint32{0, 2, 3}, idx.Candidates([]int{0, 2}).ToArray())
	assert.Equal(t, []uint32{1}, idx.Candidates([]int{1}).ToArray())
	assert.True(t, idx.Candidates(nil).IsEmpty())

	// The union is a fresh bitmap; the index must be unaffected by edits.
	u := idx.Candidates([]int{1})
	u.Add(3)
	assert.Equal(t, []uint32{1}, idx.Rows(1).ToArray())
}

func TestFeatureIndex_WideVocabulary(t *testing.T) {
	const columns = 1 << 24
	last := columns - 1
	m := matrix(t, columns,
		map[int]float64{0: 1, last: 1},
		map[int]float64{last: 2},
		map[int]float64{12345: 1},
	)
	idx := BuildFeatureIndex(m)

	require.Equal(t, 3, idx.Features())
	assert.Equal(t, []uint32{0, 1}, idx.Rows(last).ToArray())
	assert.True(t, idx.Rows(columns/2).IsEmpty())

	// Unused features are skipped rather than looked up.
	assert.Equal(t, []uint32{0, 1}, idx.Candidates([]int{7, last, 99}).ToArray())
	assert.True(t, idx.Candidates([]int{1, 2, 3}).IsEmpty())

	// Modifying the empty bitmap for an unused feature leaves the index alone.
	idx.Rows(5).Add(2)
	assert.True(t, idx.Rows(5).IsEmpty())
	assert.Equal(t, 3, idx.Features())
}

func TestClusterWideVocabulary(t *testing.T) {
	const columns = 1 << 24
	a := map[int]float64{0: 1, 1: 1, columns - 1: 1}
	b := map[int]float64{1 << 20: 1, 1<<20 + 1: 1, 1<<20 + 2: 1}
	m := matrix(t, columns, a, a, a, b, b, b)

	cfg := DefaultConfig()
	cfg.HardAssignment = true
	res, err := Cluster(context.Background(), m, cfg)
	require.NoError(t, err)
	require.Len(t, res.Committees, 2)
	assert.True(t, labelsEquivalent([]int{0, 0, 0, 1, 1, 1}, res.Labels()), "labels %v", res.Labels())
}
