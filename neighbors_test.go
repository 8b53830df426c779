package cbc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighborSet_Without(t *testing.T) {
	ns := NeighborSet{Row: 3, Neighbors: []int{1, 3, 5, 8}}

	reduced := ns.Without([]int{8, 1})
	assert.Equal(t, NeighborSet{Row: 3, Neighbors: []int{3, 5}}, reduced)
	assert.Equal(t, []int{1, 3, 5, 8}, ns.Neighbors, "original unchanged")

	assert.Empty(t, ns.Without([]int{1, 3, 5, 8}).Neighbors)
}

func TestBuildNeighborLists_TwoTopics(t *testing.T) {
	m := twoTopics(t)
	idx := BuildFeatureIndex(m)

	lists, err := BuildNeighborLists(context.Background(), m, idx, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, lists, 6)

	for r, ns := range lists {
		assert.Equal(t, r, ns.Row)
		if r < 3 {
			assert.Equal(t, []int{0, 1, 2}, ns.Neighbors, "row %d", r)
		} else {
			assert.Equal(t, []int{3, 4, 5}, ns.Neighbors, "row %d", r)
		}
	}
}

func TestBuildNeighborLists_KeepsMostSimilar(t *testing.T) {
	m := matrix(t, 3,
		map[int]float64{0: 1, 1: 1},
		map[int]float64{0: 1, 1: 0.9},
		map[int]float64{0: 1, 2: 5},
		map[int]float64{1: 1},
	)
	cfg := DefaultConfig()
	cfg.Neighbors = 2

	lists, err := BuildNeighborLists(context.Background(), m, BuildFeatureIndex(m), cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, lists[0].Neighbors)
	assert.Equal(t, []int{0, 1}, lists[1].Neighbors)
	assert.Equal(t, []int{1, 2}, lists[2].Neighbors)
	assert.Equal(t, []int{0, 3}, lists[3].Neighbors)
}

func TestBuildNeighborLists_TopFeaturesLimitsCandidates(t *testing.T) {
	// Row 0 weighs feature 0 heaviest; with TopFeatures = 1 row 2, which only
	// shares feature 1, is never a candidate.
	m := matrix(t, 2,
		map[int]float64{0: 2, 1: 1},
		map[int]float64{0: 1},
		map[int]float64{1: 1},
	)
	cfg := DefaultConfig()
	cfg.TopFeatures = 1

	lists, err := BuildNeighborLists(context.Background(), m, BuildFeatureIndex(m), cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, lists[0].Neighbors)
	assert.Equal(t, []int{0, 2}, lists[2].Neighbors)
}

func TestBuildNeighborLists_EmptyRow(t *testing.T) {
	m := matrix(t, 2, map[int]float64{0: 1}, map[int]float64{})

	lists, err := BuildNeighborLists(context.Background(), m, BuildFeatureIndex(m), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []int{0}, lists[0].Neighbors)
	assert.Empty(t, lists[1].Neighbors)
}

func TestBuildNeighborLists_WorkerCountDoesNotMatter(t *testing.T) {
	m, _ := topicMatrix(t, 3, 5, 30, 8)
	idx := BuildFeatureIndex(m)

	var want []NeighborSet
	for _, workers := range []int{1, 2, 8} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		got, err := BuildNeighborLists(context.Background(), m, idx, cfg)
		require.NoError(t, err)
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestBuildNeighborLists_InvalidConfig(t *testing.T) {
	m := twoTopics(t)
	cfg := DefaultConfig()
	cfg.Neighbors = -1
	_, err := BuildNeighborLists(context.Background(), m, BuildFeatureIndex(m), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
