package cbc

import (
	"bytes"
	"context"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.50, cfg.Threshold1)
	assert.Equal(t, 0.35, cfg.Threshold2)
	assert.Equal(t, 0.25, cfg.Threshold3)
	assert.False(t, cfg.HardAssignment)
	assert.Equal(t, 100, cfg.TopFeatures)
	assert.Equal(t, 20, cfg.Neighbors)
	assert.Equal(t, MeanLinkage, cfg.Linkage)
	assert.Equal(t, 200, cfg.SoftMaxCommittees)
	assert.Equal(t, 0.01, cfg.SoftMinSimilarity)
	assert.Equal(t, 0.10, cfg.SoftOverlap)
	assert.Equal(t, ReductionNone, cfg.SoftReduction)
	assert.Zero(t, cfg.Workers)
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, DefaultTopFeatures, cfg.TopFeatures)
	assert.Equal(t, DefaultNeighbors, cfg.Neighbors)
	assert.Equal(t, DefaultMaxRounds, cfg.MaxRounds)
	assert.Equal(t, DefaultSoftMaxCommittees, cfg.SoftMaxCommittees)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.NotNil(t, cfg.Logger)
	assert.Zero(t, cfg.Threshold1, "thresholds are left alone")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Threshold1 > 1", func(c *Config) { c.Threshold1 = 1.5 }},
		{"Threshold2 < -1", func(c *Config) { c.Threshold2 = -2 }},
		{"Threshold3 NaN", func(c *Config) { c.Threshold3 = math.NaN() }},
		{"SoftOverlap > 1", func(c *Config) { c.SoftOverlap = 3 }},
		{"negative TopFeatures", func(c *Config) { c.TopFeatures = -1 }},
		{"negative Neighbors", func(c *Config) { c.Neighbors = -5 }},
		{"negative MaxRounds", func(c *Config) { c.MaxRounds = -1 }},
		{"negative SoftMaxCommittees", func(c *Config) { c.SoftMaxCommittees = -1 }},
		{"negative Workers", func(c *Config) { c.Workers = -2 }},
		{"invalid Linkage", func(c *Config) { c.Linkage = Linkage(9) }},
		{"invalid SoftReduction", func(c *Config) { c.SoftReduction = Reduction(7) }},
	}

	m := twoTopics(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := Cluster(context.Background(), m, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestClusterRejectsNonSparse(t *testing.T) {
	dense := DenseMatrix{{1, 0}, {0, 1}}
	_, err := Cluster(context.Background(), dense, DefaultConfig())
	assert.ErrorIs(t, err, ErrNotSparse, "dense input")

	_, err = Cluster(context.Background(), (*SparseMatrix)(nil), DefaultConfig())
	assert.ErrorIs(t, err, ErrNotSparse, "nil input")

	m, err := dense.Sparse()
	require.NoError(t, err)
	_, err = Cluster(context.Background(), m, DefaultConfig())
	assert.NoError(t, err, "converted input")
}

func TestClusterEmptyData(t *testing.T) {
	m := matrix(t, 4)
	result, err := Cluster(context.Background(), m, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Assignments)
	assert.Empty(t, result.Committees)

	cfg := DefaultConfig()
	cfg.HardAssignment = true
	_, err = Cluster(context.Background(), m, cfg)
	assert.ErrorIs(t, err, ErrNoCommittees, "hard mode")
}

func TestClusterHard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HardAssignment = true
	result, err := Cluster(context.Background(), twoTopics(t), cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, result.Labels())
	assert.Len(t, result.Rounds, 1)
}

func TestClusterSoft(t *testing.T) {
	result, err := Cluster(context.Background(), twoTopicsAndOutlier(t), DefaultConfig())
	require.NoError(t, err)

	want := [][]int{{0}, {0}, {0}, {1}, {1}, {1}, nil}
	require.Len(t, result.Assignments, len(want))
	for i, a := range result.Assignments {
		if len(want[i]) == 0 {
			assert.Empty(t, a.Committees, "row %d", i)
			continue
		}
		assert.Equal(t, want[i], a.Committees, "row %d", i)
	}
	assert.Equal(t, -1, result.Labels()[6], "outlier label")
	assert.Equal(t, []int{6}, result.Residual)
}

func TestClusterDeterministic(t *testing.T) {
	m, _ := topicMatrix(t, 21, 6, 30, 10)

	var first *Result
	for _, workers := range []int{1, 2, 4, 16} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		result, err := Cluster(context.Background(), m, cfg)
		require.NoError(t, err, "workers=%d", workers)
		if first == nil {
			first = result
			continue
		}
		require.Len(t, result.Committees, len(first.Committees), "workers=%d", workers)
		assert.Equal(t, first.Assignments, result.Assignments, "workers=%d", workers)
	}
}

func TestClusterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Cluster(ctx, twoTopics(t), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClusterLogs(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = bufferLogger(&buf)
	_, err := Cluster(context.Background(), twoTopics(t), cfg)
	require.NoError(t, err)

	for _, msg := range []string{
		"starting clustering by committee",
		"building neighbor lists",
		"features=6",
		"committee round",
		"assigning rows to committees",
	} {
		assert.Contains(t, buf.String(), msg)
	}
}
