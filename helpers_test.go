package cbc

import (
	"bytes"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// matrix builds a SparseMatrix from feature→weight maps.
func matrix(t testing.TB, columns int, rows ...map[int]float64) *SparseMatrix {
	t.Helper()
	vectors := make([]SparseVector, len(rows))
	for i, r := range rows {
		vectors[i] = NewSparseVector(columns, r)
	}
	m, err := NewSparseMatrix(columns, vectors)
	require.NoError(t, err)
	return m
}

// twoTopics returns six rows: rows 0-2 use only features 0-2 and rows 3-5
// use only features 3-5.
func twoTopics(t testing.TB) *SparseMatrix {
	t.Helper()
	a := map[int]float64{0: 1, 1: 1, 2: 1}
	b := map[int]float64{3: 1, 4: 1, 5: 1}
	return matrix(t, 6, a, a, a, b, b, b)
}

// twoTopicsAndOutlier is twoTopics plus row 6, which shares no feature with
// any other row.
func twoTopicsAndOutlier(t testing.TB) *SparseMatrix {
	t.Helper()
	a := map[int]float64{0: 1, 1: 1, 2: 1}
	b := map[int]float64{3: 1, 4: 1, 5: 1}
	return matrix(t, 7, a, a, a, b, b, b, map[int]float64{6: 1})
}

// topicMatrix generates rows drawn from topics with disjoint feature blocks.
// Each row uses a random subset of its topic's features with random weights,
// plus an occasional low-weight feature from another topic.
func topicMatrix(t testing.TB, seed int64, topics, rowsPerTopic, featuresPerTopic int) (*SparseMatrix, []int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	columns := topics * featuresPerTopic
	var rows []SparseVector
	var truth []int
	for topic := 0; topic < topics; topic++ {
		base := topic * featuresPerTopic
		for i := 0; i < rowsPerTopic; i++ {
			w := make(map[int]float64)
			for f := 0; f < featuresPerTopic; f++ {
				if rng.Float64() < 0.7 {
					w[base+f] = 0.5 + rng.Float64()
				}
			}
			if len(w) == 0 {
				w[base] = 1
			}
			if rng.Float64() < 0.2 {
				w[rng.Intn(columns)] += 0.1
			}
			rows = append(rows, NewSparseVector(columns, w))
			truth = append(truth, topic)
		}
	}
	m, err := NewSparseMatrix(columns, rows)
	require.NoError(t, err)
	return m, truth
}

// bufferLogger returns a debug-level logger writing text records to buf.
func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
