package cbc

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SparseVector is an immutable sparse row: sorted, unique feature indices with
// their nonzero weights. The zero value is an empty vector of dimension 0.
type SparseVector struct {
	dim     int
	indices []int
	values  []float64
	norm    float64
}

// NewSparseVector builds a vector of dimension dim from a feature→weight map.
// Zero weights are dropped. Indices are not range-checked here; use
// NewSparseMatrix or SparseVectorFromPairs for validated input.
func NewSparseVector(dim int, weights map[int]float64) SparseVector {
	indices := make([]int, 0, len(weights))
	for i, w := range weights {
		if w != 0 {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	values := make([]float64, len(indices))
	for k, i := range indices {
		values[k] = weights[i]
	}
	return newSparseVector(dim, indices, values)
}

// SparseVectorFromPairs builds a vector from parallel index/value slices.
// Indices may be in any order but must be unique and inside [0, dim); weights
// must be finite. Zero weights are dropped.
func SparseVectorFromPairs(dim int, indices []int, values []float64) (SparseVector, error) {
	if len(indices) != len(values) {
		return SparseVector{}, fmt.Errorf("cbc: %d indices but %d values", len(indices), len(values))
	}
	order := make([]int, len(indices))
	for k := range order {
		order[k] = k
	}
	sort.Slice(order, func(a, b int) bool { return indices[order[a]] < indices[order[b]] })

	outIdx := make([]int, 0, len(indices))
	outVal := make([]float64, 0, len(indices))
	prev := -1
	for _, k := range order {
		i, w := indices[k], values[k]
		if i < 0 || i >= dim {
			return SparseVector{}, fmt.Errorf("cbc: feature index %d outside [0, %d)", i, dim)
		}
		if i == prev {
			return SparseVector{}, fmt.Errorf("cbc: duplicate feature index %d", i)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return SparseVector{}, fmt.Errorf("cbc: non-finite weight %v at feature %d", w, i)
		}
		prev = i
		if w == 0 {
			continue
		}
		outIdx = append(outIdx, i)
		outVal = append(outVal, w)
	}
	return newSparseVector(dim, outIdx, outVal), nil
}

// newSparseVector takes ownership of already sorted, zero-free slices.
func newSparseVector(dim int, indices []int, values []float64) SparseVector {
	v := SparseVector{dim: dim, indices: indices, values: values}
	if len(values) > 0 {
		v.norm = floats.Norm(values, 2)
	}
	return v
}

// Dim returns the dimensionality (column count) of the vector.
func (v SparseVector) Dim() int { return v.dim }

// NNZ returns the number of nonzero components.
func (v SparseVector) NNZ() int { return len(v.indices) }

// IsZero reports whether the vector has no nonzero components.
func (v SparseVector) IsZero() bool { return len(v.indices) == 0 }

// Indices returns the sorted nonzero feature indices. The slice is shared and
// must not be modified.
func (v SparseVector) Indices() []int { return v.indices }

// Values returns the weights aligned with Indices. The slice is shared and
// must not be modified.
func (v SparseVector) Values() []float64 { return v.values }

// Norm returns the Euclidean length of the vector.
func (v SparseVector) Norm() float64 { return v.norm }

// Get returns the weight of feature i, or 0 when it is absent.
func (v SparseVector) Get(i int) float64 {
	k := sort.SearchInts(v.indices, i)
	if k < len(v.indices) && v.indices[k] == i {
		return v.values[k]
	}
	return 0
}

// Dot returns the inner product of v and w.
func (v SparseVector) Dot(w SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.indices) && j < len(w.indices) {
		switch {
		case v.indices[i] < w.indices[j]:
			i++
		case v.indices[i] > w.indices[j]:
			j++
		default:
			sum += v.values[i] * w.values[j]
			i++
			j++
		}
	}
	return sum
}

// Add returns v + w as a new vector. Components that cancel to zero are
// dropped. The result takes the larger of the two dimensions.
func (v SparseVector) Add(w SparseVector) SparseVector {
	indices := make([]int, 0, len(v.indices)+len(w.indices))
	values := make([]float64, 0, len(v.indices)+len(w.indices))
	push := func(i int, x float64) {
		if x != 0 {
			indices = append(indices, i)
			values = append(values, x)
		}
	}
	i, j := 0, 0
	for i < len(v.indices) || j < len(w.indices) {
		switch {
		case j == len(w.indices) || (i < len(v.indices) && v.indices[i] < w.indices[j]):
			push(v.indices[i], v.values[i])
			i++
		case i == len(v.indices) || v.indices[i] > w.indices[j]:
			push(w.indices[j], w.values[j])
			j++
		default:
			push(v.indices[i], v.values[i]+w.values[j])
			i++
			j++
		}
	}
	return newSparseVector(max(v.dim, w.dim), indices, values)
}

// Exclude returns a copy of v without the features that are nonzero in drop.
// v itself is left untouched.
func (v SparseVector) Exclude(drop SparseVector) SparseVector {
	indices := make([]int, 0, len(v.indices))
	values := make([]float64, 0, len(v.indices))
	j := 0
	for i, f := range v.indices {
		for j < len(drop.indices) && drop.indices[j] < f {
			j++
		}
		if j < len(drop.indices) && drop.indices[j] == f {
			continue
		}
		indices = append(indices, f)
		values = append(values, v.values[i])
	}
	return newSparseVector(v.dim, indices, values)
}

// TopFeatures returns up to n feature indices with the largest weights, best
// first. Equal weights prefer the lower feature index.
func (v SparseVector) TopFeatures(n int) []int {
	if n >= len(v.indices) {
		out := make([]int, len(v.indices))
		copy(out, v.indices)
		sortByWeight(out, v)
		return out
	}
	top := newTopK(n)
	for k, i := range v.indices {
		top.Offer(i, v.values[k])
	}
	return top.IDs()
}

func sortByWeight(features []int, v SparseVector) {
	sort.SliceStable(features, func(a, b int) bool {
		wa, wb := v.Get(features[a]), v.Get(features[b])
		if wa != wb {
			return wa > wb
		}
		return features[a] < features[b]
	})
}

// Matrix is a row-major collection of vectors with a fixed column count.
// Only *SparseMatrix is accepted by Cluster.
type Matrix interface {
	Rows() int
	Columns() int
}

// SparseMatrix is an immutable matrix of SparseVector rows.
type SparseMatrix struct {
	columns int
	rows    []SparseVector
}

// NewSparseMatrix validates rows against the column count and returns the
// matrix. Every row must have dimension columns (or 0, which is widened) and
// indices inside [0, columns).
func NewSparseMatrix(columns int, rows []SparseVector) (*SparseMatrix, error) {
	if columns < 0 {
		return nil, fmt.Errorf("%w: negative column count %d", ErrInvalidMatrix, columns)
	}
	out := make([]SparseVector, len(rows))
	for r, row := range rows {
		if row.dim != columns && row.dim != 0 {
			return nil, fmt.Errorf("%w: row %d has dimension %d, want %d", ErrInvalidMatrix, r, row.dim, columns)
		}
		prev := -1
		for k, i := range row.indices {
			if i <= prev || i >= columns {
				return nil, fmt.Errorf("%w: row %d has invalid feature index %d", ErrInvalidMatrix, r, i)
			}
			if w := row.values[k]; math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: row %d has non-finite weight at feature %d", ErrInvalidMatrix, r, i)
			}
			prev = i
		}
		row.dim = columns
		out[r] = row
	}
	return &SparseMatrix{columns: columns, rows: out}, nil
}

// Rows returns the number of rows.
func (m *SparseMatrix) Rows() int { return len(m.rows) }

// Columns returns the feature dimensionality.
func (m *SparseMatrix) Columns() int { return m.columns }

// Row returns row r.
func (m *SparseMatrix) Row(r int) SparseVector { return m.rows[r] }

// DenseMatrix holds dense rows. It satisfies Matrix but Cluster rejects it;
// convert with Sparse first.
type DenseMatrix [][]float64

// Rows returns the number of rows.
func (d DenseMatrix) Rows() int { return len(d) }

// Columns returns the length of the first row, or 0 for an empty matrix.
func (d DenseMatrix) Columns() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0])
}

// Sparse converts d to a SparseMatrix, dropping zero entries. All rows must
// have the same length.
func (d DenseMatrix) Sparse() (*SparseMatrix, error) {
	cols := d.Columns()
	rows := make([]SparseVector, len(d))
	for r, dense := range d {
		if len(dense) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMatrix, r, len(dense), cols)
		}
		var indices []int
		var values []float64
		for i, w := range dense {
			if w != 0 {
				indices = append(indices, i)
				values = append(values, w)
			}
		}
		v, err := SparseVectorFromPairs(cols, indices, values)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidMatrix, r, err)
		}
		rows[r] = v
	}
	return NewSparseMatrix(cols, rows)
}
