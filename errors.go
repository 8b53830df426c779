package cbc

import "errors"

var (
	// ErrNotSparse is returned when Cluster is handed a Matrix that is not a
	// *SparseMatrix.
	ErrNotSparse = errors.New("cbc: only sparse matrices are accepted")

	// ErrInvalidMatrix is returned for malformed rows: out-of-range or
	// repeated feature indices, non-finite weights, ragged dense input.
	ErrInvalidMatrix = errors.New("cbc: invalid matrix")

	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("cbc: invalid config")

	// ErrNoCommittees is returned by hard assignment when discovery found
	// nothing to assign rows to.
	ErrNoCommittees = errors.New("cbc: no committees to assign rows to")

	// ErrEmptyInput is returned by ClusterRows when given no rows.
	ErrEmptyInput = errors.New("cbc: no rows to cluster")
)
