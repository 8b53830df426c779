package cbc

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
)

// Default values for Config.
const (
	DefaultThreshold1        = 0.50
	DefaultThreshold2        = 0.35
	DefaultThreshold3        = 0.25
	DefaultTopFeatures       = 100
	DefaultNeighbors         = 20
	DefaultMaxRounds         = 64
	DefaultSoftMaxCommittees = 200
	DefaultSoftMinSimilarity = 0.01
	DefaultSoftOverlap       = 0.10
)

// Config controls Clustering By Committee.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Threshold1 is the similarity at which HAC stops merging inside a row's
	// neighborhood. Higher values give smaller, tighter candidates.
	// Must be in [-1, 1]. Default: 0.50.
	Threshold1 float64

	// Threshold2 is the committee distinctness bound: a candidate is accepted
	// only if its centroid is less similar than this to every accepted
	// committee. Must be in [-1, 1]. Default: 0.35.
	Threshold2 float64

	// Threshold3 is the residual cutoff: a row less similar than this to
	// every committee seeds the next discovery round. Must be in [-1, 1].
	// Default: 0.25.
	Threshold3 float64

	// HardAssignment assigns each row to exactly one committee. When false,
	// rows get zero or more mutually distinct committees. Default: false.
	HardAssignment bool

	// TopFeatures is how many of a row's heaviest features are used to find
	// candidate neighbors. Must be >= 1. Default: 100.
	TopFeatures int

	// Neighbors is how many nearest neighbors are kept per row, the row itself
	// included. Must be >= 1. Default: 20.
	Neighbors int

	// Linkage is the HAC linkage used inside neighborhoods. Default: MeanLinkage.
	Linkage Linkage

	// MaxRounds bounds the number of discovery rounds. Must be >= 1.
	// Default: 64.
	MaxRounds int

	// SoftMaxCommittees caps how many committees soft assignment inspects per
	// row. Must be >= 1. Default: 200.
	SoftMaxCommittees int

	// SoftMinSimilarity ends a row's soft walk once committee similarity drops
	// below it. Default: 0.01.
	SoftMinSimilarity float64

	// SoftOverlap is the per-row distinctness bound in soft assignment.
	// Default: 0.10.
	SoftOverlap float64

	// SoftReduction chooses how a row's vector changes as it joins
	// committees. Default: ReductionNone.
	SoftReduction Reduction

	// Workers is the number of goroutines used by the parallel phases.
	// 0 means runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// Logger receives progress logs. nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the published defaults.
func DefaultConfig() Config {
	return Config{
		Threshold1:        DefaultThreshold1,
		Threshold2:        DefaultThreshold2,
		Threshold3:        DefaultThreshold3,
		TopFeatures:       DefaultTopFeatures,
		Neighbors:         DefaultNeighbors,
		Linkage:           MeanLinkage,
		MaxRounds:         DefaultMaxRounds,
		SoftMaxCommittees: DefaultSoftMaxCommittees,
		SoftMinSimilarity: DefaultSoftMinSimilarity,
		SoftOverlap:       DefaultSoftOverlap,
	}
}

// applyDefaults fills in zero-valued count fields and the runtime defaults.
// Thresholds are left alone since 0 is a meaningful value for them.
func applyDefaults(cfg *Config) {
	if cfg.TopFeatures == 0 {
		cfg.TopFeatures = DefaultTopFeatures
	}
	if cfg.Neighbors == 0 {
		cfg.Neighbors = DefaultNeighbors
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.SoftMaxCommittees == 0 {
		cfg.SoftMaxCommittees = DefaultSoftMaxCommittees
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive
// error wrapping ErrInvalidConfig if not.
func validateConfig(cfg *Config) error {
	for _, th := range []struct {
		name string
		v    float64
	}{
		{"Threshold1", cfg.Threshold1},
		{"Threshold2", cfg.Threshold2},
		{"Threshold3", cfg.Threshold3},
		{"SoftMinSimilarity", cfg.SoftMinSimilarity},
		{"SoftOverlap", cfg.SoftOverlap},
	} {
		if math.IsNaN(th.v) || th.v < -1 || th.v > 1 {
			return fmt.Errorf("%w: %s must be in [-1, 1], got %v", ErrInvalidConfig, th.name, th.v)
		}
	}
	if cfg.TopFeatures < 1 {
		return fmt.Errorf("%w: TopFeatures must be >= 1, got %d", ErrInvalidConfig, cfg.TopFeatures)
	}
	if cfg.Neighbors < 1 {
		return fmt.Errorf("%w: Neighbors must be >= 1, got %d", ErrInvalidConfig, cfg.Neighbors)
	}
	if cfg.MaxRounds < 1 {
		return fmt.Errorf("%w: MaxRounds must be >= 1, got %d", ErrInvalidConfig, cfg.MaxRounds)
	}
	if cfg.SoftMaxCommittees < 1 {
		return fmt.Errorf("%w: SoftMaxCommittees must be >= 1, got %d", ErrInvalidConfig, cfg.SoftMaxCommittees)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: Workers must be >= 0, got %d", ErrInvalidConfig, cfg.Workers)
	}
	if !cfg.Linkage.valid() {
		return fmt.Errorf("%w: invalid Linkage %v", ErrInvalidConfig, cfg.Linkage)
	}
	if cfg.SoftReduction != ReductionNone && cfg.SoftReduction != ReductionProgressive {
		return fmt.Errorf("%w: invalid SoftReduction %v", ErrInvalidConfig, cfg.SoftReduction)
	}
	return nil
}

// prepare applies defaults to a copy of cfg and validates it.
func prepare(cfg Config) (Config, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Result contains the output of Clustering By Committee.
type Result struct {
	// Assignments holds one entry per input row, in row order.
	Assignments []Assignment

	// Committees are the accepted committees; Assignment indices refer to
	// positions in this slice.
	Committees []Committee

	// Rounds describes each discovery round in order.
	Rounds []RoundStats

	// Residual lists the rows no committee covered when discovery stopped.
	Residual []int
}

// Labels returns the first committee of every row, or -1 for rows without
// one. In hard mode this is the row's only committee.
func (r *Result) Labels() []int {
	labels := make([]int, len(r.Assignments))
	for i, a := range r.Assignments {
		labels[i] = a.Label()
	}
	return labels
}

// Cluster runs Clustering By Committee on m. m must be a *SparseMatrix.
//
// The run builds the feature index, the per-row neighbor lists, discovers
// committees, and assigns every row. Any failure, including cancellation of
// ctx, aborts the whole run and no partial result is returned. In hard mode
// a run that discovers no committees fails with ErrNoCommittees.
func Cluster(ctx context.Context, m Matrix, cfg Config) (*Result, error) {
	sm, ok := m.(*SparseMatrix)
	if !ok || sm == nil {
		return nil, fmt.Errorf("%w: got %T", ErrNotSparse, m)
	}
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger

	log.InfoContext(ctx, "starting clustering by committee",
		"rows", sm.Rows(),
		"columns", sm.Columns(),
		"workers", cfg.Workers,
	)

	log.InfoContext(ctx, "mapping features to rows")
	idx := BuildFeatureIndex(sm)

	log.InfoContext(ctx, "building neighbor lists", "features", idx.Features())
	neighbors, err := BuildNeighborLists(ctx, sm, idx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cbc: building neighbor lists: %w", err)
	}

	log.InfoContext(ctx, "discovering committees")
	discovery, err := DiscoverCommittees(ctx, sm, neighbors, cfg)
	if err != nil {
		return nil, fmt.Errorf("cbc: discovering committees: %w", err)
	}

	log.InfoContext(ctx, "assigning rows to committees",
		"committees", len(discovery.Committees),
		"hard", cfg.HardAssignment,
	)
	var assignments []Assignment
	if cfg.HardAssignment {
		assignments, err = AssignHard(ctx, sm, discovery.Committees, cfg)
	} else {
		assignments, err = AssignSoft(ctx, sm, discovery.Committees, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cbc: assigning rows: %w", err)
	}

	return &Result{
		Assignments: assignments,
		Committees:  discovery.Committees,
		Rounds:      discovery.Rounds,
		Residual:    discovery.Residual,
	}, nil
}
