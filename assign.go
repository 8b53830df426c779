package cbc

import (
	"context"
	"fmt"
	"strings"
)

// Reduction selects what soft assignment does to a row's vector after the row
// joins a committee.
type Reduction int

const (
	// ReductionNone scores every committee against the unmodified row once,
	// before the walk starts. Accepting a committee does not change how the
	// remaining committees are ranked.
	ReductionNone Reduction = iota
	// ReductionProgressive removes the features a row shares with each
	// committee it joins and re-ranks the remaining committees against what
	// is left, so later committees are judged on evidence not already
	// explained.
	//
	// This departs from the literal reduction, which zeroes the row's
	// features that are absent from the accepted centroid and keeps the
	// shared ones. Progressive mode removes the shared features instead, as
	// the published CBC algorithm describes; ReductionNone keeps the literal
	// walk, where the reduced vector is never rescored.
	ReductionProgressive
)

func (r Reduction) String() string {
	switch r {
	case ReductionNone:
		return "none"
	case ReductionProgressive:
		return "progressive"
	default:
		return fmt.Sprintf("Reduction(%d)", int(r))
	}
}

// ParseReduction maps "none" and "progressive" to a Reduction. Matching is
// case-insensitive and the empty string means ReductionNone.
func ParseReduction(s string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ReductionNone, nil
	case "progressive":
		return ReductionProgressive, nil
	default:
		return 0, fmt.Errorf("cbc: unknown soft reduction %q", s)
	}
}

// Assignment lists the committee indices a row belongs to, in selection
// order, without duplicates. Hard assignment always yields exactly one index;
// soft assignment may yield none.
type Assignment struct {
	Committees []int
}

// Label returns the first committee index, or -1 when there is none.
func (a Assignment) Label() int {
	if len(a.Committees) == 0 {
		return -1
	}
	return a.Committees[0]
}

// AssignHard assigns every row of m to its most cosine-similar committee.
// Equal similarities go to the lower committee index. Returns
// ErrNoCommittees if committees is empty.
func AssignHard(ctx context.Context, m *SparseMatrix, committees []Committee, cfg Config) ([]Assignment, error) {
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	if len(committees) == 0 {
		return nil, ErrNoCommittees
	}
	out := make([]Assignment, m.Rows())
	err = parallelFor(ctx, m.Rows(), cfg.Workers, func(_ context.Context, r int) error {
		out[r] = Assignment{Committees: []int{nearestCommittee(m.Row(r), committees)}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func nearestCommittee(v SparseVector, committees []Committee) int {
	best := 0
	bestScore := CosineSimilarity(committees[0].Centroid, v)
	for i := 1; i < len(committees); i++ {
		if s := CosineSimilarity(committees[i].Centroid, v); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// AssignSoft assigns every row of m to zero or more mutually distinct
// committees. Committees are inspected from most to least similar to the row;
// the walk stops after cfg.SoftMaxCommittees inspections or when similarity
// drops below cfg.SoftMinSimilarity. An inspected committee is selected when
// its centroid is less than cfg.SoftOverlap similar to every committee already
// selected for the row. cfg.SoftReduction decides whether selection changes
// the ranking of the committees not yet inspected.
func AssignSoft(ctx context.Context, m *SparseMatrix, committees []Committee, cfg Config) ([]Assignment, error) {
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, m.Rows())
	err = parallelFor(ctx, m.Rows(), cfg.Workers, func(_ context.Context, r int) error {
		out[r] = Assignment{Committees: softAssign(m.Row(r), committees, cfg)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func softAssign(v SparseVector, committees []Committee, cfg Config) []int {
	sims := make([]float64, len(committees))
	score := func(done []bool) {
		for i, c := range committees {
			if !done[i] {
				sims[i] = CosineSimilarity(c.Centroid, v)
			}
		}
	}
	done := make([]bool, len(committees))
	score(done)

	selected := []int{}
	for inspected := 0; inspected < cfg.SoftMaxCommittees; inspected++ {
		next := -1
		for i := range committees {
			if !done[i] && (next < 0 || sims[i] > sims[next]) {
				next = i
			}
		}
		if next < 0 || sims[next] < cfg.SoftMinSimilarity {
			break
		}
		done[next] = true

		if !distinctFrom(committees[next], selected, committees, cfg.SoftOverlap) {
			continue
		}
		selected = append(selected, next)
		if cfg.SoftReduction == ReductionProgressive {
			v = v.Exclude(committees[next].Centroid)
			score(done)
		}
	}
	return selected
}

// distinctFrom reports whether c is less than threshold similar to every
// committee in selected.
func distinctFrom(c Committee, selected []int, committees []Committee, threshold float64) bool {
	for _, i := range selected {
		if CosineSimilarity(c.Centroid, committees[i].Centroid) >= threshold {
			return false
		}
	}
	return true
}
