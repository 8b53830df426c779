package cbc

import (
	"context"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
)

// Candidate is a proposed committee: the best HAC sub-cluster found in one
// row's neighborhood.
type Candidate struct {
	// Row is the row whose neighborhood produced the candidate.
	Row int
	// Members are the neighbor rows in the winning sub-cluster, sorted.
	Members []int
	// Centroid is the unnormalized sum of the member rows.
	Centroid SparseVector
	// Score approximates size × average intra-cluster similarity.
	Score float64
}

// Committee is an accepted cluster. Committees are never modified after
// acceptance.
type Committee struct {
	// Index is the committee's position in the final committee list.
	Index int
	// Centroid is the unnormalized sum of the member rows.
	Centroid SparseVector
	// Members are the rows the committee was formed from.
	Members []int
	// Origin is the row whose neighborhood produced the committee.
	Origin int
	// Score is the candidate score the committee was accepted with.
	Score float64
	// Round is the discovery round (1-based) that accepted it.
	Round int
}

// RoundStats summarizes one discovery round.
type RoundStats struct {
	Round      int
	Rows       int
	Candidates int
	Accepted   int
	Residual   int
	BestScore  float64
}

// Discovery is the outcome of DiscoverCommittees.
type Discovery struct {
	Committees []Committee
	Rounds     []RoundStats
	// Residual lists the rows, sorted, that no committee covered when
	// discovery stopped.
	Residual []int
}

// BuildCandidate clusters the neighbors of ns with HAC cut at threshold and
// returns the highest-scoring sub-cluster. A sub-cluster's score is the sum,
// over its members in neighbor order, of the cosine similarity between the
// centroid built so far and the member being added; this telescopes to
// roughly size × average pairwise similarity without a quadratic rescan.
//
// ok is false when no sub-cluster scores above zero, which is always the case
// for a neighborhood of one row: a point cannot form a committee by itself.
func BuildCandidate(m *SparseMatrix, ns NeighborSet, threshold float64, linkage Linkage) (c Candidate, ok bool, err error) {
	if len(ns.Neighbors) == 0 {
		return Candidate{}, false, nil
	}
	vectors := make([]SparseVector, len(ns.Neighbors))
	for i, n := range ns.Neighbors {
		vectors[i] = m.Row(n)
	}
	labels, err := ClusterRows(vectors, threshold, linkage)
	if err != nil {
		return Candidate{}, false, err
	}

	numClusters := slices.Max(labels) + 1
	centroids := make([]SparseVector, numClusters)
	scores := make([]float64, numClusters)
	for i, label := range labels {
		scores[label] += CosineSimilarity(centroids[label], vectors[i])
		centroids[label] = centroids[label].Add(vectors[i])
	}

	best := -1
	var bestScore float64
	for label, s := range scores {
		if s > bestScore {
			best, bestScore = label, s
		}
	}
	if best < 0 {
		return Candidate{}, false, nil
	}

	members := make([]int, 0, len(labels))
	for i, label := range labels {
		if label == best {
			members = append(members, ns.Neighbors[i])
		}
	}
	return Candidate{
		Row:      ns.Row,
		Members:  members,
		Centroid: centroids[best],
		Score:    bestScore,
	}, true, nil
}

// DiscoverCommittees finds committees from the per-row neighbor sets.
//
// Each round builds one candidate per neighbor set in parallel, then walks
// the candidates by descending score and accepts those whose centroid has
// cosine similarity below cfg.Threshold2 with every committee accepted so far,
// including earlier rounds. Rows whose similarity to every committee is below
// cfg.Threshold3 are residual and seed the next round, with the members of
// any committee they originated removed from their neighbor set. Discovery
// stops when a round accepts nothing, no rows are residual, or
// cfg.MaxRounds rounds have run.
func DiscoverCommittees(ctx context.Context, m *SparseMatrix, neighbors []NeighborSet, cfg Config) (*Discovery, error) {
	cfg, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	r, err := discoverRound(ctx, m, neighbors, nil, 1, cfg)
	if err != nil {
		return nil, err
	}
	return &Discovery{Committees: r.committees, Rounds: r.rounds, Residual: r.residual}, nil
}

type roundResult struct {
	committees []Committee
	rounds     []RoundStats
	residual   []int
}

// discoverRound runs round number round over neighbors and recurses on the
// residual rows. prior holds committees from earlier rounds; the result
// holds only committees accepted by this round and its successors.
func discoverRound(ctx context.Context, m *SparseMatrix, neighbors []NeighborSet, prior []Committee, round int, cfg Config) (roundResult, error) {
	log := cfg.Logger.With("round", round)
	stats := RoundStats{Round: round, Rows: len(neighbors)}

	slots := make([]Candidate, len(neighbors))
	found := make([]bool, len(neighbors))
	err := parallelFor(ctx, len(neighbors), cfg.Workers, func(ctx context.Context, i int) error {
		c, ok, err := BuildCandidate(m, neighbors[i], cfg.Threshold1, cfg.Linkage)
		if err != nil {
			log.DebugContext(ctx, "skipping row", "row", neighbors[i].Row, "error", err)
			return nil
		}
		slots[i], found[i] = c, ok
		return nil
	})
	if err != nil {
		return roundResult{}, err
	}

	candidates := make([]Candidate, 0, len(slots))
	for i, c := range slots {
		if found[i] {
			candidates = append(candidates, c)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		return candidates[a].Row < candidates[b].Row
	})
	stats.Candidates = len(candidates)
	if len(candidates) > 0 {
		scores := make([]float64, len(candidates))
		for i, c := range candidates {
			scores[i] = c.Score
		}
		stats.BestScore = floats.Max(scores)
	}

	accepted := acceptDistinct(candidates, prior, round, cfg.Threshold2)
	stats.Accepted = len(accepted)

	rows := make([]int, len(neighbors))
	for i, ns := range neighbors {
		rows[i] = ns.Row
	}
	if len(accepted) == 0 {
		stats.Residual = len(rows)
		log.InfoContext(ctx, "discovery converged", "rows", stats.Rows, "candidates", stats.Candidates)
		slices.Sort(rows)
		return roundResult{rounds: []RoundStats{stats}, residual: rows}, nil
	}

	all := slices.Concat(prior, accepted)
	residual := residualRows(m, rows, all, cfg.Threshold3)
	stats.Residual = int(residual.GetCardinality())
	log.InfoContext(ctx, "committee round",
		"rows", stats.Rows,
		"candidates", stats.Candidates,
		"accepted", stats.Accepted,
		"residual", stats.Residual,
	)

	result := roundResult{committees: accepted, rounds: []RoundStats{stats}, residual: bitmapRows(residual)}
	if residual.IsEmpty() {
		return result, nil
	}
	if round >= cfg.MaxRounds {
		log.WarnContext(ctx, "round limit reached", "max_rounds", cfg.MaxRounds, "residual", stats.Residual)
		return result, nil
	}

	next := nextNeighborSets(neighbors, accepted, residual)
	rest, err := discoverRound(ctx, m, next, all, round+1, cfg)
	if err != nil {
		return roundResult{}, err
	}
	result.committees = append(result.committees, rest.committees...)
	result.rounds = append(result.rounds, rest.rounds...)
	result.residual = rest.residual
	return result, nil
}

// acceptDistinct walks candidates in order and accepts each one whose
// centroid is less than threshold similar to every committee in prior and
// every committee accepted before it.
func acceptDistinct(candidates []Candidate, prior []Committee, round int, threshold float64) []Committee {
	var accepted []Committee
	isDistinct := func(c Candidate) bool {
		for _, group := range [][]Committee{prior, accepted} {
			for _, existing := range group {
				if CosineSimilarity(c.Centroid, existing.Centroid) >= threshold {
					return false
				}
			}
		}
		return true
	}
	for _, c := range candidates {
		if !isDistinct(c) {
			continue
		}
		accepted = append(accepted, Committee{
			Index:    len(prior) + len(accepted),
			Centroid: c.Centroid,
			Members:  c.Members,
			Origin:   c.Row,
			Score:    c.Score,
			Round:    round,
		})
	}
	return accepted
}

// residualRows returns the rows whose similarity to every committee is below
// threshold.
func residualRows(m *SparseMatrix, rows []int, committees []Committee, threshold float64) *roaring.Bitmap {
	residual := roaring.New()
	for _, r := range rows {
		v := m.Row(r)
		covered := false
		for _, c := range committees {
			if CosineSimilarity(v, c.Centroid) >= threshold {
				covered = true
				break
			}
		}
		if !covered {
			residual.Add(uint32(r))
		}
	}
	return residual
}

// nextNeighborSets derives the neighbor sets for the next round: one per
// residual row, with the members of a committee removed from the neighbor set
// that produced it.
func nextNeighborSets(neighbors []NeighborSet, accepted []Committee, residual *roaring.Bitmap) []NeighborSet {
	spoken := make(map[int][]int, len(accepted))
	for _, c := range accepted {
		spoken[c.Origin] = c.Members
	}

	next := make([]NeighborSet, 0, residual.GetCardinality())
	for _, ns := range neighbors {
		if !residual.Contains(uint32(ns.Row)) {
			continue
		}
		if drop, ok := spoken[ns.Row]; ok {
			ns = ns.Without(drop)
		}
		next = append(next, ns)
	}
	return next
}

func bitmapRows(b *roaring.Bitmap) []int {
	rows := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}
	return rows
}
