package cbc

import (
	"fmt"
	"math"
	"strings"
)

// Linkage selects how the similarity of two clusters is derived from the
// similarities of their members.
type Linkage int

const (
	// MeanLinkage uses the average pairwise similarity between members.
	MeanLinkage Linkage = iota
	// SingleLinkage uses the most similar pair of members.
	SingleLinkage
	// CompleteLinkage uses the least similar pair of members.
	CompleteLinkage
)

func (l Linkage) String() string {
	switch l {
	case MeanLinkage:
		return "mean"
	case SingleLinkage:
		return "single"
	case CompleteLinkage:
		return "complete"
	default:
		return fmt.Sprintf("Linkage(%d)", int(l))
	}
}

// ParseLinkage maps "mean" (or "average"), "single" and "complete" to a
// Linkage. Matching is case-insensitive.
func ParseLinkage(s string) (Linkage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "average":
		return MeanLinkage, nil
	case "single":
		return SingleLinkage, nil
	case "complete":
		return CompleteLinkage, nil
	default:
		return 0, fmt.Errorf("cbc: unknown linkage %q", s)
	}
}

func (l Linkage) valid() bool {
	return l >= MeanLinkage && l <= CompleteLinkage
}

// BuildDendrogram agglomerates rows under cosine similarity until a single
// cluster remains. Returns n-1 rows in scipy format: [left, right, similarity,
// mergedSize], where merged cluster IDs start at n. Similarities are
// non-increasing from one row to the next for all supported linkages.
//
// At each step the most similar pair of active clusters is merged; ties go to
// the pair found first scanning slots in ascending order.
func BuildDendrogram(rows []SparseVector, linkage Linkage) [][4]float64 {
	if len(rows) <= 1 {
		return nil
	}
	return agglomerate(ComputePairwiseSimilarities(rows, CosineSimilarity), len(rows), linkage)
}

// agglomerate consumes an n×n similarity matrix and returns the merges.
// NaN similarities rank below every number, so a matrix with no comparable
// pair still merges in slot order.
func agglomerate(sims []float64, n int, linkage Linkage) [][4]float64 {
	// sims is indexed by slot. A merged cluster reuses the lower slot of the
	// pair; ids[slot] tracks the dendrogram ID currently living in it.
	ids := make([]int, n)
	sizes := make([]int, n)
	active := make([]bool, n)
	for i := range ids {
		ids[i] = i
		sizes[i] = 1
		active[i] = true
	}

	result := make([][4]float64, 0, n-1)

	for step := 0; step < n-1; step++ {
		best := math.Inf(-1)
		bi, bj := -1, -1
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				s := sims[i*n+j]
				if math.IsNaN(s) {
					s = math.Inf(-1)
				}
				if bi < 0 || s > best {
					best = s
					bi, bj = i, j
				}
			}
		}

		newSize := sizes[bi] + sizes[bj]
		result = append(result, [4]float64{float64(ids[bi]), float64(ids[bj]), best, float64(newSize)})

		// Lance-Williams update of the merged cluster's row.
		ni, nj := float64(sizes[bi]), float64(sizes[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			sik, sjk := sims[bi*n+k], sims[bj*n+k]
			var s float64
			switch linkage {
			case SingleLinkage:
				s = max(sik, sjk)
			case CompleteLinkage:
				s = min(sik, sjk)
			default:
				s = (ni*sik + nj*sjk) / (ni + nj)
			}
			sims[bi*n+k] = s
			sims[k*n+bi] = s
		}

		active[bj] = false
		sizes[bi] = newSize
		ids[bi] = n + step
	}

	return result
}

// CutDendrogram replays dendrogram merges whose similarity is at least
// threshold and returns a cluster label for each of the n rows. Labels are
// numbered 0, 1, ... in order of first appearance by row index. Replay stops
// at the first merge below threshold, which relies on the non-increasing
// similarities BuildDendrogram produces.
func CutDendrogram(dendrogram [][4]float64, n int, threshold float64) []int {
	uf := NewUnionFind(n)
	for _, row := range dendrogram {
		if row[2] < threshold {
			break
		}
		uf.Merge(int(row[0]), int(row[1]))
	}

	labels := make([]int, n)
	seen := make(map[int]int, n)
	for i := 0; i < n; i++ {
		root := uf.Find(i)
		label, ok := seen[root]
		if !ok {
			label = len(seen)
			seen[root] = label
		}
		labels[i] = label
	}
	return labels
}

// ClusterRows runs hierarchical agglomerative clustering with cosine
// similarity over rows and cuts the hierarchy at threshold: clusters keep
// merging while the linkage similarity between the closest pair is at least
// threshold. Returns one label per row.
func ClusterRows(rows []SparseVector, threshold float64, linkage Linkage) ([]int, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	if math.IsNaN(threshold) {
		return nil, fmt.Errorf("cbc: HAC threshold is NaN")
	}
	if !linkage.valid() {
		return nil, fmt.Errorf("cbc: invalid linkage %v", linkage)
	}
	return CutDendrogram(BuildDendrogram(rows, linkage), len(rows), threshold), nil
}
