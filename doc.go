// Package cbc implements Clustering By Committee (CBC), a bootstrap
// clustering method for large sets of sparse, high-dimensional vectors such as
// term feature vectors.
//
// CBC does not need the number of clusters up front. It first looks for small,
// very cohesive "committees" inside each row's nearest-neighbor list, keeps
// only the committees that are clearly distinct from each other, and repeats
// on the rows no committee covers yet. Every row is then assigned to its
// closest committee (hard) or to a set of mutually distinct committees (soft).
//
// Basic usage:
//
//	m, err := cbc.NewSparseMatrix(columns, rows)
//	cfg := cbc.DefaultConfig()
//	cfg.HardAssignment = true
//	result, err := cbc.Cluster(ctx, m, cfg)
//	// result.Assignments[i].Committees lists the committees of row i
//	// result.Committees[j].Centroid is the centroid of committee j
//
// # Pipeline
//
// Cluster runs four phases, which are also exported for callers that want to
// inspect or reuse intermediate results:
//
//	idx := cbc.BuildFeatureIndex(m)                         // feature → rows
//	nbrs, err := cbc.BuildNeighborLists(ctx, m, idx, cfg)   // top-k neighbors per row
//	disc, err := cbc.DiscoverCommittees(ctx, m, nbrs, cfg)  // recursive committee search
//	asg, err := cbc.AssignSoft(ctx, m, disc.Committees, cfg)
//
// The neighbor, candidate and assignment phases fan out over Config.Workers
// goroutines. Results are written per row, so they do not depend on how the
// work is scheduled. The first failure cancels the rest of the run.
package cbc
