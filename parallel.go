package cbc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// chunksPerWorker oversplits the row range so a slow chunk does not leave
// the other workers idle.
const chunksPerWorker = 4

// parallelFor calls fn(ctx, i) for every i in [0, n) and returns once all
// calls have finished. Rows are split into contiguous ranges that run on at
// most numWorkers goroutines. The first error, recovered panic, or context
// cancellation stops the remaining ranges and is returned; callers must
// discard any partial output. Falls back to a plain loop if numWorkers <= 1.
//
// fn must only write to state owned by index i.
func parallelFor(ctx context.Context, n, numWorkers int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	if numWorkers <= 1 || n == 1 {
		return runRange(ctx, 0, n, fn)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	rowsPerChunk := max(1, n/(numWorkers*chunksPerWorker))
	for start := 0; start < n; start += rowsPerChunk {
		end := min(start+rowsPerChunk, n)
		g.Go(func() error {
			return runRange(gctx, start, end, fn)
		})
	}

	return g.Wait()
}

func runRange(ctx context.Context, start, end int, fn func(ctx context.Context, i int) error) error {
	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runUnit(ctx, i, fn); err != nil {
			return err
		}
	}
	return nil
}

func runUnit(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cbc: worker failed on row %d: %v", i, r)
		}
	}()
	return fn(ctx, i)
}
