package search

import (
	"context"
	"sync"

	"fzncore/internal/parallel"
	"fzncore/pkg/fzn"
)

// RunParallel is the --workers > 1 path: it shards the most-constrained
// variable's domain across a fzncore/internal/parallel.WorkerPool and runs
// one independent depth-first search per shard, the same reference
// algorithm Run uses. For a satisfy model the first shard to report a
// solution wins and the rest are cancelled; for an optimize model every
// shard runs to completion (or timeout) and the best objective across all
// shards is kept. workers <= 1 just delegates to Run.
func RunParallel(ctx context.Context, m *fzn.Model, workers int) Result {
	if workers <= 1 {
		return Run(ctx, m)
	}

	vars := m.ActiveVariables()
	for _, v := range vars {
		if v.Domain.IsEmpty() {
			return Result{Complete: true}
		}
		if v.Domain.Count() > maxEnumerable || v.Domain.Count() < 0 {
			return Result{TimedOut: true}
		}
	}
	if len(vars) == 0 {
		return Run(ctx, m)
	}

	order := orderVariables(m, vars)
	root := order[0]
	shards := shardDomain(enumerate(root.Domain), workers)

	shardCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := parallel.NewWorkerPool(workers)
	defer pool.Shutdown()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		combined Result
	)

	for _, shard := range shards {
		if len(shard) == 0 {
			continue
		}
		shard := shard
		wg.Add(1)
		task := func() {
			defer wg.Done()
			d := &driver{
				ctx:     shardCtx,
				m:       m,
				order:   order,
				current: make(map[*fzn.Variable]int64, len(order)),
				restrict: map[*fzn.Variable][]int64{
					root: shard,
				},
			}
			d.walk(0)

			mu.Lock()
			defer mu.Unlock()
			mergeResult(&combined, d, m)
			if combined.Feasible && m.Objective == nil {
				cancel()
			}
		}
		if err := pool.Submit(shardCtx, task); err != nil {
			wg.Done()
		}
	}
	wg.Wait()

	if combined.Feasible && m.Objective == nil && ctx.Err() == nil {
		// The other shards stopped because the winning shard cancelled
		// them, not because ctx ended.
		combined.TimedOut = false
	}
	if combined.Assignment == nil && ctx.Err() != nil {
		combined.TimedOut = true
	}
	combined.Complete = !combined.TimedOut
	return combined
}

// mergeResult folds one shard's finished driver into the running combined
// result, keeping the better of two feasible assignments for an
// optimization model and the first for a satisfaction model.
func mergeResult(combined *Result, d *driver, m *fzn.Model) {
	if d.timedOut {
		combined.TimedOut = true
	}
	if d.best == nil {
		return
	}
	if m.Objective == nil {
		if !combined.Feasible {
			combined.Assignment = d.best
			combined.Feasible = true
		}
		return
	}
	obj := d.best[m.Objective]
	if !combined.Feasible || better(obj, combined.Assignment[m.Objective], m.Maximize) {
		combined.Assignment = d.best
		combined.Feasible = true
	}
}

// shardDomain splits values into up to n contiguous, roughly even slices.
func shardDomain(values []int64, n int) [][]int64 {
	if n < 1 {
		n = 1
	}
	if n > len(values) {
		n = len(values)
	}
	if n == 0 {
		return nil
	}
	out := make([][]int64, n)
	base, rem := len(values)/n, len(values)%n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		out[i] = values[start : start+size]
		start += size
	}
	return out
}
