package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/pxharvest/pxharvest/px"
)

// DefaultWorkers bounds batch concurrency when the caller does not.
// Four archives plus the registry tolerate this politely alongside the
// shared rate limiter.
const DefaultWorkers = 5

// RunBatch reconciles every accession with a bounded pool of workers and
// returns one Result per input, in input order.
//
// Failures stay inside their own Result: a panic or error on one accession
// never disturbs its siblings. onResult, when non-nil, is invoked once per
// finished accession in completion order; calls are serialized, so the
// callback needs no locking of its own.
func (r *Reconciler) RunBatch(ctx context.Context, accessions []px.Accession, workers int, onResult func(px.Result)) []px.Result {
	if len(accessions) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(accessions) {
		workers = len(accessions)
	}

	r.logger.Infow("batch started",
		"total", len(accessions),
		"workers", workers)

	jobs := make(chan int)
	results := make([]px.Result, len(accessions))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result := r.reconcileSafely(ctx, accessions[idx])
				mu.Lock()
				results[idx] = result
				if onResult != nil {
					onResult(result)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for idx := range accessions {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Accessions never dispatched (cancelled mid-batch) still get a result.
	for idx := range results {
		if results[idx].Accession == "" {
			errMsg := "batch cancelled"
			if ctx.Err() != nil {
				errMsg = ctx.Err().Error()
			}
			results[idx] = px.Result{
				Accession:  accessions[idx],
				Repository: px.RepositoryUnknown,
				Source:     px.SourceNone,
				Success:    false,
				Err:        errMsg,
			}
		}
	}

	succeeded, failed := Summarize(results)
	r.logger.Infow("batch finished",
		"total", len(results),
		"succeeded", succeeded,
		"failed", failed)

	return results
}

// reconcileSafely converts a panic on one accession into that accession's
// failed Result so the rest of the batch keeps going.
func (r *Reconciler) reconcileSafely(ctx context.Context, acc px.Accession) (result px.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("Panic during reconciliation",
				"panic", rec,
				"accession", acc)
			result = px.Result{
				Accession:  acc,
				Repository: px.RepositoryUnknown,
				Source:     px.SourceNone,
				Success:    false,
				Err:        fmt.Sprintf("panic: %v", rec),
			}
		}
	}()
	return r.Reconcile(ctx, acc)
}

// Summarize tallies a result set into succeeded and failed counts.
func Summarize(results []px.Result) (succeeded, failed int) {
	for _, res := range results {
		if res.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// ByAccession reindexes a result set into its mapping view, keyed by
// accession. With deduplicated input every key holds exactly one result;
// a duplicate accession keeps the last one.
func ByAccession(results []px.Result) map[px.Accession]px.Result {
	m := make(map[px.Accession]px.Result, len(results))
	for _, res := range results {
		m[res.Accession] = res
	}
	return m
}
