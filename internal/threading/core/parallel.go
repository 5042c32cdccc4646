package core

import (
	"context"
	"runtime"
	"sync"

	"autotile/internal/mathutil"
)

// ParallelMap applies fn to every item on short-lived goroutines and returns
// the results in input order.
func ParallelMap[T any, R any](items []T, fn func(T) R) []R {
	return ParallelMapWithContext(context.Background(), items, fn)
}

// ParallelMapWithContext is ParallelMap with cancellation between items.
// Results for items skipped after cancellation keep their zero value.
func ParallelMapWithContext[T any, R any](ctx context.Context, items []T, fn func(T) R) []R {
	if len(items) == 0 {
		return nil
	}

	results := make([]R, len(items))
	var wg sync.WaitGroup

	for _, span := range mathutil.SplitRange(len(items), runtime.NumCPU()) {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for j := start; j < end; j++ {
				select {
				case <-ctx.Done():
					return
				default:
					results[j] = fn(items[j])
				}
			}
		}(span[0], span[1])
	}

	wg.Wait()
	return results
}
