package runner

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RunPool calls run for every index in [0, n) with at most maxWorkers calls in
// flight, admitting indices in order. Once ctx is done no further index is
// admitted and skip is called for each remaining one. RunPool returns after
// every admitted call has returned.
func RunPool(ctx context.Context, maxWorkers, n int, limiter *rate.Limiter, run, skip func(i int)) {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxWorkers)

	i := 0
	for ; i < n; i++ {
		if !admit(ctx, sem, limiter) {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			run(i)
		}(i)
	}
	for ; i < n; i++ {
		skip(i)
	}
	wg.Wait()
}

func admit(ctx context.Context, sem chan struct{}, limiter *rate.Limiter) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			<-sem
			return false
		}
	}
	if ctx.Err() != nil {
		<-sem
		return false
	}
	return true
}
