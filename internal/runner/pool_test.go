package runner_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalnine/simsweep/internal/runner"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestPool(t *testing.T) {
	var count atomic.Int32
	runner.RunPool(context.Background(), 3, 10, nil,
		func(int) { count.Add(1) },
		func(int) { t.Error("unexpected skip") })
	assert.EqualValues(t, 10, count.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	runner.RunPool(context.Background(), 2, 8, nil, func(int) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}, func(int) {})
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(2), peak.Load())
}

func TestPoolAdmitsInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int
	runner.RunPool(context.Background(), 1, 5, nil, func(i int) {
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
	}, func(int) {})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPoolSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran, skipped atomic.Int32
	runner.RunPool(ctx, 1, 5, nil, func(i int) {
		ran.Add(1)
		if i == 1 {
			cancel()
		}
	}, func(int) { skipped.Add(1) })
	assert.EqualValues(t, 2, ran.Load())
	assert.EqualValues(t, 3, skipped.Load())
}

func TestPoolRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(20), 1)
	start := time.Now()
	runner.RunPool(context.Background(), 4, 5, limiter, func(int) {}, func(int) {})
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
