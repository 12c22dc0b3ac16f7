package jobs

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool(2)
	p.Start()
	defer p.Stop()

	var ran atomic.Int32
	for range 5 {
		p.Submit(func(_ context.Context) {
			ran.Add(1)
		})
	}

	require.Eventually(t, func() bool {
		return ran.Load() == 5
	}, time.Second, 10*time.Millisecond)
}

func TestPool_HandleDoneClosesAfterTask(t *testing.T) {
	p := NewPool(1)
	p.Start()
	defer p.Stop()

	handle := p.Submit(func(_ context.Context) {})

	select {
	case <-handle.Done():
	case <-time.After(time.Second):
		t.Fatal("handle was not completed")
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	p.Start()
	defer p.Stop()

	var mu sync.Mutex
	running, peak := 0, 0
	release := make(chan struct{})

	for range 6 {
		p.Submit(func(_ context.Context) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			<-release

			mu.Lock()
			running--
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return peak == 2
	}, time.Second, 10*time.Millisecond)
	close(release)

	mu.Lock()
	assert.Equal(t, 2, peak)
	mu.Unlock()
}

func TestPool_StopReleasesOverflowSubmit(t *testing.T) {
	p := &Pool{
		workerCount: 1,
		pending:     make(chan submission, 1),
		stopCh:      make(chan struct{}),
	}

	// First submit fills the buffer; the second overflows into the
	// fallback goroutine, which must give up once Stop closes stopCh
	// instead of blocking on the full channel forever.
	p.Submit(func(_ context.Context) {})
	baseline := runtime.NumGoroutine()
	p.Submit(func(_ context.Context) {})

	p.Stop()

	// Poll from the test goroutine itself: require.Eventually runs the
	// condition in a spawned goroutine, which would inflate
	// runtime.NumGoroutine past baseline forever.
	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > baseline {
		if time.Now().After(deadline) {
			require.LessOrEqual(t, runtime.NumGoroutine(), baseline)
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Len(t, p.pending, 1)
}

func TestPool_RecoversFromPanickingTask(t *testing.T) {
	p := NewPool(1)
	p.Start()
	defer p.Stop()

	bad := p.Submit(func(_ context.Context) {
		panic("boom")
	})
	select {
	case <-bad.Done():
	case <-time.After(time.Second):
		t.Fatal("panicking task never finished")
	}

	var ran atomic.Bool
	p.Submit(func(_ context.Context) { ran.Store(true) })
	require.Eventually(t, func() bool {
		return ran.Load()
	}, time.Second, 10*time.Millisecond)
}
