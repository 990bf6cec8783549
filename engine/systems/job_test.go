package systems

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

func newTestJobSystem(t *testing.T, workers int) *JobSystem {
	t.Helper()
	js, err := NewJobSystem(&JobSystemConfig{WorkerCount: workers, QueueSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { js.Shutdown() })
	return js
}

func TestNewJobSystemWorkerCount(t *testing.T) {
	_, err := NewJobSystem(&JobSystemConfig{WorkerCount: -1})
	assert.ErrorIs(t, err, core.ErrNoWorkers)

	js := newTestJobSystem(t, 0)
	assert.Equal(t, max(runtime.NumCPU(), 1), js.WorkerCount())
}

func TestSubmitResolvesEveryFutureOnce(t *testing.T) {
	js := newTestJobSystem(t, 4)

	const n = 200
	futures := make([]*Future[int], n)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := g; i < n; i += 4 {
				futures[i] = Submit(js, func() (int, error) { return i * i, nil })
			}
		}(g)
	}
	wg.Wait()

	for i, f := range futures {
		v, err := f.Get()
		require.NoError(t, err)
		assert.Equal(t, i*i, v)
		// a second read sees the same result
		v2, _ := f.Get()
		assert.Equal(t, v, v2)
	}
	js.WaitAll()
	assert.Zero(t, js.PendingCount())
}

func TestJobsStartInSubmissionOrder(t *testing.T) {
	js := newTestJobSystem(t, 1)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 20; i++ {
		require.NoError(t, js.Execute(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	js.WaitAll()

	require.Len(t, order, 20)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSubmitCarriesErrorsAndPanics(t *testing.T) {
	js := newTestJobSystem(t, 2)
	boom := errors.New("boom")

	_, err := Submit(js, func() (string, error) { return "", boom }).Get()
	assert.ErrorIs(t, err, boom)

	_, err = Submit(js, func() (string, error) { panic("worker exploded") }).Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker exploded")

	// the worker survived the panic
	v, err := Submit(js, func() (string, error) { return "alive", nil }).Get()
	require.NoError(t, err)
	assert.Equal(t, "alive", v)
}

func TestShutdownDropsQueuedWork(t *testing.T) {
	js, err := NewJobSystem(&JobSystemConfig{WorkerCount: 1})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	running := Submit(js, func() (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	<-started

	var ran atomic.Int32
	queued := make([]*Future[int], 3)
	for i := range queued {
		queued[i] = Submit(js, func() (int, error) {
			ran.Add(1)
			return 0, nil
		})
	}
	assert.Equal(t, 4, js.PendingCount())

	done := make(chan struct{})
	go func() {
		js.Shutdown()
		close(done)
	}()
	// the queue is cleared before the running job is waited for
	require.Eventually(t, func() bool { return js.PendingCount() == 1 }, time.Second, time.Millisecond)
	close(release)
	<-done

	v, err := running.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	for _, f := range queued {
		assert.False(t, f.Ready())
	}
	assert.Zero(t, ran.Load())

	_, err = Submit(js, func() (int, error) { return 0, nil }).Get()
	assert.ErrorIs(t, err, core.ErrJobSystemStopped)
	assert.ErrorIs(t, js.Execute(func() {}), core.ErrJobSystemStopped)
	assert.NoError(t, js.Shutdown())
}

func TestFutureWait(t *testing.T) {
	f := newFuture[int]()
	assert.False(t, f.Ready())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	f.resolve(7, nil)
	f.resolve(8, errors.New("ignored"))
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	select {
	case <-f.Done():
	default:
		t.Fatal("done channel not closed")
	}

	r := Resolved("x", nil)
	assert.True(t, r.Ready())
}
