package systems

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-assets/engine/containers"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

type JobSystemConfig struct {
	/** @brief The number of worker goroutines. 0 picks one per CPU. */
	WorkerCount int
	/** @brief The initial capacity of the job queue. It grows when full. */
	QueueSize int
}

/**
 * @brief A fixed pool of worker goroutines draining one shared FIFO.
 * Jobs start in submission order; they may complete in any order.
 *
 * Jobs only ever see byte buffers and decoded pixels. Anything that talks to
 * the graphics context goes through the RendererSystem instead.
 */
type JobSystem struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue *containers.RingQueue[func()]

	workerCount int
	stopped     bool
	// queued plus running
	pending atomic.Int64
	wg      sync.WaitGroup
}

func NewJobSystem(config *JobSystemConfig) (*JobSystem, error) {
	workers := config.WorkerCount
	if workers < 0 {
		err := fmt.Errorf("func NewJobSystem - %d workers: %w", workers, core.ErrNoWorkers)
		core.LogError(err.Error())
		return nil, err
	}
	if workers == 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	size := config.QueueSize
	if size <= 0 {
		size = 64
	}

	js := &JobSystem{
		queue:       containers.NewRingQueue[func()](size),
		workerCount: workers,
	}
	js.cond = sync.NewCond(&js.mu)

	for i := 0; i < workers; i++ {
		js.wg.Add(1)
		go js.worker()
	}
	core.LogDebug("job system started with %d workers", workers)
	return js, nil
}

func (js *JobSystem) worker() {
	defer js.wg.Done()
	for {
		js.mu.Lock()
		for js.queue.IsEmpty() && !js.stopped {
			js.cond.Wait()
		}
		if js.stopped {
			js.mu.Unlock()
			return
		}
		job, err := js.queue.Dequeue()
		js.mu.Unlock()
		if err != nil {
			continue
		}

		job()
		js.pending.Add(-1)
	}
}

/**
 * @brief Queues work for execution on one of the workers.
 * @return ErrJobSystemStopped once the system is shut down.
 */
func (js *JobSystem) Execute(work func()) error {
	js.mu.Lock()
	if js.stopped {
		js.mu.Unlock()
		return core.ErrJobSystemStopped
	}
	js.pending.Add(1)
	js.queue.Enqueue(work)
	js.mu.Unlock()

	js.cond.Signal()
	return nil
}

/**
 * @brief Runs work on the pool and returns a future for its result.
 * A panic inside work is delivered through the future as an error.
 * After shutdown the future is already resolved with ErrJobSystemStopped.
 */
func Submit[T any](js *JobSystem, work func() (T, error)) *Future[T] {
	f := newFuture[T]()
	err := js.Execute(func() {
		var value T
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
				core.LogError(err.Error())
			}
			f.resolve(value, err)
		}()
		value, err = work()
	})
	if err != nil {
		var zero T
		f.resolve(zero, err)
	}
	return f
}

// WaitAll blocks until every queued and running job has finished.
func (js *JobSystem) WaitAll() {
	for js.pending.Load() > 0 {
		time.Sleep(time.Millisecond)
	}
}

// PendingCount returns the number of queued and running jobs.
func (js *JobSystem) PendingCount() int {
	return int(js.pending.Load())
}

func (js *JobSystem) WorkerCount() int {
	return js.workerCount
}

/**
 * @brief Shuts the job system down. Running jobs finish; jobs still in the
 * queue are dropped and their futures never resolve.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.stopped {
		js.mu.Unlock()
		return nil
	}
	js.stopped = true
	dropped := js.queue.Clear()
	js.pending.Add(-int64(dropped))
	js.mu.Unlock()

	js.cond.Broadcast()
	js.wg.Wait()
	if dropped > 0 {
		core.LogWarn("job system shut down with %d queued jobs dropped", dropped)
	}
	return nil
}
