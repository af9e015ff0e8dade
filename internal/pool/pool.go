// ============================================================================
// ThreadPool — bounded worker set executing a dependency graph
// ============================================================================
//
// Package: internal/pool
// File: pool.go
//
// Architecture:
//
//	┌──────────┐   Schedule()   ┌──────────────────────────────┐
//	│  caller  │ ─────────────> │            ThreadPool        │
//	└──────────┘                │  notReady: map[*Task]*Task   │
//	                            │  ready:    FIFO []*Task       │
//	                            │  worker 1 ─┐                  │
//	                            │  worker 2 ─┼─ pop ready, run  │
//	                            │  worker N ─┘                  │
//	                            └──────────────────────────────┘
//
// Unlike the teacher's channel-based worker pool (internal/worker in the
// original repository — the explicitly out-of-scope "first design"), this
// pool is a single shared mutex + condition variable guarding two
// containers, translated directly from the cond-var predicate loop in
// original_source/googleThreadPool/back/thread_pool.cpp:
//
//	mutex_.Await(absl::Condition(&predicate))  ->  for !ready && running { cond.Wait() }
//
// A task enters the graph through Schedule, which hands strong ownership to
// the pool's not-ready index; notifyDependenciesCompleted (invoked by a Task
// whose pending count just reached zero) moves it into the ready queue and
// wakes a worker. Workers never steal from each other — there is exactly one
// shared ready queue, which gives simple FIFO fairness at the cost of
// avoiding per-worker affinity.
//
// ============================================================================

package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
	"weak"

	"github.com/ChuLiYu/depgraph-pool/internal/metrics"
)

// ThreadPool owns a fixed set of worker goroutines and the dependency graph
// of scheduled tasks.
type ThreadPool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	ready    []*Task
	notReady map[*Task]*Task
	running  bool

	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a ThreadPool at construction time.
type Option func(*ThreadPool)

// WithPoolLogger overrides the pool's structured logger.
func WithPoolLogger(logger *slog.Logger) Option {
	return func(p *ThreadPool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPoolMetrics attaches a metrics.Collector the pool will report queue
// depths, worker utilization, and task timing to. Optional: a nil collector
// (the default) disables instrumentation entirely.
func WithPoolMetrics(collector *metrics.Collector) Option {
	return func(p *ThreadPool) {
		p.metrics = collector
	}
}

// New constructs a ThreadPool with numWorkers worker goroutines already
// running. numWorkers must be at least 1.
func New(numWorkers int, opts ...Option) *ThreadPool {
	if numWorkers < 1 {
		fatalf(fmt.Errorf("%w: numWorkers must be >= 1, got %d", ErrInvalidState, numWorkers))
	}

	p := &ThreadPool{
		notReady: make(map[*Task]*Task),
		running:  true,
		logger:   slog.Default(),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	return p
}

// Schedule transfers ownership of task to the pool and enters it into the
// graph. task must not have been scheduled before — a second Schedule call
// on the same task identity is a programming error (fatal, matching the
// original's `CHECK(insert_result.second) << "Schedule called twice"`).
//
// The returned weak.Pointer observably expires once task has completed and
// every strong reference the pool held has been released — it is the
// caller's only signal of completion, since work items return nothing.
func (p *ThreadPool) Schedule(task *Task) (weak.Pointer[Task], error) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return weak.Pointer[Task]{}, ErrPoolClosed
	}
	if _, exists := p.notReady[task]; exists {
		p.mu.Unlock()
		fatalf(fmt.Errorf("%w", ErrAlreadyScheduled))
	}
	p.notReady[task] = task
	p.recordDepthsLocked()
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.IncScheduled()
	}

	handle := weak.Make(task)
	task.setPool(p)
	return handle, nil
}

// notifyDependenciesCompleted is called by a Task, outside its own lock,
// the moment its pending count reaches zero. It moves the task's strong
// handle from the not-ready index to the back of the ready queue and wakes
// a single waiting worker — one waiter is sufficient, since exactly one
// task became ready.
func (p *ThreadPool) notifyDependenciesCompleted(task *Task) {
	p.mu.Lock()
	if _, exists := p.notReady[task]; !exists {
		p.mu.Unlock()
		fatalf(fmt.Errorf("%w", ErrMissingFromNotReady))
	}
	delete(p.notReady, task)
	p.ready = append(p.ready, task)
	task.markReady()
	p.recordDepthsLocked()
	p.mu.Unlock()

	p.cond.Signal()
}

// workerLoop is the body every worker goroutine runs until the pool is
// closed and the ready queue has been drained.
func (p *ThreadPool) workerLoop(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.ready) == 0 && p.running {
			p.cond.Wait()
		}
		if len(p.ready) == 0 {
			// Not running and nothing left to do.
			p.mu.Unlock()
			return
		}
		task := p.ready[0]
		p.ready = p.ready[1:]
		p.recordDepthsLocked()
		p.mu.Unlock()

		p.runOne(task)
	}
}

// runOne executes a single task popped from the ready queue, instrumenting
// wait and execution time.
func (p *ThreadPool) runOne(task *Task) {
	waited := task.sinceReady()

	if p.metrics != nil {
		p.metrics.IncWorkersBusy()
		p.metrics.ObserveReadyWait(waited.Seconds())
	}

	start := time.Now()
	task.execute()
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.ObserveExecution(elapsed.Seconds())
		p.metrics.DecWorkersBusy()
		p.metrics.IncCompleted()
		if task.hadFailure() {
			p.metrics.IncFailed()
		}
	}
}

// recordDepthsLocked reports the current queue sizes to the metrics
// collector. Callers must hold p.mu.
func (p *ThreadPool) recordDepthsLocked() {
	if p.metrics == nil {
		return
	}
	p.metrics.SetReadyDepth(len(p.ready))
	p.metrics.SetNotReadyCount(len(p.notReady))
}

// Close stops accepting work and waits for every worker to finish the task
// it is currently running, then returns. It panics if called while the
// ready queue or not-ready index is non-empty, or if the pool is already
// closed — both are the caller's responsibility to avoid by draining all
// scheduled work first.
func (p *ThreadPool) Close() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		fatalf(fmt.Errorf("%w: pool already closed", ErrInvalidState))
	}

	readyLen, notReadyLen := len(p.ready), len(p.notReady)
	p.logger.Debug("pool closing", slog.Int("ready", readyLen), slog.Int("not_ready", notReadyLen))
	if readyLen != 0 || notReadyLen != 0 {
		p.mu.Unlock()
		fatalf(fmt.Errorf("%w: ready=%d not_ready=%d", ErrShutdownWithPending, readyLen, notReadyLen))
	}

	p.running = false
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}
