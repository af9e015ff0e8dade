// ============================================================================
// Scenarios: the six literal graph shapes the design doc uses to walk
// through the scheduler's behavior
// ============================================================================
//
// Package: main (cmd/taskgraphdemo)
// File: scenarios.go
//
// Each scenario builds a small dependency graph with internal/pool,
// schedules it into a pool, closes the pool, and prints what ran. They are
// the demo-binary analogue of internal/pool/pool_test.go's scenario tests,
// same graphs, human-readable output instead of assertions.
//
// ============================================================================

package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/ChuLiYu/depgraph-pool/internal/metrics"
	"github.com/ChuLiYu/depgraph-pool/internal/pool"
)

type scenario struct {
	name string
	desc string
	run  func(logger *slog.Logger, collector *metrics.Collector, workerCount int)
}

var scenarios = []scenario{
	{"empty-graph", "a single task with no dependencies", func(l *slog.Logger, c *metrics.Collector, _ int) { runEmptyGraph(l, c) }},
	{"linear-chain", "A -> B -> C scheduled out of order", func(l *slog.Logger, c *metrics.Collector, _ int) { runLinearChain(l, c) }},
	{"diamond", "A -> {B, C} -> D", func(l *slog.Logger, c *metrics.Collector, _ int) { runDiamond(l, c) }},
	{"expired-dependency", "a dependency collected before use is already satisfied", func(l *slog.Logger, c *metrics.Collector, _ int) { runExpiredDependency(l, c) }},
	{"throwing-work-item", "a panicking work item does not strand its dependent", func(l *slog.Logger, c *metrics.Collector, _ int) { runThrowingWorkItem(l, c) }},
	{"fan-out", "one root and 100 independent children, on the configured worker count", runFanOut},
}

func runEmptyGraph(logger *slog.Logger, collector *metrics.Collector) {
	done := make(chan struct{})
	a := pool.NewTask(pool.WithLogger(logger))
	a.SetWork(func() {
		fmt.Print("A")
		close(done)
	})

	p := pool.New(2, pool.WithPoolLogger(logger), pool.WithPoolMetrics(collector))
	handle, err := p.Schedule(a)
	if err != nil {
		logger.Error("schedule failed", "err", err)
		return
	}
	<-done
	p.Close()
	fmt.Println()

	a = nil
	runtime.GC()
	if handle.Value() == nil {
		fmt.Println("handle expired after Close, as expected")
	}
}

func runLinearChain(logger *slog.Logger, collector *metrics.Collector) {
	done := make(chan struct{})
	a := pool.NewTask(pool.WithLogger(logger))
	b := pool.NewTask(pool.WithLogger(logger))
	c := pool.NewTask(pool.WithLogger(logger))
	a.SetWork(func() { fmt.Print("A") })
	b.SetWork(func() { fmt.Print("B") })
	c.SetWork(func() {
		fmt.Print("C")
		close(done)
	})

	b.AddDependency(weak.Make(a))
	c.AddDependency(weak.Make(b))

	p := pool.New(2, pool.WithPoolLogger(logger), pool.WithPoolMetrics(collector))
	p.Schedule(c)
	p.Schedule(b)
	p.Schedule(a)
	<-done
	p.Close()
	fmt.Println()
}

func runDiamond(logger *slog.Logger, collector *metrics.Collector) {
	done := make(chan struct{})
	a := pool.NewTask(pool.WithLogger(logger))
	b := pool.NewTask(pool.WithLogger(logger))
	c := pool.NewTask(pool.WithLogger(logger))
	d := pool.NewTask(pool.WithLogger(logger))

	a.SetWork(func() { fmt.Print("A") })
	b.SetWork(func() { time.Sleep(50 * time.Millisecond); fmt.Print("B") })
	c.SetWork(func() { time.Sleep(50 * time.Millisecond); fmt.Print("C") })
	d.SetWork(func() {
		fmt.Print("D")
		close(done)
	})

	b.AddDependency(weak.Make(a))
	c.AddDependency(weak.Make(a))
	d.AddDependency(weak.Make(b))
	d.AddDependency(weak.Make(c))

	p := pool.New(4, pool.WithPoolLogger(logger), pool.WithPoolMetrics(collector))
	for _, task := range []*pool.Task{d, c, b, a} {
		p.Schedule(task)
	}
	<-done
	p.Close()
	fmt.Println()
}

func runExpiredDependency(logger *slog.Logger, collector *metrics.Collector) {
	var expired weak.Pointer[pool.Task]
	func() {
		a := pool.NewTask(pool.WithLogger(logger))
		expired = weak.Make(a)
	}()
	runtime.GC()

	done := make(chan struct{})
	b := pool.NewTask(pool.WithLogger(logger))
	b.SetWork(func() {
		fmt.Print("B")
		close(done)
	})
	b.AddDependency(expired)

	p := pool.New(1, pool.WithPoolLogger(logger), pool.WithPoolMetrics(collector))
	p.Schedule(b)
	<-done
	p.Close()
	fmt.Println(" (ran immediately, dependency had already expired)")
}

func runThrowingWorkItem(logger *slog.Logger, collector *metrics.Collector) {
	done := make(chan struct{})
	a := pool.NewTask(pool.WithLogger(logger))
	b := pool.NewTask(pool.WithLogger(logger))
	a.SetWork(func() { panic("work item blew up") })
	b.SetWork(func() {
		fmt.Print("B")
		close(done)
	})
	b.AddDependency(weak.Make(a))

	p := pool.New(2, pool.WithPoolLogger(logger), pool.WithPoolMetrics(collector))
	p.Schedule(b)
	p.Schedule(a)
	<-done
	p.Close()
	fmt.Println(" (A panicked and was contained, B still ran)")
}

func runFanOut(logger *slog.Logger, collector *metrics.Collector, workerCount int) {
	const childCount = 100
	if workerCount < 1 {
		workerCount = 4
	}
	var completed int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(childCount)

	root := pool.NewTask(pool.WithLogger(logger))
	root.SetWork(func() {})
	rootHandle := weak.Make(root)

	children := make([]*pool.Task, childCount)
	for i := range children {
		child := pool.NewTask(pool.WithLogger(logger))
		child.SetWork(func() {
			mu.Lock()
			completed++
			mu.Unlock()
			wg.Done()
		})
		child.AddDependency(rootHandle)
		children[i] = child
	}

	p := pool.New(workerCount, pool.WithPoolLogger(logger), pool.WithPoolMetrics(collector))
	for _, child := range children {
		p.Schedule(child)
	}
	p.Schedule(root)
	wg.Wait()
	p.Close()

	mu.Lock()
	fmt.Printf("%d/%d children completed using %d workers", completed, childCount, workerCount)
	mu.Unlock()
}
