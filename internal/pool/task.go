// ============================================================================
// Task — a node in the dependency graph
// ============================================================================
//
// Package: internal/pool
// File: task.go
//
// A Task wraps a nullary, no-result work item together with the bookkeeping
// needed to run it only after every task it depends on has completed. It
// moves through five states, in order, with no back-transitions:
//
//	NEW -> DISPATCHED -> DEPENDENCIES_COMPLETED -> RUNNING -> COMPLETED
//
// Configuration (SetWork, AddDependency, AttachMetadata) is only valid while
// a Task is NEW. Everything from setPool onward is driven by the owning
// ThreadPool and by the Tasks this one depends on; it is not part of the
// public API a caller is meant to touch directly, which is why those methods
// are unexported even though Task and ThreadPool live in the same package —
// mirroring the `friend class ThreadPoolInterface` relationship in the
// original C++ implementation this design is translated from
// (original_source/googleThreadPool/include/task.h).
//
// Lock discipline: a Task never holds its own mutex while calling into
// another Task or into the pool. AddDependency releases its lock before
// calling addDependent on the dependency (two-phase locking, to avoid
// holding two Task mutexes at once). execute releases its lock before
// invoking the work item and again before notifying successors.
//
// ============================================================================

package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/ChuLiYu/depgraph-pool/pkg/types"
)

// Task is a unit of deferred work plus its dependency bookkeeping. The zero
// value is not usable; construct with NewTask.
type Task struct {
	id uuid.UUID

	mu         sync.Mutex
	work       func()
	state      types.State
	pending    uint
	successors map[*Task]struct{}
	pool       *ThreadPool
	metadata   *types.Metadata
	readyAt    time.Time
	failed     bool

	logger *slog.Logger
}

// TaskOption configures optional, non-scheduling-affecting aspects of a
// Task at construction time.
type TaskOption func(*Task)

// WithLogger overrides the Task's structured logger. Tests use this to
// silence routine Debug output.
func WithLogger(logger *slog.Logger) TaskOption {
	return func(t *Task) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTask creates a Task in state NEW. A Task without a work item is a pure
// synchronization node: its successors still become eligible once it
// completes.
func NewTask(opts ...TaskOption) *Task {
	t := &Task{
		id:         uuid.New(),
		state:      types.StateNew,
		successors: make(map[*Task]struct{}),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the Task's generated trace identifier. It is purely
// observational (log correlation, metrics-free debugging) and carries no
// scheduling meaning — a Task with no ID collisions is not a scheduling
// guarantee, just a UUID's usual odds.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// SetWork records the callable this Task will run. Fails (fatally — see
// errors.go) unless the Task is still NEW.
func (t *Task) SetWork(work func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != types.StateNew {
		fatalf(fmt.Errorf("%w: SetWork requires NEW, got %s", ErrInvalidState, t.state))
	}
	t.work = work
}

// AttachMetadata records an informational label and integer tag, along with
// the time of attachment. Valid any time before the Task starts running;
// unlike SetWork and AddDependency this is not restricted to NEW, since it
// is purely descriptive and has no bearing on the state machine.
func (t *Task) AttachMetadata(label string, tag int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == types.StateRunning || t.state == types.StateCompleted {
		fatalf(fmt.Errorf("%w: AttachMetadata requires not yet executing, got %s", ErrInvalidState, t.state))
	}
	t.metadata = &types.Metadata{Label: label, Tag: tag, SubmitTime: time.Now()}
}

// GetState returns the Task's current state. Safe to call concurrently with
// any other operation.
func (t *Task) GetState() types.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// AddDependency resolves dep and, if it is still alive, registers this Task
// as one of its dependents. An expired weak reference (the dependency was
// never scheduled, or has already been garbage collected after completing)
// is treated as already satisfied: no pending count is added.
//
// Two-phase locking: this Task's lock is held only long enough to bump
// pending; it is released before calling addDependent on the dependency, so
// that at most one Task mutex is ever held at a time.
func (t *Task) AddDependency(dep weak.Pointer[Task]) {
	dependency := dep.Value()

	t.mu.Lock()
	if t.state != types.StateNew {
		t.mu.Unlock()
		fatalf(fmt.Errorf("%w: AddDependency requires NEW, got %s", ErrInvalidState, t.state))
	}
	if dependency != nil {
		t.pending++
	}
	t.mu.Unlock()

	if dependency != nil {
		dependency.addDependent(t)
	}
}

// addDependent registers s as a task that depends on t. If t has already
// completed, s is notified inline instead of being added to the successor
// set — this closes the race between a caller resolving a weak dependency
// and the dependency completing before addDependent runs.
func (t *Task) addDependent(s *Task) {
	t.mu.Lock()
	if t.state == types.StateCompleted {
		t.mu.Unlock()
		s.onDependencyCompleted()
		return
	}
	if _, exists := t.successors[s]; exists {
		t.mu.Unlock()
		fatalf(fmt.Errorf("%w", ErrDuplicateDependent))
	}
	t.successors[s] = struct{}{}
	t.mu.Unlock()
}

// setPool is called exactly once, by ThreadPool.Schedule, to transfer
// ownership of this Task into the graph. It computes the Task's next state
// under the lock, then — released from the lock — notifies the pool if that
// next state is already DEPENDENCIES_COMPLETED (pending was already zero).
// Releasing the lock before the outward call avoids the only sanctioned
// re-entrant call chain in this design (setPool -> notifyDependenciesCompleted).
func (t *Task) setPool(p *ThreadPool) {
	t.mu.Lock()
	if t.state != types.StateNew {
		t.mu.Unlock()
		fatalf(fmt.Errorf("%w: setPool requires NEW, got %s", ErrInvalidState, t.state))
	}
	t.pool = p
	t.state = types.StateDispatched
	ready := t.pending == 0
	if ready {
		t.state = types.StateDependenciesCompleted
	}
	t.mu.Unlock()

	t.debugLog("scheduled", "ready_immediately", ready)

	if ready {
		p.notifyDependenciesCompleted(t)
	}
}

// onDependencyCompleted decrements the pending count. If it reaches zero
// while the Task is DISPATCHED, the Task becomes DEPENDENCIES_COMPLETED and
// the owning pool is notified, outside the lock for the same reason as
// setPool. A pending count reaching zero while the Task is still NEW (the
// dependency completed before this Task was ever scheduled) is just a
// decrement: there is no pool to notify yet, and setPool will see
// pending == 0 when it eventually runs.
func (t *Task) onDependencyCompleted() {
	t.mu.Lock()
	if t.state != types.StateNew && t.state != types.StateDispatched {
		t.mu.Unlock()
		fatalf(fmt.Errorf("%w: onDependencyCompleted requires NEW or DISPATCHED, got %s", ErrInvalidState, t.state))
	}
	t.pending--
	ready := t.pending == 0 && t.state == types.StateDispatched
	if ready {
		t.state = types.StateDependenciesCompleted
	}
	pool := t.pool
	t.mu.Unlock()

	if ready {
		t.debugLog("ready")
		pool.notifyDependenciesCompleted(t)
	}
}

// execute runs the work item and drives the Task to COMPLETED. Precondition
// is DEPENDENCIES_COMPLETED. A panicking work item is recovered here and
// logged as a contained WorkItemFailure: the Task still reaches COMPLETED
// and successors are still notified, so a failing task never strands its
// transitive dependents.
func (t *Task) execute() {
	t.mu.Lock()
	if t.state != types.StateDependenciesCompleted {
		t.mu.Unlock()
		fatalf(fmt.Errorf("%w: execute requires DEPENDENCIES_COMPLETED, got %s", ErrInvalidState, t.state))
	}
	t.state = types.StateRunning
	work := t.work
	t.mu.Unlock()

	if work != nil {
		t.runWorkItem(work)
	}

	t.mu.Lock()
	t.state = types.StateCompleted
	successors := make([]*Task, 0, len(t.successors))
	for s := range t.successors {
		successors = append(successors, s)
	}
	t.mu.Unlock()

	t.debugLog("completed", "successor_count", len(successors))

	for _, s := range successors {
		s.onDependencyCompleted()
	}
}

// runWorkItem invokes work, recovering a panic into a contained
// WorkItemFailure log line rather than letting it escape to the worker
// loop.
func (t *Task) runWorkItem(work func()) {
	defer func() {
		if r := recover(); r != nil {
			t.mu.Lock()
			t.failed = true
			t.mu.Unlock()
			t.logger.Warn("work item failed",
				slog.String("task_id", t.id.String()),
				slog.String("kind", "WorkItemFailure"),
				slog.Any("recovered", r),
			)
		}
	}()
	work()
}

// hadFailure reports whether this task's work item panicked. Meaningful
// only after execute has run.
func (t *Task) hadFailure() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// markReady stamps the moment the pool moved this task into the ready
// queue, so the worker that eventually picks it up can report how long it
// waited. Called exclusively by ThreadPool.notifyDependenciesCompleted.
func (t *Task) markReady() {
	t.mu.Lock()
	t.readyAt = time.Now()
	t.mu.Unlock()
}

// sinceReady reports how long it has been since markReady was last called.
func (t *Task) sinceReady() time.Duration {
	t.mu.Lock()
	at := t.readyAt
	t.mu.Unlock()
	return time.Since(at)
}

func (t *Task) debugLog(event string, extra ...any) {
	args := []any{slog.String("task_id", t.id.String()), slog.String("event", event)}
	t.mu.Lock()
	meta := t.metadata
	t.mu.Unlock()
	if meta != nil {
		args = append(args, slog.String("label", meta.Label), slog.Int("tag", meta.Tag))
	}
	args = append(args, extra...)
	t.logger.Debug("task", args...)
}
