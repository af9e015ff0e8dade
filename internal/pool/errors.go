package pool

// ============================================================================
// Error taxonomy
// ============================================================================
//
// Five kinds of violation can occur against the Task/ThreadPool graph
// invariants. Four are programming errors and are unrecoverable: the
// correctness of the whole scheduler depends on callers respecting the
// state machine, and a caller that doesn't has already corrupted the graph.
// The original C++ implementation (original_source/googleThreadPool) signals
// these with CHECK/CHECK_EQ, which aborts the process; the idiomatic Go
// translation is panic. The fifth kind, a work item that fails, is a routine
// event and is contained instead: it is recovered at the worker boundary
// and does not prevent the task from reaching COMPLETED.
//
// ============================================================================

import "errors"

var (
	// ErrInvalidState is raised when an operation's state precondition is
	// violated (configuring a Task that is no longer NEW, scheduling a Task
	// twice, executing a Task that is not DEPENDENCIES_COMPLETED).
	ErrInvalidState = errors.New("pool: invalid task state")

	// ErrDuplicateDependent is raised when a Task is added as a dependent of
	// the same predecessor more than once. The successor set is a set, not a
	// multiset.
	ErrDuplicateDependent = errors.New("pool: task already registered as a dependent")

	// ErrMissingFromNotReady is raised when notifyDependenciesCompleted is
	// called for a task identity the pool has no record of in its
	// not-ready index. This can only happen if a Task's internal
	// bookkeeping and the pool's index have diverged.
	ErrMissingFromNotReady = errors.New("pool: task not found in not-ready index")

	// ErrShutdownWithPending is raised by Close when the ready queue or the
	// not-ready index is non-empty. Callers must drain all scheduled work
	// before closing the pool.
	ErrShutdownWithPending = errors.New("pool: shutdown with pending tasks")

	// ErrPoolClosed is returned by Schedule once the pool has begun
	// shutting down.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrAlreadyScheduled is raised (as a panic) by Schedule for a task
	// identity that is still in the not-ready index from an earlier
	// Schedule call. A task that has already left the index is caught by
	// setPool's state check instead, with ErrInvalidState.
	ErrAlreadyScheduled = errors.New("pool: task already scheduled")
)

// fatalf panics with err, matching the CHECK-fails-the-process discipline
// of the original implementation. It exists only to keep panic call sites
// uniform and greppable.
func fatalf(err error) {
	panic(err)
}
