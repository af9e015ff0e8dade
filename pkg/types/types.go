// Package types defines the core domain model shared by the dependency-aware
// task scheduler: the Task state enum and the informational metadata a Task
// may carry.
package types

import "time"

// State is a Task's position in its lifecycle. States progress monotonically
// in the order declared here; there are no back-transitions.
type State int

const (
	// StateNew is the initial state. Work item, dependencies, and metadata
	// may only be configured while a Task is StateNew.
	StateNew State = iota
	// StateDispatched means the Task has been handed to a ThreadPool but
	// still has one or more uncompleted prerequisites.
	StateDispatched
	// StateDependenciesCompleted means every prerequisite has completed and
	// the Task is waiting in the pool's ready queue for a free worker.
	StateDependenciesCompleted
	// StateRunning means a worker is currently executing the Task's work
	// item.
	StateRunning
	// StateCompleted is terminal.
	StateCompleted
)

// String renders the state the way log lines and test failures want to see
// it.
func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateDispatched:
		return "DISPATCHED"
	case StateDependenciesCompleted:
		return "DEPENDENCIES_COMPLETED"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// Metadata is purely informational: a human label, an integer tag, and the
// time it was attached. None of it affects scheduling.
type Metadata struct {
	Label      string
	Tag        int
	SubmitTime time.Time
}
