// Package clone implements the bounded-concurrency repository clone
// orchestrator: a table of clone tasks keyed by URL, progress-reporting
// clones performed via go-git, and directory cleanup.
package clone

import "time"

// StatusTag is the tag of a CloneStatus variant.
type StatusTag int

const (
	Queued StatusTag = iota
	Cloning
	Completed
	Failed
)

func (t StatusTag) String() string {
	switch t {
	case Queued:
		return "queued"
	case Cloning:
		return "cloning"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the tagged-variant CloneStatus of a Task. Progress is only
// meaningful when Tag == Cloning; Message is only meaningful when
// Tag == Failed.
type Status struct {
	Tag      StatusTag
	Progress int
	Message  string
}

// Task is one entry in the Manager's clone table. Task is mutated only by
// the Orchestrator; callers observe it through Snapshot, which returns
// copies.
type Task struct {
	URL     string
	Status  Status
	TempDir string

	updatedAt time.Time
}

// Snapshot returns a value copy of t, safe to retain after the table's lock
// is released.
func (t *Task) Snapshot() Task {
	return Task{
		URL:     t.URL,
		Status:  t.Status,
		TempDir: t.TempDir,
	}
}
