package jobs

import "context"

// Registry stores job state snapshots keyed by job ID.
//
// Write contract: exactly one goroutine owns writes to a given job ID for
// the job's entire lifetime. The upload boundary performs the creating
// Put; the worker task that the job was dispatched to performs every
// subsequent write. Because of that single-writer contract the registry
// does not arbitrate between writers. It only guarantees that Put
// replaces the whole snapshot atomically (last write wins) and that
// concurrent readers never block.
type Registry interface {
	// Get returns the current snapshot for id, or (nil, nil) when the id
	// is unknown or its entry has expired.
	Get(ctx context.Context, id string) (*Job, error)
	// Put stores job as the complete new snapshot for job.ID.
	Put(ctx context.Context, job *Job) error
	// UpdateProgress rewrites only the progress field, as a
	// read-modify-write of the full snapshot. Unknown ids are a no-op.
	UpdateProgress(ctx context.Context, id string, progress int) error
	// Name identifies the backend in logs and health output.
	Name() string
}
