package arango

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler interprets one raw server response, returning the operation's
// JSON payload or a failure. Handlers are pure: they read the response and
// nothing else, so the same handler can run at call time (immediate), at
// poll time (async) or at commit time (batch).
type Handler func(res *Response) (json.RawMessage, error)

// JobStatus is the lifecycle state of a deferred operation.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// Execution decides how and when a request actually reaches the server.
// Exactly one of the payload and the job is set on success:
//
//   - Connection (immediate): payload from the handler, nil job.
//   - AsyncExecution: nil payload, an *AsyncJob handle (or neither when
//     results are discarded).
//   - BatchExecution: nil payload, a *BatchJob that resolves on Commit.
//
// API surface objects hold an Execution and only ever build request/handler
// pairs; swapping the Execution swaps the execution mode without touching
// the calling code.
type Execution interface {
	Submit(ctx context.Context, req *Request, handle Handler) (json.RawMessage, Job, error)
}

// Job tracks the outcome of one deferred operation.
type Job interface {
	// Status reports the job's lifecycle state.
	Status(ctx context.Context) (JobStatus, error)

	// Result returns the handler's payload once the job is done. A pending
	// job returns ErrJobNotDone; a failed job returns its captured failure.
	Result(ctx context.Context) (json.RawMessage, error)
}

// JobResult retrieves a job's payload and decodes it into T.
func JobResult[T any](ctx context.Context, job Job) (T, error) {
	var out T
	raw, err := job.Result(ctx)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode job result: %w", err)
	}
	return out, nil
}
