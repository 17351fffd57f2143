package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	asyncHeader   = "x-arango-async"
	asyncIDHeader = "x-arango-async-id"
)

// AsyncExecution routes requests to the server's job queue. Submit returns
// as soon as the server acknowledges the hand-off; the operation itself runs
// out-of-band and its outcome is retrieved later through the AsyncJob.
//
// With returnResult disabled the server is told not to keep the result
// (`x-arango-async: true`) and no job handle is produced.
type AsyncExecution struct {
	conn         *Connection
	returnResult bool
}

// Submit implements Execution with async semantics: one synchronous HTTP
// round trip hands the request to the server queue and the returned
// *AsyncJob tracks the rest. A rejected hand-off fails immediately and
// produces no job.
func (e *AsyncExecution) Submit(ctx context.Context, req *Request, handle Handler) (json.RawMessage, Job, error) {
	mode := "store"
	if !e.returnResult {
		mode = "true"
	}

	res, err := e.conn.Do(ctx, req.WithHeader(asyncHeader, mode))
	if err != nil {
		return nil, nil, err
	}
	if !res.IsSuccess() {
		return nil, nil, fmt.Errorf("async submit: %w", newServerError(res))
	}
	if !e.returnResult {
		return nil, nil, nil
	}

	id := res.Headers.Get(asyncIDHeader)
	if id == "" {
		return nil, nil, fmt.Errorf("async submit: server response is missing the %s header", asyncIDHeader)
	}
	return nil, &AsyncJob{conn: e.conn, id: id, handle: handle}, nil
}

// Collection returns a collection whose operations go through this execution.
func (e *AsyncExecution) Collection(name string) *Collection {
	return &Collection{name: name, exec: e, conn: e.conn}
}

// Graph returns a graph whose operations go through this execution.
func (e *AsyncExecution) Graph(name string) *Graph {
	return &Graph{name: name, exec: e, conn: e.conn}
}

// Query returns a query object whose operations go through this execution.
func (e *AsyncExecution) Query() *Query {
	return &Query{exec: e, conn: e.conn}
}

// AsyncJob is the handle for one server-queued operation. No state is
// cached on the client: every Status and Result call asks the server, so
// reads are always authoritative.
type AsyncJob struct {
	conn   *Connection
	id     string
	handle Handler
}

// ID returns the server-assigned job id.
func (j *AsyncJob) ID() string {
	return j.id
}

// Status probes the server for the job's state without consuming its result.
func (j *AsyncJob) Status(ctx context.Context) (JobStatus, error) {
	res, err := j.conn.Do(ctx, &Request{
		Method:   http.MethodGet,
		Endpoint: "/_api/job/" + j.id,
	})
	if err != nil {
		return "", err
	}
	switch {
	case res.StatusCode == http.StatusNoContent:
		return JobPending, nil
	case res.IsSuccess():
		return JobDone, nil
	case res.StatusCode == http.StatusBadRequest:
		return "", fmt.Errorf("job %s status: %w", j.id, ErrJobInvalid)
	case res.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("job %s status: %w", j.id, ErrJobNotFound)
	default:
		return "", fmt.Errorf("job %s status: %w", j.id, newServerError(res))
	}
}

// Result pops the job's result from the server and applies the handler.
// A job that has not finished yet returns ErrJobNotDone.
//
// The server reports "job not found" with the same 404 status code a
// finished operation may legitimately carry (for example a document lookup
// that missed). The two are told apart by sniffing the error body: errorNum
// 404 with message "not found" means the job itself is gone, everything
// else falls through to the handler. This mirrors the server's observed
// behavior; its contract here is not formally specified.
func (j *AsyncJob) Result(ctx context.Context) (json.RawMessage, error) {
	res, err := j.conn.Do(ctx, &Request{
		Method:   http.MethodPut,
		Endpoint: "/_api/job/" + j.id,
	})
	if err != nil {
		return nil, err
	}
	switch {
	case res.StatusCode == http.StatusNoContent:
		return nil, fmt.Errorf("job %s: %w", j.id, ErrJobNotDone)
	case res.IsSuccess():
		return j.handle(res)
	case res.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("job %s result: %w", j.id, ErrJobInvalid)
	case res.StatusCode == http.StatusNotFound:
		if body, ok := res.errorBody(); ok &&
			body.ErrorNum == http.StatusNotFound && body.ErrorMessage == "not found" {
			return nil, fmt.Errorf("job %s result: %w", j.id, ErrJobNotFound)
		}
		return j.handle(res)
	default:
		return nil, fmt.Errorf("job %s result: %w", j.id, newServerError(res))
	}
}

// Cancel asks the server to cancel the job. Only a job still pending in the
// queue can be cancelled. When the job is already gone, ignoreMissing turns
// the failure into a false return.
func (j *AsyncJob) Cancel(ctx context.Context, ignoreMissing bool) (bool, error) {
	res, err := j.conn.Do(ctx, &Request{
		Method:   http.MethodPut,
		Endpoint: "/_api/job/" + j.id + "/cancel",
	})
	if err != nil {
		return false, err
	}
	switch {
	case res.IsSuccess():
		return true, nil
	case res.StatusCode == http.StatusBadRequest:
		return false, fmt.Errorf("job %s cancel: %w", j.id, ErrJobInvalid)
	case res.StatusCode == http.StatusNotFound:
		if ignoreMissing {
			return false, nil
		}
		return false, fmt.Errorf("job %s cancel: %w", j.id, ErrJobNotFound)
	default:
		return false, fmt.Errorf("job %s cancel: %w", j.id, newServerError(res))
	}
}

// Delete clears the job's result from the server, if it kept one. The
// ignoreMissing contract matches Cancel.
func (j *AsyncJob) Delete(ctx context.Context, ignoreMissing bool) (bool, error) {
	res, err := j.conn.Do(ctx, &Request{
		Method:   http.MethodDelete,
		Endpoint: "/_api/job/" + j.id,
	})
	if err != nil {
		return false, err
	}
	switch {
	case res.IsSuccess():
		return true, nil
	case res.StatusCode == http.StatusBadRequest:
		return false, fmt.Errorf("job %s delete: %w", j.id, ErrJobInvalid)
	case res.StatusCode == http.StatusNotFound:
		if ignoreMissing {
			return false, nil
		}
		return false, fmt.Errorf("job %s delete: %w", j.id, ErrJobNotFound)
	default:
		return false, fmt.Errorf("job %s delete: %w", j.id, newServerError(res))
	}
}

// rawBodyHandler passes the response body through untouched. It backs job
// handles re-attached by id, where the original handler is unknown.
func rawBodyHandler(res *Response) (json.RawMessage, error) {
	if !res.IsSuccess() {
		return nil, newServerError(res)
	}
	return res.Body, nil
}
