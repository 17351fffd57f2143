package arango

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// batchBoundary is the fixed multipart boundary for batch requests. The
// server echoes it back in the response, so encoding and decoding share
// the one literal.
const batchBoundary = "XXXsubpartXXX"

// BatchExecution queues requests in memory and sends them all in a single
// multipart HTTP call on Commit. Submit itself never touches the network.
//
// The three queues (requests, handlers, jobs) stay index-aligned: the i-th
// sub-response of the commit is interpreted by handler i and written into
// job i. A BatchExecution is not safe for concurrent use.
type BatchExecution struct {
	conn         *Connection
	returnResult bool
	requests     []*Request
	handlers     []Handler
	jobs         []*BatchJob
}

// Submit implements Execution with batch semantics: the request/handler
// pair is queued, a pending *BatchJob is returned and no I/O happens until
// Commit. Submission order defines the wire order at commit time.
func (e *BatchExecution) Submit(_ context.Context, req *Request, handle Handler) (json.RawMessage, Job, error) {
	e.requests = append(e.requests, req)
	e.handlers = append(e.handlers, handle)

	if !e.returnResult {
		e.jobs = append(e.jobs, nil)
		return nil, nil, nil
	}
	job := &BatchJob{status: JobPending}
	e.jobs = append(e.jobs, job)
	return nil, job, nil
}

// Queued returns the number of operations waiting for Commit.
func (e *BatchExecution) Queued() int {
	return len(e.requests)
}

// Commit sends every queued request as one multipart POST and resolves the
// queued jobs from the multipart response, in submission order.
//
// A failure of the batch call itself is returned and no job is updated.
// The queues are cleared no matter what, so the execution is reusable for
// the next batch; a failed batch is not retried.
func (e *BatchExecution) Commit(ctx context.Context) error {
	if len(e.requests) == 0 {
		return nil
	}
	defer func() {
		e.requests, e.handlers, e.jobs = nil, nil, nil
	}()

	var body bytes.Buffer
	for i, req := range e.requests {
		body.WriteString("--" + batchBoundary + "\r\n")
		body.WriteString("Content-Type: application/x-arango-batchpart\r\n")
		body.WriteString("Content-Id: " + strconv.Itoa(i+1) + "\r\n\r\n")
		body.WriteString(req.Stringify())
		body.WriteString("\r\n")
	}
	body.WriteString("--" + batchBoundary + "--\r\n\r\n")

	res, err := e.conn.Do(ctx, &Request{
		Method:   http.MethodPost,
		Endpoint: "/_api/batch",
		Headers: map[string]string{
			"Content-Type": "multipart/form-data; boundary=" + batchBoundary,
		},
		Body: body.Bytes(),
	})
	if err != nil {
		return fmt.Errorf("batch commit: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("batch commit: %w", newServerError(res))
	}
	if !e.returnResult {
		return nil
	}

	parts := strings.Split(string(res.Body), "--"+batchBoundary)
	if len(parts) < len(e.requests)+2 {
		return fmt.Errorf("batch commit: %d sub-responses for %d requests: %w",
			len(parts)-2, len(e.requests), ErrBadBatchResponse)
	}
	// Sub-responses arrive in submission order; the server preserves the
	// order of the parts it was sent.
	for i, part := range parts[1 : len(e.requests)+1] {
		subRes, err := parseBatchPart(part, e.requests[i], e.conn)
		if err != nil {
			return fmt.Errorf("batch commit: sub-response %d: %w", i+1, err)
		}
		job := e.jobs[i]
		if raw, err := e.handlers[i](subRes); err != nil {
			job.status, job.err = JobError, err
		} else {
			job.status, job.result = JobDone, raw
		}
	}
	return nil
}

// Collection returns a collection whose operations go through this execution.
func (e *BatchExecution) Collection(name string) *Collection {
	return &Collection{name: name, exec: e, conn: e.conn}
}

// Graph returns a graph whose operations go through this execution.
func (e *BatchExecution) Graph(name string) *Graph {
	return &Graph{name: name, exec: e, conn: e.conn}
}

// Query returns a query object whose operations go through this execution.
func (e *BatchExecution) Query() *Query {
	return &Query{exec: e, conn: e.conn}
}

// parseBatchPart reconstructs the raw response embedded in one multipart
// part: part headers, a blank line, then an HTTP status line, response
// headers, another blank line and the body.
func parseBatchPart(part string, req *Request, conn *Connection) (*Response, error) {
	part = strings.Trim(part, "\r\n ")

	var statusLine string
	for _, line := range strings.Split(part, "\r\n") {
		if strings.HasPrefix(line, "HTTP/") {
			statusLine = line
			break
		}
	}
	if statusLine == "" {
		return nil, fmt.Errorf("no status line: %w", ErrBadBatchResponse)
	}
	fields := strings.SplitN(statusLine, " ", 3)
	if len(fields) < 2 {
		return nil, fmt.Errorf("unparsable status line %q: %w", statusLine, ErrBadBatchResponse)
	}
	statusCode, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("unparsable status code %q: %w", fields[1], ErrBadBatchResponse)
	}
	statusText := ""
	if len(fields) == 3 {
		statusText = fields[2]
	}

	body := ""
	if idx := strings.LastIndex(part, "\r\n\r\n"); idx >= 0 {
		body = strings.TrimSpace(part[idx+4:])
	}

	return &Response{
		Method:     req.Method,
		URL:        conn.BaseURL() + req.Endpoint,
		StatusCode: statusCode,
		StatusText: statusText,
		Headers:    http.Header{},
		Body:       []byte(body),
	}, nil
}

// BatchJob tracks one queued batch operation. Unlike AsyncJob its state
// lives entirely on the client: Commit writes the outcome exactly once and
// the status never changes again.
type BatchJob struct {
	status JobStatus
	result json.RawMessage
	err    error
}

// Status returns the job's state. It is JobPending until the batch holding
// this job commits.
func (j *BatchJob) Status(_ context.Context) (JobStatus, error) {
	return j.status, nil
}

// Result returns the payload captured at commit time. A pending job returns
// ErrJobNotDone and a failed one returns its captured failure.
func (j *BatchJob) Result(_ context.Context) (json.RawMessage, error) {
	switch j.status {
	case JobDone:
		return j.result, nil
	case JobError:
		return nil, j.err
	default:
		return nil, ErrJobNotDone
	}
}

// Err returns the failure captured at commit time, if any.
func (j *BatchJob) Err() error {
	return j.err
}
