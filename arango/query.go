package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// QueryOptions tune the execution of an AQL query.
type QueryOptions struct {
	// Count asks the server for the total result count up front.
	Count bool
	// BatchSize caps the number of rows per server round trip.
	BatchSize int
	// TTL is the server-side cursor's time to live in seconds.
	TTL int
	// BindVars are the query's bind parameters.
	BindVars map[string]any
	// FullCount includes the count before the last LIMIT is applied.
	FullCount *bool
}

// ExplainOptions tune Query.Explain.
type ExplainOptions struct {
	AllPlans       bool
	MaxPlans       int
	OptimizerRules []string
}

// ValidateInfo is the outcome of parsing a query without running it.
type ValidateInfo struct {
	Parsed      bool     `json:"parsed"`
	Collections []string `json:"collections"`
	BindVars    []string `json:"bindVars"`
}

// Query runs AQL against the database through the bound execution.
type Query struct {
	exec Execution
	conn *Connection
}

// Execute runs the query and returns a cursor over its results. In deferred
// modes the cursor is materialized later from the job via CursorFromJob.
func (q *Query) Execute(ctx context.Context, query string, opts *QueryOptions) (*Cursor, Job, error) {
	data := map[string]any{"query": query, "count": false}
	if opts != nil {
		data["count"] = opts.Count
		if opts.BatchSize > 0 {
			data["batchSize"] = opts.BatchSize
		}
		if opts.TTL > 0 {
			data["ttl"] = opts.TTL
		}
		if opts.BindVars != nil {
			data["bindVars"] = opts.BindVars
		}
		if opts.FullCount != nil {
			data["options"] = map[string]any{"fullCount": *opts.FullCount}
		}
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal query: %w", err)
	}
	req := &Request{Method: http.MethodPost, Endpoint: "/_api/cursor", Body: body}

	raw, job, err := q.exec.Submit(ctx, req, bodyHandler("execute query"))
	if err != nil || job != nil {
		return nil, job, err
	}
	cursor, err := newCursor(q.conn, raw)
	return cursor, nil, err
}

// CursorFromJob materializes the cursor a deferred Execute (or
// Collection.All) produced. The cursor pages through the immediate
// connection regardless of the execution the query went through.
func (q *Query) CursorFromJob(ctx context.Context, job Job) (*Cursor, error) {
	raw, err := job.Result(ctx)
	if err != nil {
		return nil, err
	}
	return newCursor(q.conn, raw)
}

// Explain inspects the query without running it and returns its execution
// plan, or all candidate plans with AllPlans set. The plan shape varies
// with the query, so it stays raw JSON.
func (q *Query) Explain(ctx context.Context, query string, opts *ExplainOptions) (json.RawMessage, Job, error) {
	options := map[string]any{"allPlans": false}
	field := "plan"
	if opts != nil {
		options["allPlans"] = opts.AllPlans
		if opts.AllPlans {
			field = "plans"
		}
		if opts.MaxPlans > 0 {
			options["maxNumberOfPlans"] = opts.MaxPlans
		}
		if opts.OptimizerRules != nil {
			options["optimizer"] = map[string]any{"rules": opts.OptimizerRules}
		}
	}
	body, err := json.Marshal(map[string]any{"query": query, "options": options})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal query: %w", err)
	}
	req := &Request{Method: http.MethodPost, Endpoint: "/_api/explain", Body: body}
	raw, job, err := q.exec.Submit(ctx, req, fieldHandler("explain query", field))
	return raw, job, err
}

// Validate parses the query without running it.
func (q *Query) Validate(ctx context.Context, query string) (*ValidateInfo, Job, error) {
	body, err := json.Marshal(map[string]any{"query": query})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal query: %w", err)
	}
	req := &Request{Method: http.MethodPost, Endpoint: "/_api/query", Body: body}
	return decode[*ValidateInfo](q.exec.Submit(ctx, req, bodyHandler("validate query")))
}
