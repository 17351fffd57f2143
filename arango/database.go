package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// VersionInfo describes the server build.
type VersionInfo struct {
	Server  string `json:"server"`
	Version string `json:"version"`
	License string `json:"license"`
}

// CollectionInfo describes one collection as reported by the server.
type CollectionInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsSystem bool   `json:"isSystem"`
	Status   int    `json:"status"`
	Type     int    `json:"type"`
}

// Collection type constants, as encoded in CollectionInfo.Type.
const (
	CollectionTypeDocument = 2
	CollectionTypeEdge     = 3
)

// CreateCollectionOptions are the options for CreateCollection.
type CreateCollectionOptions struct {
	Edge        bool
	WaitForSync bool
}

// Database is the entry point of the API surface. It holds an Execution and
// a Connection; every method only builds a request/handler pair and hands it
// to the execution, so the same surface works in immediate, async and batch
// mode depending on how the objects were obtained.
type Database struct {
	conn *Connection
	exec Execution
}

// NewDatabase returns a database bound to the connection with immediate
// execution semantics.
func NewDatabase(conn *Connection) *Database {
	return &Database{conn: conn, exec: conn}
}

// Name returns the database name.
func (db *Database) Name() string {
	return db.conn.Database()
}

// Connection returns the underlying connection.
func (db *Database) Connection() *Connection {
	return db.conn
}

// Async returns an execution that routes requests to the server-side job
// queue. With returnResult false the server discards results and no job
// handles are produced.
func (db *Database) Async(returnResult bool) *AsyncExecution {
	return &AsyncExecution{conn: db.conn, returnResult: returnResult}
}

// Batch returns an execution that queues requests in memory until Commit.
func (db *Database) Batch(returnResult bool) *BatchExecution {
	return &BatchExecution{conn: db.conn, returnResult: returnResult}
}

// AsyncJob re-attaches to a known job id, for example one recorded by an
// earlier process. The job's payload is the raw response body, since the
// original handler is gone.
func (db *Database) AsyncJob(id string) *AsyncJob {
	return &AsyncJob{conn: db.conn, id: id, handle: rawBodyHandler}
}

// Collection returns a handle on the named collection.
func (db *Database) Collection(name string) *Collection {
	return &Collection{name: name, exec: db.exec, conn: db.conn}
}

// Graph returns a handle on the named graph.
func (db *Database) Graph(name string) *Graph {
	return &Graph{name: name, exec: db.exec, conn: db.conn}
}

// Query returns the AQL query interface.
func (db *Database) Query() *Query {
	return &Query{exec: db.exec, conn: db.conn}
}

// Version fetches the server version.
func (db *Database) Version(ctx context.Context) (*VersionInfo, Job, error) {
	req := &Request{Method: http.MethodGet, Endpoint: "/_api/version"}
	return decode[*VersionInfo](db.exec.Submit(ctx, req, bodyHandler("get version")))
}

// Collections lists the collections in the database.
func (db *Database) Collections(ctx context.Context) ([]CollectionInfo, Job, error) {
	req := &Request{Method: http.MethodGet, Endpoint: "/_api/collection"}
	return decode[[]CollectionInfo](db.exec.Submit(ctx, req, fieldHandler("list collections", "result")))
}

// CreateCollection creates a collection and returns its description.
func (db *Database) CreateCollection(ctx context.Context, name string, opts *CreateCollectionOptions) (*CollectionInfo, Job, error) {
	data := map[string]any{"name": name}
	if opts != nil {
		if opts.Edge {
			data["type"] = CollectionTypeEdge
		}
		if opts.WaitForSync {
			data["waitForSync"] = true
		}
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal collection options: %w", err)
	}
	req := &Request{Method: http.MethodPost, Endpoint: "/_api/collection", Body: body}
	return decode[*CollectionInfo](db.exec.Submit(ctx, req, bodyHandler("create collection")))
}

// DeleteCollection drops a collection. With ignoreMissing set, a missing
// collection yields false instead of an error.
func (db *Database) DeleteCollection(ctx context.Context, name string, ignoreMissing bool) (bool, Job, error) {
	req := &Request{Method: http.MethodDelete, Endpoint: "/_api/collection/" + name}
	handle := func(res *Response) (json.RawMessage, error) {
		if res.StatusCode == http.StatusNotFound && ignoreMissing {
			return json.RawMessage("false"), nil
		}
		if !res.IsSuccess() {
			return nil, fmt.Errorf("delete collection: %w", newServerError(res))
		}
		return json.RawMessage("true"), nil
	}
	return decode[bool](db.exec.Submit(ctx, req, handle))
}

// Graphs lists the graphs in the database.
func (db *Database) Graphs(ctx context.Context) ([]GraphInfo, Job, error) {
	req := &Request{Method: http.MethodGet, Endpoint: "/_api/gharial"}
	return decode[[]GraphInfo](db.exec.Submit(ctx, req, fieldHandler("list graphs", "graphs")))
}

// CreateGraph creates a graph from the given edge definitions.
func (db *Database) CreateGraph(ctx context.Context, name string, edgeDefinitions []EdgeDefinition) (*GraphInfo, Job, error) {
	data := map[string]any{"name": name}
	if edgeDefinitions != nil {
		data["edgeDefinitions"] = edgeDefinitions
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal graph definition: %w", err)
	}
	req := &Request{Method: http.MethodPost, Endpoint: "/_api/gharial", Body: body}
	return decode[*GraphInfo](db.exec.Submit(ctx, req, fieldHandler("create graph", "graph")))
}

// DeleteGraph drops a graph, following the DeleteCollection contract for
// ignoreMissing.
func (db *Database) DeleteGraph(ctx context.Context, name string, ignoreMissing bool) (bool, Job, error) {
	req := &Request{Method: http.MethodDelete, Endpoint: "/_api/gharial/" + name}
	handle := func(res *Response) (json.RawMessage, error) {
		if res.StatusCode == http.StatusNotFound && ignoreMissing {
			return json.RawMessage("false"), nil
		}
		if !res.IsSuccess() {
			return nil, fmt.Errorf("delete graph: %w", newServerError(res))
		}
		return json.RawMessage("true"), nil
	}
	return decode[bool](db.exec.Submit(ctx, req, handle))
}

// bodyHandler accepts any successful response and passes its body through.
func bodyHandler(op string) Handler {
	return func(res *Response) (json.RawMessage, error) {
		if !res.IsSuccess() {
			return nil, fmt.Errorf("%s: %w", op, newServerError(res))
		}
		return res.Body, nil
	}
}

// fieldHandler accepts a successful response and extracts one top-level
// field of its JSON body.
func fieldHandler(op, field string) Handler {
	return func(res *Response) (json.RawMessage, error) {
		if !res.IsSuccess() {
			return nil, fmt.Errorf("%s: %w", op, newServerError(res))
		}
		var body map[string]json.RawMessage
		if err := res.DecodeBody(&body); err != nil {
			return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
		return body[field], nil
	}
}

// decode adapts a Submit result into a typed one: deferred submissions pass
// the job through, immediate ones unmarshal the payload into T.
func decode[T any](raw json.RawMessage, job Job, err error) (T, Job, error) {
	var out T
	if err != nil || job != nil {
		return out, job, err
	}
	if len(raw) == 0 {
		return out, nil, nil
	}
	if uerr := json.Unmarshal(raw, &out); uerr != nil {
		return out, nil, fmt.Errorf("failed to decode response: %w", uerr)
	}
	return out, nil, nil
}
