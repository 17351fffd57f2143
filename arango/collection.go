package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DocumentMeta is the identifying triple the server returns for every
// document write.
type DocumentMeta struct {
	ID  string `json:"_id"`
	Key string `json:"_key"`
	Rev string `json:"_rev"`
}

// InsertOptions are the options for Collection.Insert.
type InsertOptions struct {
	WaitForSync bool
}

// UpdateOptions are the options for Collection.Update.
type UpdateOptions struct {
	Rev         string
	KeepNull    *bool
	Merge       *bool
	WaitForSync bool
}

// ReplaceOptions are the options for Collection.Replace.
type ReplaceOptions struct {
	Rev         string
	WaitForSync bool
}

// DeleteOptions are the options for Collection.Delete.
type DeleteOptions struct {
	Rev           string
	WaitForSync   bool
	IgnoreMissing bool
}

// AllOptions are the options for Collection.All.
type AllOptions struct {
	Skip  int64
	Limit int64
}

// Collection exposes document operations on one collection. Like every
// surface object it performs no I/O itself; each method builds a
// request/handler pair and submits it through the bound execution.
type Collection struct {
	name string
	exec Execution
	conn *Connection
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Insert stores a new document. When the document carries a `_key` field it
// becomes the document key and must be unique within the collection.
func (c *Collection) Insert(ctx context.Context, document any, opts *InsertOptions) (*DocumentMeta, Job, error) {
	body, err := marshalDocument(document)
	if err != nil {
		return nil, nil, err
	}
	params := url.Values{"collection": {c.name}}
	if opts != nil && opts.WaitForSync {
		params.Set("waitForSync", "true")
	}
	req := &Request{
		Method:   http.MethodPost,
		Endpoint: "/_api/document",
		Params:   params,
		Body:     body,
	}
	handle := func(res *Response) (json.RawMessage, error) {
		switch {
		case res.StatusCode == http.StatusBadRequest:
			return nil, fmt.Errorf("insert document: invalid document: %w", newServerError(res))
		case res.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("insert document: collection not found: %w", newServerError(res))
		case !res.IsSuccess():
			return nil, fmt.Errorf("insert document: %w", newServerError(res))
		}
		return res.Body, nil
	}
	return decode[*DocumentMeta](c.exec.Submit(ctx, req, handle))
}

// Get fetches a document by key. A missing document yields a nil payload
// and no error. A non-empty rev turns the fetch conditional; a revision
// mismatch is an error.
func (c *Collection) Get(ctx context.Context, key, rev string) (json.RawMessage, Job, error) {
	req := &Request{
		Method:   http.MethodGet,
		Endpoint: "/_api/document/" + c.name + "/" + key,
	}
	if rev != "" {
		req.Headers = map[string]string{"If-Match": rev}
	}
	handle := func(res *Response) (json.RawMessage, error) {
		switch {
		case res.StatusCode == http.StatusPreconditionFailed || res.StatusCode == http.StatusNotModified:
			return nil, fmt.Errorf("get document: revision mismatch: %w", newServerError(res))
		case res.StatusCode == http.StatusNotFound:
			return nil, nil
		case !res.IsSuccess():
			return nil, fmt.Errorf("get document: %w", newServerError(res))
		}
		return res.Body, nil
	}
	raw, job, err := c.exec.Submit(ctx, req, handle)
	return raw, job, err
}

// Update patches the document under key with the fields of data.
func (c *Collection) Update(ctx context.Context, key string, data any, opts *UpdateOptions) (*DocumentMeta, Job, error) {
	body, err := marshalDocument(data)
	if err != nil {
		return nil, nil, err
	}
	params := url.Values{}
	req := &Request{
		Method:   http.MethodPatch,
		Endpoint: "/_api/document/" + c.name + "/" + key,
		Params:   params,
		Body:     body,
	}
	if opts != nil {
		if opts.KeepNull != nil {
			params.Set("keepNull", strconv.FormatBool(*opts.KeepNull))
		}
		if opts.Merge != nil {
			params.Set("mergeObjects", strconv.FormatBool(*opts.Merge))
		}
		if opts.WaitForSync {
			params.Set("waitForSync", "true")
		}
		if opts.Rev != "" {
			req.Headers = map[string]string{"If-Match": opts.Rev}
		}
	}
	return decode[*DocumentMeta](c.exec.Submit(ctx, req, writeHandler("update document")))
}

// Replace swaps the whole document under key for data.
func (c *Collection) Replace(ctx context.Context, key string, data any, opts *ReplaceOptions) (*DocumentMeta, Job, error) {
	body, err := marshalDocument(data)
	if err != nil {
		return nil, nil, err
	}
	params := url.Values{}
	req := &Request{
		Method:   http.MethodPut,
		Endpoint: "/_api/document/" + c.name + "/" + key,
		Params:   params,
		Body:     body,
	}
	if opts != nil {
		if opts.WaitForSync {
			params.Set("waitForSync", "true")
		}
		if opts.Rev != "" {
			req.Headers = map[string]string{"If-Match": opts.Rev}
		}
	}
	return decode[*DocumentMeta](c.exec.Submit(ctx, req, writeHandler("replace document")))
}

// Delete removes the document under key. With IgnoreMissing set, a missing
// document yields a nil meta and no error.
func (c *Collection) Delete(ctx context.Context, key string, opts *DeleteOptions) (*DocumentMeta, Job, error) {
	params := url.Values{}
	req := &Request{
		Method:   http.MethodDelete,
		Endpoint: "/_api/document/" + c.name + "/" + key,
		Params:   params,
	}
	ignoreMissing := false
	if opts != nil {
		ignoreMissing = opts.IgnoreMissing
		if opts.WaitForSync {
			params.Set("waitForSync", "true")
		}
		if opts.Rev != "" {
			req.Headers = map[string]string{"If-Match": opts.Rev}
		}
	}
	handle := func(res *Response) (json.RawMessage, error) {
		switch {
		case res.StatusCode == http.StatusPreconditionFailed:
			return nil, fmt.Errorf("delete document: revision mismatch: %w", newServerError(res))
		case res.StatusCode == http.StatusNotFound:
			if ignoreMissing {
				return nil, nil
			}
			return nil, fmt.Errorf("delete document: %w", newServerError(res))
		case !res.IsSuccess():
			return nil, fmt.Errorf("delete document: %w", newServerError(res))
		}
		return res.Body, nil
	}
	return decode[*DocumentMeta](c.exec.Submit(ctx, req, handle))
}

// Count returns the number of documents in the collection.
func (c *Collection) Count(ctx context.Context) (int64, Job, error) {
	req := &Request{
		Method:   http.MethodGet,
		Endpoint: "/_api/collection/" + c.name + "/count",
	}
	return decode[int64](c.exec.Submit(ctx, req, fieldHandler("get count", "count")))
}

// Truncate removes every document while keeping the collection.
func (c *Collection) Truncate(ctx context.Context) (Job, error) {
	req := &Request{
		Method:   http.MethodPut,
		Endpoint: "/_api/collection/" + c.name + "/truncate",
	}
	_, job, err := c.exec.Submit(ctx, req, bodyHandler("truncate collection"))
	return job, err
}

// All returns a cursor over every document in the collection. In deferred
// modes the cursor is materialized later from the job via
// Query.CursorFromJob.
func (c *Collection) All(ctx context.Context, opts *AllOptions) (*Cursor, Job, error) {
	data := map[string]any{"collection": c.name}
	if opts != nil {
		if opts.Skip > 0 {
			data["skip"] = opts.Skip
		}
		if opts.Limit > 0 {
			data["limit"] = opts.Limit
		}
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal simple query: %w", err)
	}
	req := &Request{
		Method:   http.MethodPut,
		Endpoint: "/_api/simple/all",
		Body:     body,
	}
	raw, job, err := c.exec.Submit(ctx, req, bodyHandler("get all documents"))
	if err != nil || job != nil {
		return nil, job, err
	}
	cursor, err := newCursor(c.conn, raw)
	return cursor, nil, err
}

// writeHandler covers the shared interpretation of document writes.
func writeHandler(op string) Handler {
	return func(res *Response) (json.RawMessage, error) {
		if res.StatusCode == http.StatusPreconditionFailed {
			return nil, fmt.Errorf("%s: revision mismatch: %w", op, newServerError(res))
		}
		if !res.IsSuccess() {
			return nil, fmt.Errorf("%s: %w", op, newServerError(res))
		}
		return res.Body, nil
	}
}

// marshalDocument serializes a document unless it already is raw JSON.
func marshalDocument(document any) ([]byte, error) {
	switch doc := document.(type) {
	case json.RawMessage:
		return doc, nil
	case []byte:
		return doc, nil
	case string:
		return []byte(doc), nil
	}
	body, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return body, nil
}
