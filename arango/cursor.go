package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kelsos/arango-go/internal/logger"
)

// cursorData is the page envelope every cursor endpoint returns.
type cursorData struct {
	ID      string            `json:"id"`
	Result  []json.RawMessage `json:"result"`
	HasMore bool              `json:"hasMore"`
	Count   *int64            `json:"count"`
	Cached  bool              `json:"cached"`
}

// Cursor is a lazy, forward-only sequence of result rows backed by a
// server-side cursor. Rows are served from the current page; crossing a
// page boundary fetches the next page from the server. A Cursor is meant
// for a single consumer and cannot be restarted once exhausted.
type Cursor struct {
	conn   *Connection
	data   cursorData
	closed bool
}

// newCursor builds a cursor from the raw body of a cursor-producing call.
func newCursor(conn *Connection, raw json.RawMessage) (*Cursor, error) {
	var data cursorData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode cursor response: %w", err)
	}
	return &Cursor{conn: conn, data: data}, nil
}

// ID returns the server-side cursor id. It is empty when the whole result
// fit in the first page and no server-side cursor was created.
func (c *Cursor) ID() string {
	return c.data.ID
}

// Count returns the total result count, if the query asked for it.
func (c *Cursor) Count() (int64, bool) {
	if c.data.Count == nil {
		return 0, false
	}
	return *c.data.Count, true
}

// Cached reports whether the server answered from its query cache.
func (c *Cursor) Cached() bool {
	return c.data.Cached
}

// Next returns the next row. When the current page is spent and the server
// has more, it blocks on a fetch of the next page. On exhaustion the
// server-side cursor is released and ErrNoMoreDocuments is returned, now
// and on every later call.
func (c *Cursor) Next(ctx context.Context) (json.RawMessage, error) {
	for len(c.data.Result) == 0 {
		if c.closed || !c.data.HasMore {
			if err := c.Close(ctx); err != nil {
				logger.Debug("Failed to close exhausted cursor %s: %v", c.data.ID, err)
			}
			return nil, ErrNoMoreDocuments
		}
		res, err := c.conn.Do(ctx, &Request{
			Method:   http.MethodPut,
			Endpoint: "/_api/cursor/" + c.data.ID,
		})
		if err != nil {
			return nil, err
		}
		if !res.IsSuccess() {
			return nil, fmt.Errorf("cursor next: %w", newServerError(res))
		}
		var data cursorData
		if err := res.DecodeBody(&data); err != nil {
			return nil, fmt.Errorf("failed to decode cursor page: %w", err)
		}
		c.data.Result = data.Result
		c.data.HasMore = data.HasMore
	}

	row := c.data.Result[0]
	c.data.Result = c.data.Result[1:]
	return row, nil
}

// NextDocument reads the next row and decodes it into T.
func NextDocument[T any](ctx context.Context, c *Cursor) (T, error) {
	var out T
	row, err := c.Next(ctx)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(row, &out); err != nil {
		return out, fmt.Errorf("failed to decode document: %w", err)
	}
	return out, nil
}

// All drains the cursor and returns the remaining rows.
func (c *Cursor) All(ctx context.Context) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	for {
		row, err := c.Next(ctx)
		if err == ErrNoMoreDocuments {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

// Close releases the server-side cursor. Closing a cursor that never had a
// server-side id, or one already closed, is a no-op. The server answers a
// delete with 202, or 404 when the cursor is already gone; both count as
// closed.
func (c *Cursor) Close(ctx context.Context) error {
	if c.closed || c.data.ID == "" {
		c.closed = true
		return nil
	}
	res, err := c.conn.Do(ctx, &Request{
		Method:   http.MethodDelete,
		Endpoint: "/_api/cursor/" + c.data.ID,
	})
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusAccepted && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("cursor close: %w", newServerError(res))
	}
	c.closed = true
	return nil
}
