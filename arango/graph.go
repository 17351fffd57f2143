package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// EdgeDefinition relates one edge collection to its vertex collections.
type EdgeDefinition struct {
	Collection string   `json:"collection"`
	From       []string `json:"from"`
	To         []string `json:"to"`
}

// GraphInfo describes a graph as reported by the server.
type GraphInfo struct {
	ID                string           `json:"_id"`
	Key               string           `json:"_key"`
	Name              string           `json:"name"`
	Rev               string           `json:"_rev"`
	EdgeDefinitions   []EdgeDefinition `json:"edgeDefinitions"`
	OrphanCollections []string         `json:"orphanCollections"`
}

// Graph exposes vertex and edge operations on one named graph.
type Graph struct {
	name string
	exec Execution
	conn *Connection
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.name
}

// Properties fetches the graph's definition from the server.
func (g *Graph) Properties(ctx context.Context) (*GraphInfo, Job, error) {
	req := &Request{Method: http.MethodGet, Endpoint: "/_api/gharial/" + g.name}
	return decode[*GraphInfo](g.exec.Submit(ctx, req, fieldHandler("get graph", "graph")))
}

// InsertVertex stores a new vertex in the given vertex collection.
func (g *Graph) InsertVertex(ctx context.Context, collection string, vertex any, waitForSync bool) (*DocumentMeta, Job, error) {
	body, err := marshalDocument(vertex)
	if err != nil {
		return nil, nil, err
	}
	req := &Request{
		Method:   http.MethodPost,
		Endpoint: "/_api/gharial/" + g.name + "/vertex/" + collection,
		Body:     body,
	}
	if waitForSync {
		req.Params = url.Values{"waitForSync": {"true"}}
	}
	return decode[*DocumentMeta](g.exec.Submit(ctx, req, fieldHandler("insert vertex", "vertex")))
}

// InsertEdge stores a new edge in the given edge collection. The edge
// document must carry `_from` and `_to` vertex ids.
func (g *Graph) InsertEdge(ctx context.Context, collection string, edge any, waitForSync bool) (*DocumentMeta, Job, error) {
	body, err := marshalDocument(edge)
	if err != nil {
		return nil, nil, err
	}
	req := &Request{
		Method:   http.MethodPost,
		Endpoint: "/_api/gharial/" + g.name + "/edge/" + collection,
		Body:     body,
	}
	if waitForSync {
		req.Params = url.Values{"waitForSync": {"true"}}
	}
	return decode[*DocumentMeta](g.exec.Submit(ctx, req, fieldHandler("insert edge", "edge")))
}

// DeleteVertex removes a vertex and the edges attached to it. With
// ignoreMissing set, a missing vertex yields false instead of an error.
func (g *Graph) DeleteVertex(ctx context.Context, collection, key string, ignoreMissing bool) (bool, Job, error) {
	req := &Request{
		Method:   http.MethodDelete,
		Endpoint: "/_api/gharial/" + g.name + "/vertex/" + collection + "/" + key,
	}
	handle := func(res *Response) (json.RawMessage, error) {
		if res.StatusCode == http.StatusNotFound && ignoreMissing {
			return json.RawMessage("false"), nil
		}
		if !res.IsSuccess() {
			return nil, fmt.Errorf("delete vertex: %w", newServerError(res))
		}
		return json.RawMessage("true"), nil
	}
	return decode[bool](g.exec.Submit(ctx, req, handle))
}
