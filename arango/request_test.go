package arango

import (
	"net/url"
	"testing"
)

func TestRequestStringify(t *testing.T) {
	tests := []struct {
		name     string
		request  Request
		expected string
	}{
		{
			name:     "bare request line",
			request:  Request{Method: "GET", Endpoint: "/_api/version"},
			expected: "GET /_api/version HTTP/1.1",
		},
		{
			name: "query parameters are encoded and sorted",
			request: Request{
				Method:   "POST",
				Endpoint: "/_api/document",
				Params:   url.Values{"waitForSync": {"true"}, "collection": {"test coll"}},
			},
			expected: "POST /_api/document?collection=test+coll&waitForSync=true HTTP/1.1",
		},
		{
			name: "header line",
			request: Request{
				Method:   "GET",
				Endpoint: "/_api/document/c/k",
				Headers:  map[string]string{"If-Match": "rev1"},
			},
			expected: "GET /_api/document/c/k HTTP/1.1\r\nIf-Match: rev1",
		},
		{
			name: "body follows a blank line",
			request: Request{
				Method:   "POST",
				Endpoint: "/_api/cursor",
				Body:     []byte(`{"query":"RETURN 1"}`),
			},
			expected: "POST /_api/cursor HTTP/1.1\r\n\r\n{\"query\":\"RETURN 1\"}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.request.Stringify()
			if result != tt.expected {
				t.Errorf("Stringify() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestRequestWithHeader(t *testing.T) {
	original := &Request{
		Method:   "GET",
		Endpoint: "/_api/version",
		Headers:  map[string]string{"Accept": "application/json"},
	}

	clone := original.WithHeader("x-arango-async", "store")

	if clone.Headers["x-arango-async"] != "store" {
		t.Errorf("clone is missing the added header: %v", clone.Headers)
	}
	if clone.Headers["Accept"] != "application/json" {
		t.Errorf("clone lost the original header: %v", clone.Headers)
	}
	if _, exists := original.Headers["x-arango-async"]; exists {
		t.Error("WithHeader modified the original request")
	}
}

func TestRequestPath(t *testing.T) {
	request := Request{Method: "GET", Endpoint: "/_api/collection"}
	if path := request.Path(); path != "/_api/collection" {
		t.Errorf("Path() = %q, want %q", path, "/_api/collection")
	}

	request.Params = url.Values{"excludeSystem": {"true"}}
	if path := request.Path(); path != "/_api/collection?excludeSystem=true" {
		t.Errorf("Path() = %q, want %q", path, "/_api/collection?excludeSystem=true")
	}
}
