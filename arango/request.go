package arango

import (
	"net/url"
	"strings"
)

// Request describes a single ArangoDB API call before it is executed.
// It carries no connection state: the same Request value can be sent
// immediately, queued on the server's job queue or folded into a batch.
// A Request must not be modified once handed to an execution.
type Request struct {
	Method   string
	Endpoint string
	Params   url.Values
	Headers  map[string]string
	Body     []byte
}

// WithHeader returns a copy of the request with the given header set.
// The original request is left untouched.
func (r *Request) WithHeader(key, value string) *Request {
	clone := *r
	clone.Headers = make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		clone.Headers[k] = v
	}
	clone.Headers[key] = value
	return &clone
}

// Path returns the endpoint with the encoded query string appended.
func (r *Request) Path() string {
	if len(r.Params) == 0 {
		return r.Endpoint
	}
	return r.Endpoint + "?" + r.Params.Encode()
}

// Stringify renders the request as an embedded HTTP request line with
// headers and body, the form the batch API expects inside each
// multipart part.
func (r *Request) Stringify() string {
	var s strings.Builder
	s.WriteString(r.Method)
	s.WriteString(" ")
	s.WriteString(r.Path())
	s.WriteString(" HTTP/1.1")
	for key, value := range r.Headers {
		s.WriteString("\r\n")
		s.WriteString(key)
		s.WriteString(": ")
		s.WriteString(value)
	}
	if len(r.Body) > 0 {
		s.WriteString("\r\n\r\n")
		s.Write(r.Body)
	}
	return s.String()
}
