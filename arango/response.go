package arango

import (
	"encoding/json"
	"net/http"
)

// Response is the raw result of one HTTP round trip to the server.
// It is produced by the transport (or reconstructed from a batch part)
// and never modified afterwards.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	StatusText string
	Headers    http.Header
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeBody unmarshals the JSON response body into v.
func (r *Response) DecodeBody(v any) error {
	return json.Unmarshal(r.Body, v)
}

// errorBody is the structured error envelope ArangoDB returns on failures.
type errorBody struct {
	Error        bool   `json:"error"`
	Code         int    `json:"code"`
	ErrorNum     int    `json:"errorNum"`
	ErrorMessage string `json:"errorMessage"`
}

// errorBody parses the server's error envelope out of the body, if present.
func (r *Response) errorBody() (errorBody, bool) {
	var body errorBody
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return errorBody{}, false
	}
	return body, body.ErrorMessage != "" || body.ErrorNum != 0
}
