package arango

import (
	"errors"
	"fmt"
)

// Sentinel errors for protocol-level failures. These report problems with
// the tracking machinery itself, as opposed to ServerError which reports
// that a request reached the server and failed there.
var (
	// ErrJobNotDone is returned when a job's result is requested before
	// the job has finished.
	ErrJobNotDone = errors.New("job not done")

	// ErrJobNotFound is returned when the server no longer knows the job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobInvalid is returned when the server rejects the job id as
	// malformed.
	ErrJobInvalid = errors.New("job id invalid")

	// ErrNoMoreDocuments signals cursor exhaustion. Once returned, the
	// cursor stays exhausted; issue a new query for another traversal.
	ErrNoMoreDocuments = errors.New("no more documents")

	// ErrBadBatchResponse is returned when the batch response body cannot
	// be split back into one sub-response per queued request.
	ErrBadBatchResponse = errors.New("malformed batch response")
)

// Well-known server error numbers.
const (
	ErrNumDocumentNotFound = 1202
	ErrNumUniqueConstraint = 1210
)

// ServerError is a structured error reported by the server: a request was
// delivered and the server answered with an error body.
type ServerError struct {
	ErrorNum int
	Message  string
	HTTPCode int
	Method   string
	URL      string
}

func (e *ServerError) Error() string {
	if e.ErrorNum != 0 {
		return fmt.Sprintf("[%d] %s (HTTP %d)", e.ErrorNum, e.Message, e.HTTPCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.HTTPCode)
}

// newServerError builds a ServerError from a raw response, preferring the
// server's error envelope over the HTTP status text.
func newServerError(res *Response) *ServerError {
	e := &ServerError{
		HTTPCode: res.StatusCode,
		Method:   res.Method,
		URL:      res.URL,
		Message:  res.StatusText,
	}
	if body, ok := res.errorBody(); ok {
		e.ErrorNum = body.ErrorNum
		if body.ErrorMessage != "" {
			e.Message = body.ErrorMessage
		}
	}
	if e.Message == "" {
		e.Message = "request failed"
	}
	return e
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.ErrorNum == ErrNumUniqueConstraint
}
