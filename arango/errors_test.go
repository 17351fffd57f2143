package arango

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewServerError(t *testing.T) {
	tests := []struct {
		name        string
		response    Response
		wantMessage string
		wantNum     int
	}{
		{
			name: "structured error body",
			response: Response{
				Method:     "POST",
				URL:        "http://localhost:8529/_db/test/_api/document",
				StatusCode: 409,
				Body:       []byte(`{"error":true,"code":409,"errorNum":1210,"errorMessage":"unique constraint violated"}`),
			},
			wantMessage: "[1210] unique constraint violated (HTTP 409)",
			wantNum:     1210,
		},
		{
			name: "no body falls back to status text",
			response: Response{
				StatusCode: 503,
				StatusText: "Service Unavailable",
			},
			wantMessage: "Service Unavailable (HTTP 503)",
		},
		{
			name: "nothing to go on",
			response: Response{
				StatusCode: 500,
				Body:       []byte(`not json`),
			},
			wantMessage: "request failed (HTTP 500)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newServerError(&tt.response)
			if err.Error() != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMessage)
			}
			if err.ErrorNum != tt.wantNum {
				t.Errorf("ErrorNum = %d, want %d", err.ErrorNum, tt.wantNum)
			}
			if err.HTTPCode != tt.response.StatusCode {
				t.Errorf("HTTPCode = %d, want %d", err.HTTPCode, tt.response.StatusCode)
			}
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	duplicate := &ServerError{ErrorNum: ErrNumUniqueConstraint, HTTPCode: 409}
	wrapped := fmt.Errorf("insert document: %w", duplicate)

	if !IsDuplicateKey(wrapped) {
		t.Error("IsDuplicateKey should see through wrapping")
	}
	if IsDuplicateKey(&ServerError{ErrorNum: ErrNumDocumentNotFound}) {
		t.Error("IsDuplicateKey matched an unrelated server error")
	}
	if IsDuplicateKey(errors.New("plain error")) {
		t.Error("IsDuplicateKey matched a non-server error")
	}
}
