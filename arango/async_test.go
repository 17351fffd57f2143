package arango

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAsyncSubmit(t *testing.T) {
	var asyncMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		asyncMode = r.Header.Get("x-arango-async")
		w.Header().Set("x-arango-async-id", "132583")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	db := NewDatabase(testConnection(t, srv))
	ctx := context.Background()

	_, job, err := db.Async(true).Collection("students").Insert(ctx, map[string]string{"_key": "a"}, nil)
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if asyncMode != "store" {
		t.Errorf("x-arango-async = %q, want store", asyncMode)
	}
	asyncJob, ok := job.(*AsyncJob)
	if !ok {
		t.Fatalf("job is %T, want *AsyncJob", job)
	}
	if asyncJob.ID() != "132583" {
		t.Errorf("job id = %q, want 132583", asyncJob.ID())
	}

	_, job, err = db.Async(false).Collection("students").Insert(ctx, map[string]string{"_key": "b"}, nil)
	if err != nil {
		t.Fatalf("fire-and-forget Insert returned error: %v", err)
	}
	if asyncMode != "true" {
		t.Errorf("x-arango-async = %q, want true", asyncMode)
	}
	if job != nil {
		t.Error("fire-and-forget submit must not produce a job")
	}
}

func TestAsyncSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":true,"code":500,"errorNum":4,"errorMessage":"out of memory"}`))
	}))
	defer srv.Close()

	db := NewDatabase(testConnection(t, srv))
	_, job, err := db.Async(true).Collection("students").Insert(context.Background(), map[string]string{"_key": "a"}, nil)
	if err == nil {
		t.Fatal("a rejected hand-off should fail immediately")
	}
	if job != nil {
		t.Error("a rejected hand-off must not produce a job")
	}
}

func TestAsyncJobStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       JobStatus
		wantErr    error
	}{
		{name: "pending", statusCode: http.StatusNoContent, want: JobPending},
		{name: "done", statusCode: http.StatusOK, want: JobDone},
		{name: "invalid id", statusCode: http.StatusBadRequest, wantErr: ErrJobInvalid},
		{name: "unknown id", statusCode: http.StatusNotFound, wantErr: ErrJobNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != testPrefix+"/_api/job/7" {
					t.Errorf("status probe = %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			job := NewDatabase(testConnection(t, srv)).AsyncJob("7")
			status, err := job.Status(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Status() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Status() returned error: %v", err)
			}
			if status != tt.want {
				t.Errorf("Status() = %q, want %q", status, tt.want)
			}
		})
	}
}

func TestAsyncJobResult(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       string
		wantErr    error
	}{
		{
			name:       "not done",
			statusCode: http.StatusNoContent,
			wantErr:    ErrJobNotDone,
		},
		{
			name:       "done",
			statusCode: http.StatusOK,
			body:       `{"_id":"students/a","_key":"a","_rev":"1"}`,
			want:       `{"_id":"students/a","_key":"a","_rev":"1"}`,
		},
		{
			name:       "job gone",
			statusCode: http.StatusNotFound,
			body:       `{"error":true,"code":404,"errorNum":404,"errorMessage":"not found"}`,
			wantErr:    ErrJobNotFound,
		},
		{
			// A 404 whose body carries a domain errorNum is the finished
			// operation's own response, not a missing job.
			name:       "domain 404 reaches the handler",
			statusCode: http.StatusNotFound,
			body:       `{"error":true,"code":404,"errorNum":1202,"errorMessage":"document not found"}`,
			want:       `{"error":true,"code":404,"errorNum":1202,"errorMessage":"document not found"}`,
		},
		{
			name:       "invalid id",
			statusCode: http.StatusBadRequest,
			wantErr:    ErrJobInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != testPrefix+"/_api/job/7" {
					t.Errorf("result pop = %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			job := &AsyncJob{conn: testConnection(t, srv), id: "7", handle: func(res *Response) (json.RawMessage, error) {
				return res.Body, nil
			}}
			raw, err := job.Result(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Result() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Result() returned error: %v", err)
			}
			if string(raw) != tt.want {
				t.Errorf("Result() = %q, want %q", raw, tt.want)
			}
		})
	}
}

func TestAsyncJobCancelAndDelete(t *testing.T) {
	var gotPath, gotMethod string
	statusCode := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(statusCode)
	}))
	defer srv.Close()

	job := NewDatabase(testConnection(t, srv)).AsyncJob("7")
	ctx := context.Background()

	ok, err := job.Cancel(ctx, false)
	if err != nil || !ok {
		t.Fatalf("Cancel() = %v, %v", ok, err)
	}
	if gotMethod != http.MethodPut || gotPath != testPrefix+"/_api/job/7/cancel" {
		t.Errorf("cancel call = %s %s", gotMethod, gotPath)
	}

	ok, err = job.Delete(ctx, false)
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	if gotMethod != http.MethodDelete || gotPath != testPrefix+"/_api/job/7" {
		t.Errorf("delete call = %s %s", gotMethod, gotPath)
	}

	statusCode = http.StatusNotFound
	if _, err := job.Cancel(ctx, false); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Cancel() on a missing job = %v, want ErrJobNotFound", err)
	}
	ok, err = job.Cancel(ctx, true)
	if err != nil || ok {
		t.Errorf("Cancel(ignoreMissing) = %v, %v, want false, nil", ok, err)
	}
	ok, err = job.Delete(ctx, true)
	if err != nil || ok {
		t.Errorf("Delete(ignoreMissing) = %v, %v, want false, nil", ok, err)
	}
}
