package arango

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCollectionInsert(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"_id":"students/abby","_key":"abby","_rev":"_W0"}`))
	}))
	defer srv.Close()

	students := NewDatabase(testConnection(t, srv)).Collection("students")
	meta, job, err := students.Insert(context.Background(),
		map[string]string{"_key": "abby"}, &InsertOptions{WaitForSync: true})
	if err != nil {
		t.Fatalf("Insert() returned error: %v", err)
	}
	if job != nil {
		t.Fatal("immediate insert must not produce a job")
	}

	if seen.Method != http.MethodPost || seen.URL.Path != testPrefix+"/_api/document" {
		t.Errorf("insert call = %s %s", seen.Method, seen.URL.Path)
	}
	query := seen.URL.Query()
	if query.Get("collection") != "students" {
		t.Errorf("collection param = %q", query.Get("collection"))
	}
	if query.Get("waitForSync") != "true" {
		t.Errorf("waitForSync param = %q", query.Get("waitForSync"))
	}

	if meta.Key != "abby" || meta.ID != "students/abby" || meta.Rev != "_W0" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestCollectionInsertDuplicateKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":true,"code":409,"errorNum":1210,"errorMessage":"unique constraint violated"}`))
	}))
	defer srv.Close()

	students := NewDatabase(testConnection(t, srv)).Collection("students")
	_, _, err := students.Insert(context.Background(), map[string]string{"_key": "abby"}, nil)
	if err == nil {
		t.Fatal("inserting a duplicate key should fail")
	}
	if !IsDuplicateKey(err) {
		t.Errorf("error = %v, want unique constraint violation", err)
	}
}

func TestCollectionGet(t *testing.T) {
	tests := []struct {
		name       string
		rev        string
		statusCode int
		body       string
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "found",
			statusCode: http.StatusOK,
			body:       `{"_key":"abby","gpa":3.5}`,
			wantBody:   `{"_key":"abby","gpa":3.5}`,
		},
		{
			name:       "missing yields nil",
			statusCode: http.StatusNotFound,
			body:       `{"error":true,"code":404,"errorNum":1202,"errorMessage":"document not found"}`,
		},
		{
			name:       "revision mismatch",
			rev:        "_W0",
			statusCode: http.StatusPreconditionFailed,
			body:       `{"error":true,"code":412,"errorNum":1200,"errorMessage":"conflict"}`,
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != testPrefix+"/_api/document/students/abby" {
					t.Errorf("get call path = %q", r.URL.Path)
				}
				if got := r.Header.Get("If-Match"); got != tt.rev {
					t.Errorf("If-Match = %q, want %q", got, tt.rev)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			students := NewDatabase(testConnection(t, srv)).Collection("students")
			raw, _, err := students.Get(context.Background(), "abby", tt.rev)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Get() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() returned error: %v", err)
			}
			if string(raw) != tt.wantBody {
				t.Errorf("Get() = %q, want %q", raw, tt.wantBody)
			}
		})
	}
}

func TestCollectionDeleteIgnoreMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":true,"code":404,"errorNum":1202,"errorMessage":"document not found"}`))
	}))
	defer srv.Close()

	students := NewDatabase(testConnection(t, srv)).Collection("students")
	ctx := context.Background()

	meta, _, err := students.Delete(ctx, "ghost", &DeleteOptions{IgnoreMissing: true})
	if err != nil {
		t.Fatalf("Delete(ignoreMissing) returned error: %v", err)
	}
	if meta != nil {
		t.Errorf("meta = %+v, want nil", meta)
	}

	if _, _, err := students.Delete(ctx, "ghost", nil); err == nil {
		t.Error("Delete() without ignoreMissing should fail on a missing document")
	}
}

func TestCollectionCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != testPrefix+"/_api/collection/students/count" {
			t.Errorf("count call path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"count":27,"status":3}`))
	}))
	defer srv.Close()

	students := NewDatabase(testConnection(t, srv)).Collection("students")
	count, _, err := students.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() returned error: %v", err)
	}
	if count != 27 {
		t.Errorf("Count() = %d, want 27", count)
	}
}

func TestCollectionUpdateParams(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"_id":"students/abby","_key":"abby","_rev":"_W1"}`))
	}))
	defer srv.Close()

	keepNull := false
	students := NewDatabase(testConnection(t, srv)).Collection("students")
	meta, _, err := students.Update(context.Background(), "abby",
		map[string]any{"gpa": nil}, &UpdateOptions{KeepNull: &keepNull})
	if err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}

	if seen.Method != http.MethodPatch {
		t.Errorf("update method = %q, want PATCH", seen.Method)
	}
	if seen.URL.Query().Get("keepNull") != "false" {
		t.Errorf("keepNull param = %q, want false", seen.URL.Query().Get("keepNull"))
	}
	if meta.Rev != "_W1" {
		t.Errorf("meta rev = %q", meta.Rev)
	}
}

func TestCollectionAll(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != testPrefix+"/_api/simple/all" {
			t.Errorf("all call = %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":[{"v":1}],"hasMore":false}`))
	}))
	defer srv.Close()

	students := NewDatabase(testConnection(t, srv)).Collection("students")
	cursor, _, err := students.All(context.Background(), &AllOptions{Skip: 5, Limit: 10})
	if err != nil {
		t.Fatalf("All() returned error: %v", err)
	}
	if body["collection"] != "students" || body["skip"] != float64(5) || body["limit"] != float64(10) {
		t.Errorf("simple query body = %v", body)
	}
	rows, err := cursor.All(context.Background())
	if err != nil || len(rows) != 1 {
		t.Errorf("cursor drained %d rows (%v), want 1", len(rows), err)
	}
}
