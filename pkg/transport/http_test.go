package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/guisync/pkg/protocol"
)

func TestHTTPRefresh(t *testing.T) {
	var gotMethod, gotPath, gotReqID string
	var gotBodyLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotReqID = r.Header.Get(RequestIDHeader)
		b, _ := io.ReadAll(r.Body)
		gotBodyLen = len(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"ID":"label1","HTML":"42"}]`))
	}))
	defer srv.Close()

	tr, err := NewHTTP(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTP() error = %v", err)
	}
	updates, err := tr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/refresh/" {
		t.Errorf("request = %s %s, want POST /refresh/", gotMethod, gotPath)
	}
	if gotBodyLen != 0 {
		t.Errorf("body length = %d, want 0", gotBodyLen)
	}
	if gotReqID == "" {
		t.Error("request id header should be set")
	}
	if len(updates) != 1 || updates[0] != (protocol.UpdateRecord{ID: "label1", HTML: "42"}) {
		t.Errorf("updates = %+v", updates)
	}
}

func TestHTTPRefreshStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr, _ := NewHTTP(srv.URL)
	_, err := tr.Refresh(context.Background())

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusNoContent || se.Op != "refresh" {
		t.Errorf("StatusError = %+v", se)
	}
	if IsMalformed(err) {
		t.Error("status error must not count as malformed")
	}
}

func TestHTTPRefreshMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	tr, _ := NewHTTP(srv.URL)
	_, err := tr.Refresh(context.Background())
	if !IsMalformed(err) {
		t.Fatalf("err = %v, want malformed", err)
	}
}

func TestHTTPRefreshUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr, _ := NewHTTP(url)
	_, err := tr.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsMalformed(err) {
		t.Error("network error must not count as malformed")
	}
}

func TestHTTPRefreshTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr, _ := NewHTTP(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := tr.Refresh(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestHTTPCommand(t *testing.T) {
	var got protocol.CommandRequest
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc/" {
			http.NotFound(w, r)
			return
		}
		contentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		got, _ = protocol.DecodeCommand(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tr, _ := NewHTTP(srv.URL)
	if err := tr.Command(context.Background(), protocol.NewSet("field1", "hello")); err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != protocol.NewSet("field1", "hello") {
		t.Errorf("server got %+v", got)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
}

func TestHTTPCommandStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, _ := NewHTTP(srv.URL)
	err := tr.Command(context.Background(), protocol.NewCall("btn1"))
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500 StatusError", err)
	}
}

func TestHTTPPathsAndPrefix(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/app/sync/" {
			hits.Add(1)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tr, err := NewHTTP(srv.URL+"/app", WithPaths("/sync/", ""))
	if err != nil {
		t.Fatalf("NewHTTP() error = %v", err)
	}
	if _, err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits on /app/sync/ = %d, want 1", hits.Load())
	}
}

func TestHTTPClosed(t *testing.T) {
	tr, _ := NewHTTP("http://127.0.0.1:1")
	_ = tr.Close()
	if _, err := tr.Refresh(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Refresh after Close = %v, want ErrClosed", err)
	}
	if err := tr.Command(context.Background(), protocol.NewCall("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Command after Close = %v, want ErrClosed", err)
	}
}

func TestNewHTTPRejectsScheme(t *testing.T) {
	if _, err := NewHTTP("ftp://example.com"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}
