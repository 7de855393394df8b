package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/guisync/internal/config"
	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/pkg/server"
)

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling
// reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp() (*app, *syncBuffer) {
	out := &syncBuffer{}
	return &app{stdout: out, stderr: io.Discard}, out
}

func execute(ctx context.Context, a *app, args ...string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
}

func newDemoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := server.New(newDemoModel(fixedNow), server.DefaultConfig())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", want, out.String())
}

func TestVersion(t *testing.T) {
	a, out := newTestApp()
	if err := execute(context.Background(), a, "version", "--short"); err != nil {
		t.Fatalf("version error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != version {
		t.Errorf("version output = %q, want %q", got, version)
	}
}

func TestGlobalFlags(t *testing.T) {
	a, _ := newTestApp()
	err := execute(context.Background(), a,
		"--interval", "1s",
		"--transport", "websocket",
		"--no-auto-refresh",
		"--discard-stale",
		"--log-level", "debug",
		"version")
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}

	cc, err := a.cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig error: %v", err)
	}
	if cc.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want %v", cc.PollInterval, time.Second)
	}
	if cc.AutoRefresh {
		t.Error("AutoRefresh = true, want false")
	}
	if !cc.DiscardStale {
		t.Error("DiscardStale = false, want true")
	}
	if a.cfg.Client.Transport != config.TransportWebSocket {
		t.Errorf("Transport = %q, want %q", a.cfg.Client.Transport, config.TransportWebSocket)
	}
}

func TestGlobalFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"transport", []string{"--transport", "grpc", "version"}, "E104"},
		{"interval", []string{"--interval", "-1s", "version"}, "E103"},
		{"log level", []string{"--log-level", "loud", "version"}, "E107"},
		{"missing config", []string{"--config", "nope.yaml", "version"}, "E100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp()
			err := execute(context.Background(), a, tt.args...)
			if code := errorCode(err); code != tt.code {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	ts := newDemoServer(t)
	path := filepath.Join(t.TempDir(), "guisync.yaml")
	content := "client:\n  url: " + ts.URL + "\n  interval: 50ms\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	a, out := newTestApp()
	if err := execute(context.Background(), a, "--config", path, "call", ts.URL, "inc"); err != nil {
		t.Fatalf("call error: %v", err)
	}
	if a.cfg.Client.Interval != "50ms" {
		t.Errorf("Interval = %q, want %q", a.cfg.Client.Interval, "50ms")
	}
	if !strings.Contains(out.String(), "count: 1\n") {
		t.Errorf("output = %q, want count: 1", out.String())
	}
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
