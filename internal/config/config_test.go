package config

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/pkg/client"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Client.Interval != "200ms" {
		t.Errorf("Client.Interval = %q, want %q", cfg.Client.Interval, "200ms")
	}
	if cfg.Client.Transport != TransportHTTP {
		t.Errorf("Client.Transport = %q, want %q", cfg.Client.Transport, TransportHTTP)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":8080")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); errorCode(err) != "E100" {
		t.Errorf("Load(empty) error = %v, want E100", err)
	}

	writeFile(t, tmpDir, "guisync.json", `{
  "client": {
    "url": "http://localhost:9000",
    "interval": "500ms",
    "autoRefresh": false,
    "transport": "websocket",
    "discardStale": true
  },
  "server": {
    "address": ":9000",
    "title": "Demo"
  },
  "log": {
    "level": "debug",
    "format": "json"
  }
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Client.URL != "http://localhost:9000" {
		t.Errorf("Client.URL = %q", cfg.Client.URL)
	}
	if cfg.Client.Transport != TransportWebSocket {
		t.Errorf("Client.Transport = %q, want %q", cfg.Client.Transport, TransportWebSocket)
	}
	if cfg.Client.AutoRefreshEnabled() {
		t.Error("AutoRefreshEnabled() = true, want false")
	}
	if cfg.Server.Title != "Demo" {
		t.Errorf("Server.Title = %q, want %q", cfg.Server.Title, "Demo")
	}
	if cfg.Log.Format != LogFormatJSON {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, LogFormatJSON)
	}
	if cfg.Path() != filepath.Join(tmpDir, "guisync.json") {
		t.Errorf("Path() = %q", cfg.Path())
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "guisync.yaml", `client:
  interval: 1s
  commandTimeout: 5s
server:
  rpcPath: /call/
  shutdownTimeout: 2s
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig error: %v", err)
	}
	if cc.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want %v", cc.PollInterval, time.Second)
	}
	if cc.CommandTimeout != 5*time.Second {
		t.Errorf("CommandTimeout = %v, want %v", cc.CommandTimeout, 5*time.Second)
	}
	if !cc.AutoRefresh {
		t.Error("AutoRefresh should default to true")
	}

	sc, err := cfg.ServerConfig()
	if err != nil {
		t.Fatalf("ServerConfig error: %v", err)
	}
	if sc.RPCPath != "/call/" {
		t.Errorf("RPCPath = %q, want %q", sc.RPCPath, "/call/")
	}
	if sc.RefreshPath != "/refresh/" {
		t.Errorf("RefreshPath = %q, want %q", sc.RefreshPath, "/refresh/")
	}
	if sc.ShutdownTimeout != 2*time.Second {
		t.Errorf("ShutdownTimeout = %v, want %v", sc.ShutdownTimeout, 2*time.Second)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "guisync.yaml", "server:\n  title: yaml\n")
	writeFile(t, tmpDir, "guisync.json", `{"server": {"title": "json"}}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Title != "json" {
		t.Errorf("Server.Title = %q, want %q", cfg.Server.Title, "json")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"invalid json", "a.json", "not valid json", "E101"},
		{"unknown json field", "b.json", `{"clinet": {}}`, "E101"},
		{"invalid yaml", "c.yaml", "client: [unclosed", "E101"},
		{"bad duration", "d.yaml", "client:\n  interval: soon\n", "E102"},
		{"zero interval", "e.yaml", "client:\n  interval: 0s\n", "E103"},
		{"transport", "f.yaml", "client:\n  transport: grpc\n", "E104"},
		{"server paths", "g.yaml", "server:\n  rpcPath: /refresh/\n", "E105"},
		{"format", "h.toml", "", "E106"},
		{"log level", "i.yaml", "log:\n  level: loud\n", "E107"},
		{"log format", "j.yaml", "log:\n  format: xml\n", "E107"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tmpDir, tt.file, tt.content)
			_, err := LoadFile(path)
			if code := errorCode(err); code != tt.code {
				t.Errorf("LoadFile error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "guisync.json"))
	if errorCode(err) != "E100" {
		t.Errorf("LoadFile error = %v, want E100", err)
	}
}

func TestLoadFile_ErrorLocation(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "guisync.json", "{\n  \"client\": {\n    \"interval\": 5\n  }\n}\n")

	_, err := LoadFile(path)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("LoadFile error = %v, want *errors.Error", err)
	}
	if e.Location == nil {
		t.Fatal("Location is nil")
	}
	if e.Location.Line != 3 {
		t.Errorf("Location.Line = %d, want 3", e.Location.Line)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"guisync.json", "guisync.yaml"} {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			cfg := New()
			off := false
			cfg.Client.AutoRefresh = &off
			cfg.Server.Title = "Saved"

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo error: %v", err)
			}
			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile error: %v", err)
			}
			if loaded.Server.Title != "Saved" {
				t.Errorf("Server.Title = %q, want %q", loaded.Server.Title, "Saved")
			}
			if loaded.Client.AutoRefreshEnabled() {
				t.Error("AutoRefreshEnabled() = true, want false")
			}

			loaded.Server.Title = "Again"
			if err := loaded.Save(); err != nil {
				t.Fatalf("Save error: %v", err)
			}
		})
	}

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestClientConfigOverrides(t *testing.T) {
	cfg := New()
	cfg.Client.ValuePrefix = "field_"
	cfg.Client.ErrorBox = "Errors"
	cfg.Client.MessageBox = "Debug"
	cfg.Client.RefreshTimeout = "1s"

	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig error: %v", err)
	}
	want := client.DefaultConfig()
	want.ValuePrefix = "field_"
	want.ErrorBoxID = "Errors"
	want.MessageBoxID = "Debug"
	want.RefreshTimeout = time.Second
	if *cc != *want {
		t.Errorf("ClientConfig() = %+v, want %+v", cc, want)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guisync.yml", "server:\n  title: found\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Find(nested)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if cfg.Server.Title != "found" {
		t.Errorf("Server.Title = %q, want %q", cfg.Server.Title, "found")
	}
	if !Exists(root) {
		t.Error("Exists(root) = false, want true")
	}
	if Exists(nested) {
		t.Error("Exists(nested) = true, want false")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) should fail")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	lc := LogConfig{Level: "warn", Format: LogFormatJSON}
	logger, err := lc.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "component", "client")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("output = %q, want JSON record", out)
	}
}
