package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/server"
)

// ConfigFileNames are the file names Load looks for, in order.
var ConfigFileNames = []string{"guisync.json", "guisync.yaml", "guisync.yml"}

// Transport kinds.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents a guisync.json or guisync.yaml file.
type Config struct {
	// Client configures sessions started by watch, call and set.
	Client ClientConfig `json:"client" yaml:"client"`

	// Server configures the reference server started by serve.
	Server ServerConfig `json:"server" yaml:"server"`

	// Log configures the process logger.
	Log LogConfig `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ClientConfig contains session settings. Durations are Go duration
// strings such as "200ms".
type ClientConfig struct {
	// URL is the server base URL used when none is given on the command line.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Interval is the poll interval.
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"`

	// AutoRefresh is the initial auto-refresh state. Nil means true.
	AutoRefresh *bool `json:"autoRefresh,omitempty" yaml:"autoRefresh,omitempty"`

	// Transport is "http" or "websocket".
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`

	// RefreshTimeout bounds each refresh. Empty means the poll interval.
	RefreshTimeout string `json:"refreshTimeout,omitempty" yaml:"refreshTimeout,omitempty"`

	// CommandTimeout bounds each command send. Empty means no bound.
	CommandTimeout string `json:"commandTimeout,omitempty" yaml:"commandTimeout,omitempty"`

	// DiscardStale drops refresh completions older than the newest one.
	DiscardStale bool `json:"discardStale,omitempty" yaml:"discardStale,omitempty"`

	// ValuePrefix, ErrorBox and MessageBox override the element ids the
	// session uses.
	ValuePrefix string `json:"valuePrefix,omitempty" yaml:"valuePrefix,omitempty"`
	ErrorBox    string `json:"errorBox,omitempty" yaml:"errorBox,omitempty"`
	MessageBox  string `json:"messageBox,omitempty" yaml:"messageBox,omitempty"`

	// Sanitize passes element content through a UGC HTML policy.
	Sanitize bool `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
}

// ServerConfig contains reference server settings.
type ServerConfig struct {
	Address           string `json:"address,omitempty" yaml:"address,omitempty"`
	Title             string `json:"title,omitempty" yaml:"title,omitempty"`
	RefreshPath       string `json:"refreshPath,omitempty" yaml:"refreshPath,omitempty"`
	RPCPath           string `json:"rpcPath,omitempty" yaml:"rpcPath,omitempty"`
	WebSocketPath     string `json:"webSocketPath,omitempty" yaml:"webSocketPath,omitempty"`
	MetricsPath       string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`
	DisableMetrics    bool   `json:"disableMetrics,omitempty" yaml:"disableMetrics,omitempty"`
	ScriptURL         string `json:"scriptURL,omitempty" yaml:"scriptURL,omitempty"`
	MaxBodySize       int64  `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	TrustProxyHeaders bool   `json:"trustProxyHeaders,omitempty" yaml:"trustProxyHeaders,omitempty"`

	// ShutdownTimeout is a duration string. Default: "30s".
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: info.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json. Default: text.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Client: ClientConfig{
			Interval:  client.DefaultPollInterval.String(),
			Transport: TransportHTTP,
		},
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownTimeout: "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// each of ConfigFileNames in turn.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E100").
		WithDetail(fmt.Sprintf("No %s in %s", strings.Join(ConfigFileNames, ", "), dir))
}

// LoadFile reads configuration from a specific file. The format follows
// the extension.
func LoadFile(path string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, errors.New("E106").WithDetail(fmt.Sprintf("%s has extension %q", path, ext))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").WithDetail(path + " does not exist")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if ext == ".json" {
		err = decodeJSON(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		e := errors.New("E101").Wrap(err)
		if line, col := errorPosition(data, err); line > 0 {
			e.WithLocation(path, line, col)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// errorPosition finds the 1-based line and column of a decode error.
func errorPosition(data []byte, err error) (line, col int) {
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntax):
		return offsetPosition(data, syntax.Offset)
	case stderrors.As(err, &typ):
		return offsetPosition(data, typ.Offset)
	}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, 0
	}
	return 0, 0
}

func offsetPosition(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line = 1
	col = 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the config to path in the format its extension names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("E106").WithDetail(path)
	}
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E101").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in empty values.
func (c *Config) applyDefaults() {
	defaults := New()
	if c.Client.Interval == "" {
		c.Client.Interval = defaults.Client.Interval
	}
	if c.Client.Transport == "" {
		c.Client.Transport = defaults.Client.Transport
	}
	c.Client.Transport = strings.ToLower(c.Client.Transport)
	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.ClientConfig(); err != nil {
		return err
	}
	switch c.Client.Transport {
	case TransportHTTP, TransportWebSocket:
	default:
		return errors.New("E104").
			WithDetail(fmt.Sprintf("Transport %q is not supported.", c.Client.Transport))
	}
	if _, err := c.ServerConfig(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", LogFormatText, LogFormatJSON:
	default:
		return errors.New("E107").WithDetail(fmt.Sprintf("Log format %q is not supported.", c.Log.Format))
	}
	return nil
}

// AutoRefreshEnabled reports the initial auto-refresh state.
func (c *ClientConfig) AutoRefreshEnabled() bool {
	return c.AutoRefresh == nil || *c.AutoRefresh
}

// ClientConfig converts the client section to a session config.
func (c *Config) ClientConfig() (*client.Config, error) {
	cfg := client.DefaultConfig()

	if c.Client.Interval != "" {
		d, err := parseDuration("client.interval", c.Client.Interval)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, errors.New("E103").
				WithDetail(fmt.Sprintf("client.interval is %s; it must be positive.", d))
		}
		cfg.PollInterval = d
	}

	var err error
	if cfg.RefreshTimeout, err = parseOptionalDuration("client.refreshTimeout", c.Client.RefreshTimeout); err != nil {
		return nil, err
	}
	if cfg.CommandTimeout, err = parseOptionalDuration("client.commandTimeout", c.Client.CommandTimeout); err != nil {
		return nil, err
	}

	cfg.AutoRefresh = c.Client.AutoRefreshEnabled()
	cfg.DiscardStale = c.Client.DiscardStale
	if c.Client.ValuePrefix != "" {
		cfg.ValuePrefix = c.Client.ValuePrefix
	}
	if c.Client.ErrorBox != "" {
		cfg.ErrorBoxID = c.Client.ErrorBox
	}
	if c.Client.MessageBox != "" {
		cfg.MessageBoxID = c.Client.MessageBox
	}
	return cfg, nil
}

// ServerConfig converts the server section to a server config.
func (c *Config) ServerConfig() (*server.Config, error) {
	cfg := server.DefaultConfig()

	if c.Server.Address != "" {
		cfg.Address = c.Server.Address
	}
	if c.Server.Title != "" {
		cfg.Title = c.Server.Title
	}
	if c.Server.RefreshPath != "" {
		cfg.RefreshPath = c.Server.RefreshPath
	}
	if c.Server.RPCPath != "" {
		cfg.RPCPath = c.Server.RPCPath
	}
	if c.Server.WebSocketPath != "" {
		cfg.WebSocketPath = c.Server.WebSocketPath
	}
	if c.Server.MetricsPath != "" {
		cfg.MetricsPath = c.Server.MetricsPath
	}
	if c.Server.MaxBodySize != 0 {
		cfg.MaxBodySize = c.Server.MaxBodySize
	}
	cfg.DisableMetrics = c.Server.DisableMetrics
	cfg.ScriptURL = c.Server.ScriptURL
	cfg.TrustProxyHeaders = c.Server.TrustProxyHeaders

	if c.Server.ShutdownTimeout != "" {
		d, err := parseDuration("server.shutdownTimeout", c.Server.ShutdownTimeout)
		if err != nil {
			return nil, err
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, errors.New("E105").Wrap(err)
	}
	return cfg, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.New("E102").
			WithDetail(fmt.Sprintf("%s is %q.", field, s)).
			Wrap(err)
	}
	return d, nil
}

func parseOptionalDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return parseDuration(field, s)
}

// Exists reports whether dir holds a config file.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// Find walks up from startDir to the first directory holding a config
// file and loads it.
func Find(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.New("E101").Wrap(err)
	}
	for {
		if Exists(dir) {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errors.New("E100").
				WithDetail(fmt.Sprintf("No config file in %s or any parent directory", startDir))
		}
		dir = parent
	}
}
