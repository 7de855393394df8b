package client

import "time"

// Default configuration values.
const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultValuePrefix  = "guielem_"
	DefaultErrorBoxID   = "ErrorBox"
	DefaultMessageBoxID = "MsgBox"
	DefaultQueueSize    = 256
)

// Config holds session configuration.
type Config struct {
	// PollInterval is the refresh timer period. Fixed for the session's life.
	// Default: 200ms.
	PollInterval time.Duration

	// AutoRefresh is the initial state of the auto-refresh toggle. Only
	// timer ticks are gated by it; the refresh after a command always runs.
	// Default: true.
	AutoRefresh bool

	// RefreshTimeout bounds each refresh request.
	// Default: 0, meaning PollInterval.
	RefreshTimeout time.Duration

	// CommandTimeout bounds each command send on top of the caller's context.
	// Default: 0 (no extra bound).
	CommandTimeout time.Duration

	// ValuePrefix is prepended to a model id to find the input whose value
	// SetText sends. Default: "guielem_".
	ValuePrefix string

	// ErrorBoxID is the element that displays connection and protocol errors.
	// Default: "ErrorBox".
	ErrorBoxID string

	// MessageBoxID is the element that displays debug messages.
	// Default: "MsgBox".
	MessageBoxID string

	// DiscardStale drops a refresh completion that arrives after a newer
	// request has already completed. Default: false (last completion wins).
	DiscardStale bool

	// QueueSize is the capacity of the loop's dispatch queue.
	// Default: 256.
	QueueSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: DefaultPollInterval,
		AutoRefresh:  true,
		ValuePrefix:  DefaultValuePrefix,
		ErrorBoxID:   DefaultErrorBoxID,
		MessageBoxID: DefaultMessageBoxID,
		QueueSize:    DefaultQueueSize,
	}
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	clone := *c
	return &clone
}

// withDefaults fills zero fields. AutoRefresh and DiscardStale are taken
// as given.
func (c *Config) withDefaults() *Config {
	out := c.Clone()
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.RefreshTimeout <= 0 {
		out.RefreshTimeout = out.PollInterval
	}
	if out.CommandTimeout < 0 {
		out.CommandTimeout = 0
	}
	if out.ValuePrefix == "" {
		out.ValuePrefix = DefaultValuePrefix
	}
	if out.ErrorBoxID == "" {
		out.ErrorBoxID = DefaultErrorBoxID
	}
	if out.MessageBoxID == "" {
		out.MessageBoxID = DefaultMessageBoxID
	}
	if out.QueueSize <= 0 {
		out.QueueSize = DefaultQueueSize
	}
	return out
}
