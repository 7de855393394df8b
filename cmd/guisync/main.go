package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/guisync/internal/config"
	"github.com/vango-dev/guisync/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command. Zero
// values leave the config file setting alone.
type globalOptions struct {
	configPath    string
	interval      time.Duration
	noAutoRefresh bool
	transport     string
	discardStale  bool
	logLevel      string
	logFormat     string
}

// app carries state resolved before a command runs.
type app struct {
	opts   globalOptions
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guisync",
		Short: "Polling state-sync client and reference server",
		Long: `guisync keeps a document in step with server-held state.

A client polls the server for the full list of element updates, writes
them into the document without disturbing the field being edited, and
sends commands (button presses, text entry) back to the server. Every
command is followed by an immediate refresh.

Commands:
  serve   run the reference server with a demo model
  watch   follow a server and print element changes
  call    press a button once
  set     send a text value once
  bench   load test a server with concurrent sessions`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.configPath, "config", "c", "", "Config file (default guisync.json or guisync.yaml in the working directory)")
	flags.DurationVar(&a.opts.interval, "interval", 0, "Poll interval (default 200ms)")
	flags.BoolVar(&a.opts.noAutoRefresh, "no-auto-refresh", false, "Start with timer refreshes disabled")
	flags.StringVar(&a.opts.transport, "transport", "", "Client transport: http or websocket")
	flags.BoolVar(&a.opts.discardStale, "discard-stale", false, "Drop refresh responses older than the newest applied one")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.opts.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		serveCmd(a),
		watchCmd(a),
		callCmd(a),
		setCmd(a),
		benchCmd(a),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the config file, applies flag overrides and builds the
// logger.
func (a *app) setup() error {
	cfg, err := a.opts.load()
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	slog.SetDefault(logger)
	if cfg.Path() != "" {
		logger.Debug("config loaded", "path", cfg.Path())
	}
	return nil
}

func (o *globalOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case o.configPath != "":
		cfg, err = config.LoadFile(o.configPath)
	case config.Exists("."):
		cfg, err = config.Load(".")
	default:
		cfg = config.New()
	}
	if err != nil {
		return nil, err
	}

	if o.interval != 0 {
		cfg.Client.Interval = o.interval.String()
	}
	if o.noAutoRefresh {
		off := false
		cfg.Client.AutoRefresh = &off
	}
	if o.transport != "" {
		cfg.Client.Transport = o.transport
	}
	if o.discardStale {
		cfg.Client.DiscardStale = true
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// success prints a success message.
func (a *app) success(format string, args ...any) {
	fmt.Fprintf(a.stdout, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func (a *app) info(format string, args ...any) {
	fmt.Fprintf(a.stdout, "  %s\n", fmt.Sprintf(format, args...))
}
