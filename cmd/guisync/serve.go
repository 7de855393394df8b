package main

import (
	"context"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/pkg/server"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr      string
		title     string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference server with a demo model",
		Long: `Run the reference server. The demo model has a counter with increment
and reset buttons, a settable name with a greeting, and a clock.

Endpoints:
  GET  /          page for browsers and the watch command
  POST /refresh/  full update list
  POST /rpc/      one command
  GET  /ws        WebSocket transport
  GET  /metrics   Prometheus metrics

Examples:
  guisync serve
  guisync serve --addr=127.0.0.1:9000 --title="Counter"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.cfg.ServerConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				sc.Address = addr
			}
			if title != "" {
				sc.Title = title
			}
			if noMetrics {
				sc.DisableMetrics = true
			}
			return runServe(cmd.Context(), a, sc)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default :8080)")
	cmd.Flags().StringVar(&title, "title", "", "Page title")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "Disable the metrics endpoint")

	return cmd
}

func runServe(ctx context.Context, a *app, sc *server.Config) error {
	srv := server.New(newDemoModel(time.Now), sc)
	srv.SetLogger(a.logger)

	ln, err := net.Listen("tcp", sc.Address)
	if err != nil {
		return errors.New("E501").WithDetail("address " + sc.Address).Wrap(err)
	}
	a.success("serving on http://%s", displayAddr(ln.Addr()))
	if !sc.DisableMetrics {
		a.info("metrics at %s", sc.MetricsPath)
	}
	return srv.Serve(ctx, ln)
}

// displayAddr turns a wildcard listen address into one a browser can open.
func displayAddr(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
