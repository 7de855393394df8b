package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/middleware"
)

func watchCmd(a *app) *cobra.Command {
	var (
		sanitize    bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch [url]",
		Short: "Follow a server and print element changes",
		Long: `Load the server page, then poll the server and print every element
whose content or value changes. Element markup is shown as text.

Examples:
  guisync watch http://localhost:8080
  guisync watch http://localhost:8080 --interval=1s --transport=websocket
  guisync watch --metrics-addr=:9100`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, err := a.baseURL(args)
			if err != nil {
				return err
			}
			if sanitize {
				a.cfg.Client.Sanitize = true
			}
			return runWatch(cmd.Context(), a, baseURL, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "Sanitize element markup before applying it")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve client metrics on this address")

	return cmd
}

func runWatch(ctx context.Context, a *app, baseURL, metricsAddr string) error {
	cfg, err := a.cfg.ClientConfig()
	if err != nil {
		return err
	}

	var opts []client.Option
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, client.WithObserver(middleware.NewClientMetrics(middleware.WithRegistry(reg))))
		stop, err := serveMetrics(metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
		a.logger.Info("serving client metrics", "address", metricsAddr)
	}

	r, err := a.connect(ctx, baseURL, cfg, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	out := newRenderer()
	out.printDocument(a.stdout, r.doc)
	r.doc.OnChange(func(c dom.Change) {
		if c.ID == cfg.ErrorBoxID && c.New == "" {
			fmt.Fprintln(a.stdout, "reconnected")
			return
		}
		out.printChange(a.stdout, c)
	})

	a.success("watching %s every %s", baseURL, cfg.PollInterval)
	return r.session.Run(ctx)
}

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.New("E501").WithDetail("metrics address " + addr).Wrap(err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}
