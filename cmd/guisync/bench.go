package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/internal/report"
	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/server"
)

type benchConfig struct {
	URL      string
	Clients  int
	Duration time.Duration
	Rate     float64 // commands per second per client
	Elements int
	Target   string
	JSON     string

	transport string
}

// benchStats collects samples from every session's observer.
type benchStats struct {
	mu       sync.Mutex
	refresh  []time.Duration
	commands []time.Duration

	cycles        atomic.Uint64
	stale         atomic.Uint64
	updates       atomic.Uint64
	refreshErrors atomic.Uint64
	commandErrors atomic.Uint64
	connectErrors atomic.Uint64
}

func (s *benchStats) OnRefresh(c client.Cycle) {
	s.cycles.Add(1)
	switch {
	case c.Stale:
		s.stale.Add(1)
		return
	case c.Err != nil:
		s.refreshErrors.Add(1)
	}
	s.updates.Add(uint64(c.Applied))
	s.mu.Lock()
	s.refresh = append(s.refresh, c.Duration)
	s.mu.Unlock()
}

func (s *benchStats) OnCommand(r client.CommandResult) {
	if r.Err != nil {
		s.commandErrors.Add(1)
		return
	}
	s.mu.Lock()
	s.commands = append(s.commands, r.Duration)
	s.mu.Unlock()
}

func benchCmd(a *app) *cobra.Command {
	var cfg benchConfig

	cmd := &cobra.Command{
		Use:   "bench [url]",
		Short: "Load test a server with concurrent sessions",
		Long: `Run many client sessions against one server for a fixed time and
report refresh and command latency. Without a URL an in-process server with
a generated model is started.

Examples:
  guisync bench --clients=200 --duration=30s
  guisync bench http://localhost:8080 --target=inc --rate=2 --json=report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cfg.URL = args[0]
			}
			if cfg.Clients < 1 {
				return errors.New("E500").WithDetail("--clients must be at least 1")
			}
			if cfg.Duration <= 0 {
				return errors.New("E500").WithDetail("--duration must be positive")
			}
			return runBench(cmd.Context(), a, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.Clients, "clients", 50, "Concurrent sessions")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "Run time")
	cmd.Flags().Float64Var(&cfg.Rate, "rate", 1, "Commands per second per session (0 for polling only)")
	cmd.Flags().IntVar(&cfg.Elements, "elements", 20, "Elements in the in-process model")
	cmd.Flags().StringVar(&cfg.Target, "target", "bump", "Element id to call")
	cmd.Flags().StringVar(&cfg.JSON, "json", "", "Write a JSON report to a path, an s3:// URL, or - for stdout")

	return cmd
}

func runBench(ctx context.Context, a *app, cfg benchConfig) error {
	sessionCfg, err := a.cfg.ClientConfig()
	if err != nil {
		return err
	}

	if cfg.URL == "" {
		url, stop, err := startBenchServer(ctx, a, cfg.Elements)
		if err != nil {
			return err
		}
		defer stop()
		cfg.URL = url
	}

	cfg.transport = a.cfg.Client.Transport

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var stats benchStats
	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		go func() {
			defer wg.Done()
			if err := runBenchClient(runCtx, a, cfg, sessionCfg, &stats); err != nil {
				stats.connectErrors.Add(1)
				a.logger.Debug("bench client failed", "error", err)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	rep := buildBenchReport(cfg, sessionCfg, elapsed, &stats, before, after)
	writeBenchSummary(a.stdout, rep)
	if cfg.JSON != "" {
		return writeBenchJSON(ctx, a, cfg.JSON, rep)
	}
	return nil
}

// runBenchClient runs one session until ctx is done, calling the target
// element at the configured rate.
func runBenchClient(ctx context.Context, a *app, cfg benchConfig, sessionCfg *client.Config, stats *benchStats) error {
	r, err := a.connect(ctx, cfg.URL, sessionCfg.Clone(), client.WithObserver(stats))
	if err != nil {
		return err
	}
	defer r.Close()
	r.session.Start()

	if cfg.Rate <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.Rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// Send failures are counted by the observer.
			if err := r.session.Call(ctx, cfg.Target); stderrors.Is(err, client.ErrSessionClosed) {
				return err
			}
		}
	}
}

// startBenchServer serves a generated model on a loopback port.
func startBenchServer(ctx context.Context, a *app, elements int) (url string, stop func(), err error) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return "", nil, errors.New("E501").Wrap(err)
	}

	sc := server.DefaultConfig()
	sc.DisableMetrics = true
	srv := server.New(newBenchModel(elements), sc)
	srv.SetLogger(a.logger)

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx, ln); err != nil {
			a.logger.Warn("bench server stopped", "error", err)
		}
	}()
	return "http://" + ln.Addr().String(), func() {
		cancel()
		<-done
	}, nil
}

// newBenchModel has n counters and a "bump" button that increments all of
// them, so every refresh after a command carries n changed records.
func newBenchModel(n int) *server.Bindings {
	counts := make([]int, n)
	m := server.NewBindings()
	for i := range counts {
		m.Bind("item"+strconv.Itoa(i), func() string {
			return "<span class=\"count\">" + strconv.Itoa(counts[i]) + "</span>"
		})
	}
	m.Bind("bump", func() string { return "Bump" }).
		OnCall(func(context.Context) error {
			for i := range counts {
				counts[i]++
			}
			return nil
		})
	return m
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version   string       `json:"version"`
	Workload  workloadInfo `json:"workload"`
	RefreshMS latencyInfo  `json:"refresh_ms"`
	CommandMS latencyInfo  `json:"command_ms"`
	Counts    countInfo    `json:"counts"`
	GC        gcInfo       `json:"gc"`
}

type workloadInfo struct {
	URL           string  `json:"url"`
	Clients       int     `json:"clients"`
	DurationMS    int64   `json:"duration_ms"`
	IntervalMS    float64 `json:"interval_ms"`
	RatePerClient float64 `json:"commands_per_second_per_client"`
	Transport     string  `json:"transport"`
}

type latencyInfo struct {
	Samples int     `json:"samples"`
	Min     float64 `json:"min"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Max     float64 `json:"max"`
}

type countInfo struct {
	Cycles         uint64  `json:"cycles"`
	CyclesPerSec   float64 `json:"cycles_per_sec"`
	Stale          uint64  `json:"stale"`
	UpdatesApplied uint64  `json:"updates_applied"`
	RefreshErrors  uint64  `json:"refresh_errors"`
	CommandErrors  uint64  `json:"command_errors"`
	ConnectErrors  uint64  `json:"connect_errors"`
}

type gcInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	NumGC        uint32  `json:"num_gc"`
	PauseTotalMS float64 `json:"pause_total_ms"`
}

func latencies(samples []time.Duration) latencyInfo {
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return latencyInfo{
		Samples: len(sorted),
		Min:     ms(percentile(sorted, 0)),
		P50:     ms(percentile(sorted, 0.50)),
		P95:     ms(percentile(sorted, 0.95)),
		P99:     ms(percentile(sorted, 0.99)),
		Max:     ms(percentile(sorted, 1)),
	}
}

func buildBenchReport(cfg benchConfig, sessionCfg *client.Config, elapsed time.Duration, stats *benchStats, before, after runtime.MemStats) benchReport {
	stats.mu.Lock()
	refresh := latencies(stats.refresh)
	commands := latencies(stats.commands)
	stats.mu.Unlock()

	cycles := stats.cycles.Load()
	var perSec float64
	if elapsed > 0 {
		perSec = float64(cycles) / elapsed.Seconds()
	}

	return benchReport{
		Version: version,
		Workload: workloadInfo{
			URL:           cfg.URL,
			Clients:       cfg.Clients,
			DurationMS:    cfg.Duration.Milliseconds(),
			IntervalMS:    ms(sessionCfg.PollInterval),
			RatePerClient: cfg.Rate,
			Transport:     cfg.transport,
		},
		RefreshMS: refresh,
		CommandMS: commands,
		Counts: countInfo{
			Cycles:         cycles,
			CyclesPerSec:   perSec,
			Stale:          stats.stale.Load(),
			UpdatesApplied: stats.updates.Load(),
			RefreshErrors:  stats.refreshErrors.Load(),
			CommandErrors:  stats.commandErrors.Load(),
			ConnectErrors:  stats.connectErrors.Load(),
		},
		GC: gcInfo{
			AllocMB:      float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			NumGC:        after.NumGC - before.NumGC,
			PauseTotalMS: float64(after.PauseTotalNs-before.PauseTotalNs) / float64(time.Millisecond),
		},
	}
}

func writeBenchSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== guisync bench ===")
	fmt.Fprintf(w, "Target:   %s\n", report.Workload.URL)
	fmt.Fprintf(w, "Clients:  %d\n", report.Workload.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Interval: %.0f ms, %.2f commands/s per client\n", report.Workload.IntervalMS, report.Workload.RatePerClient)
	fmt.Fprintln(w)

	c := report.Counts
	fmt.Fprintf(w, "Refresh cycles: %d (%.1f/s), stale %d\n", c.Cycles, c.CyclesPerSec, c.Stale)
	fmt.Fprintf(w, "Updates applied: %d\n", c.UpdatesApplied)
	fmt.Fprintf(w, "Errors: refresh %d, command %d, connect %d\n", c.RefreshErrors, c.CommandErrors, c.ConnectErrors)
	fmt.Fprintln(w)

	writeLatency(w, "Refresh (request -> reconciled)", report.RefreshMS)
	writeLatency(w, "Command (send -> accepted)", report.CommandMS)

	fmt.Fprintln(w, "Go runtime:")
	fmt.Fprintf(w, "  alloc:    %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  num_gc:   %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause: %.2f ms (total)\n", report.GC.PauseTotalMS)
}

func writeLatency(w io.Writer, title string, l latencyInfo) {
	if l.Samples == 0 {
		fmt.Fprintf(w, "%s: no samples\n\n", title)
		return
	}
	fmt.Fprintf(w, "%s, %d samples:\n", title, l.Samples)
	fmt.Fprintf(w, "  min: %.2f ms\n", l.Min)
	fmt.Fprintf(w, "  p50: %.2f ms\n", l.P50)
	fmt.Fprintf(w, "  p95: %.2f ms\n", l.P95)
	fmt.Fprintf(w, "  p99: %.2f ms\n", l.P99)
	fmt.Fprintf(w, "  max: %.2f ms\n", l.Max)
	fmt.Fprintln(w)
}

func writeBenchJSON(ctx context.Context, a *app, dest string, rep benchReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if dest == "-" {
		_, err := a.stdout.Write(data)
		return err
	}

	loc, err := report.Write(ctx, dest, data)
	if err != nil {
		return errors.New("E502").WithDetail(dest).Wrap(err)
	}
	a.success("report written to %s", loc)
	return nil
}
