package client

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/guisync/pkg/protocol"
	"github.com/vango-dev/guisync/pkg/transport"
)

// refreshResult is a finished refresh request, handed to the loop.
type refreshResult struct {
	seq     uint64
	forced  bool
	stale   bool
	updates []protocol.UpdateRecord
	err     error
	started time.Time
}

// Scheduler issues refresh requests on a timer and on demand.
//
// Tick, Refresh and SetEnabled must run on the loop. Requests run on their
// own goroutines; their results are posted back to the loop in completion
// order. In-flight requests are never deduplicated or cancelled by newer
// ones.
type Scheduler struct {
	transport    transport.Transport
	loop         *Loop
	interval     time.Duration
	timeout      time.Duration
	discardStale bool
	complete     func(refreshResult)
	logger       *slog.Logger

	// loop-owned
	enabled   bool
	seq       uint64
	completed uint64

	ctx         context.Context
	cancel      context.CancelFunc
	tickPending atomic.Bool
	inflight    sync.WaitGroup
	stop        chan struct{}
	startOnce   sync.Once
	stopOnce    sync.Once
}

func newScheduler(t transport.Transport, loop *Loop, cfg *Config, complete func(refreshResult), logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		transport:    t,
		loop:         loop,
		interval:     cfg.PollInterval,
		timeout:      cfg.RefreshTimeout,
		discardStale: cfg.DiscardStale,
		complete:     complete,
		logger:       logger,
		enabled:      cfg.AutoRefresh,
		ctx:          ctx,
		cancel:       cancel,
		stop:         make(chan struct{}),
	}
}

// Tick issues a refresh if auto-refresh is enabled.
func (s *Scheduler) Tick() {
	if !s.enabled {
		return
	}
	s.issue(false)
}

// Refresh issues a refresh regardless of the auto-refresh toggle.
func (s *Scheduler) Refresh() {
	s.issue(true)
}

// SetEnabled sets the auto-refresh toggle. Requests already in flight are
// not affected.
func (s *Scheduler) SetEnabled(on bool) {
	s.enabled = on
}

// Enabled reports the auto-refresh toggle.
func (s *Scheduler) Enabled() bool {
	return s.enabled
}

// Interval returns the timer period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) issue(forced bool) {
	s.seq++
	seq := s.seq
	started := time.Now()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		updates, err := s.transport.Refresh(ctx)
		cancel()

		res := refreshResult{
			seq:     seq,
			forced:  forced,
			updates: updates,
			err:     err,
			started: started,
		}
		if !s.loop.Dispatch(func() { s.finish(res) }) {
			s.logger.Debug("refresh completed after close", "seq", seq)
		}
	}()
}

// finish runs on the loop. Only a successful completion advances the
// last applied sequence number.
func (s *Scheduler) finish(res refreshResult) {
	if s.discardStale && res.seq < s.completed {
		res.stale = true
	} else if res.err == nil && res.seq > s.completed {
		s.completed = res.seq
	}
	s.complete(res)
}

// start launches the timer. Each period posts one Tick to the loop; a tick
// still waiting in the queue absorbs later periods.
func (s *Scheduler) start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.tickPending.CompareAndSwap(false, true) {
				continue
			}
			queued := s.loop.Dispatch(func() {
				s.tickPending.Store(false)
				s.Tick()
			})
			if !queued {
				return
			}
		case <-s.stop:
			return
		}
	}
}

// shutdown stops the timer and cancels in-flight requests.
func (s *Scheduler) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.cancel()
	})
}

// wait blocks until every request goroutine has returned.
func (s *Scheduler) wait() {
	s.inflight.Wait()
}
