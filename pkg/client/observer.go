package client

import (
	"time"

	"github.com/vango-dev/guisync/pkg/protocol"
)

// Cycle describes one completed refresh.
type Cycle struct {
	Seq      uint64        // Request sequence number
	Forced   bool          // Issued after a command rather than by the timer
	Updates  int           // Records received
	Applied  int           // Records written before any failure
	Stale    bool          // Dropped because a newer refresh already completed
	Err      error         // Transport, protocol or target error
	Duration time.Duration // Request start to completion handling
}

// CommandResult describes one completed command send.
type CommandResult struct {
	Command  protocol.CommandRequest
	Err      error
	Duration time.Duration
}

// Observer receives session events. Callbacks run on the loop and must not
// block or call back into the session.
type Observer interface {
	OnRefresh(Cycle)
	OnCommand(CommandResult)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Refresh func(Cycle)
	Command func(CommandResult)
}

// OnRefresh implements Observer.
func (o ObserverFuncs) OnRefresh(c Cycle) {
	if o.Refresh != nil {
		o.Refresh(c)
	}
}

// OnCommand implements Observer.
func (o ObserverFuncs) OnCommand(r CommandResult) {
	if o.Command != nil {
		o.Command(r)
	}
}

type nopObserver struct{}

func (nopObserver) OnRefresh(Cycle)         {}
func (nopObserver) OnCommand(CommandResult) {}

// multiObserver fans events out in order.
type multiObserver []Observer

func (m multiObserver) OnRefresh(c Cycle) {
	for _, o := range m {
		o.OnRefresh(c)
	}
}

func (m multiObserver) OnCommand(r CommandResult) {
	for _, o := range m {
		o.OnCommand(r)
	}
}
