//go:build js && wasm

// Command guisync-wasm runs the client in a browser page served by the
// reference server. Build it with GOOS=js GOARCH=wasm and load it next to
// wasm_exec.js; the page calls the functions it exports.
package main

import (
	"context"
	"log/slog"
	"syscall/js"

	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/transport"
)

const autoRefreshID = "AutoRefresh"

func main() {
	logger := slog.Default().With("component", "wasm")

	doc := dom.NewBrowser()
	origin := js.Global().Get("location").Get("origin").String()
	t, err := transport.NewHTTP(origin, transport.WithLogger(logger))
	if err != nil {
		logger.Error("transport", "error", err)
		return
	}

	cfg := client.DefaultConfig()
	// A page without the checkbox polls, as the default config does.
	cfg.AutoRefresh = dom.CheckedOr(doc, autoRefreshID, cfg.AutoRefresh)
	s := client.New(doc, t, cfg, client.WithLogger(logger))

	// JS callbacks run on the event loop goroutine and must not wait on
	// the session, since a command in flight holds it until the network
	// answers. Page events are queued in order to one worker instead.
	events := make(chan func() error, 256)
	go func() {
		for fn := range events {
			if err := fn(); err != nil {
				logger.Warn("page event failed", "error", err)
			}
		}
	}()
	enqueue := func(fn func() error) {
		select {
		case events <- fn:
		default:
			logger.Warn("page event dropped: queue full")
		}
	}
	ctx := context.Background()

	export("notifyfocus", func(args []js.Value) {
		id := stringArg(args, 0)
		enqueue(func() error { return s.NotifyFocus(id) })
	})
	export("notifyblur", func(args []js.Value) {
		id := stringArg(args, 0)
		enqueue(func() error { return s.NotifyBlur(id) })
	})
	export("call", func(args []js.Value) {
		id := stringArg(args, 0)
		enqueue(func() error { return s.Call(ctx, id) })
	})
	export("settext", func(args []js.Value) {
		id := stringArg(args, 0)
		enqueue(func() error { return s.SetText(ctx, id) })
	})
	export("rpc", func(args []js.Value) {
		id, method, arg := stringArg(args, 0), stringArg(args, 1), stringArg(args, 2)
		enqueue(func() error { return s.RPC(ctx, id, method, arg) })
	})
	export("setautorefresh", func([]js.Value) {
		on := dom.CheckedOr(doc, autoRefreshID, true)
		enqueue(func() error { return s.SetAutoRefresh(on) })
	})
	export("debugmsg", func(args []js.Value) {
		msg := stringArg(args, 0)
		enqueue(func() error { return s.Message(msg) })
	})

	s.Start()
	select {}
}

// export registers fn as a global function. Its return value is always
// undefined.
func export(name string, fn func(args []js.Value)) {
	js.Global().Set(name, js.FuncOf(func(this js.Value, args []js.Value) any {
		fn(args)
		return nil
	}))
}

func stringArg(args []js.Value, i int) string {
	if i >= len(args) || args[i].IsUndefined() || args[i].IsNull() {
		return ""
	}
	return args[i].String()
}
