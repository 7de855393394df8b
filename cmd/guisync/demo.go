package main

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/vango-dev/guisync/pkg/server"
)

// newDemoModel builds the model served by "guisync serve": a counter with
// increment and reset buttons, a settable name with a greeting, and a
// clock. Bindings serializes every render and handler, so the closures
// share state without their own lock.
func newDemoModel(now func() time.Time) *server.Bindings {
	var (
		count int
		name  = "world"
	)

	m := server.NewBindings()
	m.Bind("count", func() string { return strconv.Itoa(count) })
	m.Bind("inc", func() string { return "Increment" }).
		OnCall(func(context.Context) error {
			count++
			return nil
		})
	m.Bind("reset", func() string { return "Reset" }).
		OnCall(func(context.Context) error {
			count = 0
			return nil
		})
	m.Bind("name", func() string { return html.EscapeString(name) }).
		OnSet(func(_ context.Context, v string) error {
			if len(v) > 64 {
				return fmt.Errorf("name is %d bytes, limit 64", len(v))
			}
			name = v
			return nil
		})
	m.Bind("greeting", func() string {
		return "Hello, <b>" + html.EscapeString(name) + "</b>!"
	})
	m.Bind("clock", func() string { return now().Format(time.TimeOnly) })
	return m
}
