package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/protocol"
)

// defaultCommandWait bounds the wait for the refresh that follows a
// command when no command timeout is configured.
const defaultCommandWait = 10 * time.Second

func callCmd(a *app) *cobra.Command {
	var method, arg string

	cmd := &cobra.Command{
		Use:   "call <url> <id>",
		Short: "Send one command and print the refreshed document",
		Long: `Send one command to the element id, wait for the refresh that follows
it and print the document.

Examples:
  guisync call http://localhost:8080 inc
  guisync call http://localhost:8080 name --method=set --arg=Ada`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), a, args[0], func(ctx context.Context, r *remote) error {
				return r.session.RPC(ctx, args[1], method, arg)
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", protocol.MethodCall, "Command method")
	cmd.Flags().StringVar(&arg, "arg", "", "Command argument")

	return cmd
}

func setCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <url> <id> <value>",
		Short: "Type a value into an element's field and send it",
		Long: `Write value into the page field that belongs to element id (the input
named by the value prefix, "guielem_<id>" by default), send it with a set
command and print the refreshed document.

Examples:
  guisync set http://localhost:8080 name "Ada Lovelace"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, value := args[1], args[2]
			return runCommand(cmd.Context(), a, args[0], func(ctx context.Context, r *remote) error {
				typeInto(r.doc, r.session.Config().ValuePrefix+id, value)
				return r.session.SetText(ctx, id)
			})
		},
	}
	return cmd
}

// typeInto sets the value of a field if the document has one.
func typeInto(doc *dom.Memory, id, value string) {
	el, ok := doc.ElementByID(id)
	if !ok {
		return
	}
	if v, ok := dom.AsValue(el); ok {
		v.SetValue(value)
	}
}

// runCommand starts a session with the timer off, runs send and waits for
// the forced refresh it triggers before printing the document.
func runCommand(ctx context.Context, a *app, baseURL string, send func(context.Context, *remote) error) error {
	cfg, err := a.cfg.ClientConfig()
	if err != nil {
		return err
	}
	cfg.AutoRefresh = false

	cycles := make(chan client.Cycle, 1)
	obs := client.ObserverFuncs{
		Refresh: func(c client.Cycle) {
			if !c.Forced {
				return
			}
			select {
			case cycles <- c:
			default:
			}
		},
	}

	r, err := a.connect(ctx, baseURL, cfg, client.WithObserver(obs))
	if err != nil {
		return err
	}
	defer r.Close()
	r.session.Start()

	if err := send(ctx, r); err != nil {
		return err
	}

	wait := cfg.CommandTimeout + cfg.RefreshTimeout
	if cfg.CommandTimeout == 0 {
		wait = defaultCommandWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case c := <-cycles:
		if c.Err != nil {
			return c.Err
		}
	case <-timer.C:
		return errors.New("E200").WithDetail("No refresh completed after the command.")
	case <-ctx.Done():
		return ctx.Err()
	}

	newRenderer().printDocument(a.stdout, r.doc)
	return nil
}
