// Package client mirrors server-held model state into a document by polling,
// and pushes user actions back to the server as blocking commands.
//
// A Session owns four cooperating parts, all driven from one event loop:
//
//   - a focus tracker that remembers which element is being edited,
//   - a refresh scheduler that polls the server on a fixed interval,
//   - a reconciler that writes update records into the document,
//   - an RPC client that sends one command and then forces a refresh.
//
// # Threading
//
// Every state change runs on the session's Loop goroutine. Exported Session
// methods are safe to call from any goroutine; they enqueue work onto the
// loop and wait for it. Refresh network I/O runs on its own goroutine and
// posts its completion back to the loop, so updates are reconciled in
// completion order. A command send runs on the loop itself and blocks it,
// which guarantees the follow-up refresh is issued after the command.
//
// # Example
//
//	doc := dom.NewMemory()
//	doc.Add("span", "label1")
//
//	tr, _ := transport.NewHTTP("http://localhost:8080")
//	s := client.New(doc, tr, client.DefaultConfig())
//	s.Start()
//	defer s.Close()
//
//	_ = s.Call(ctx, "increment")
package client
