// Package server is the reference guisync server.
//
// A Server exposes a Model over three endpoints:
//
//	POST /refresh/  empty body -> 200 + JSON [{"ID":..,"HTML":..}, ...]
//	POST /rpc/      {"ID":..,"Method":..,"Arg":..} -> status only
//	GET  /ws        the same two requests as JSON frames
//
// plus a default HTML page at "/" and Prometheus metrics at "/metrics".
//
// Bindings is a ready-made Model: each element is a render function, with
// optional handlers for "call" and "set" commands.
//
//	m := server.NewBindings()
//	n := 0
//	m.Bind("count", func() string { return strconv.Itoa(n) })
//	m.Bind("inc", func() string { return "+1" }).OnCall(func(context.Context) error {
//	    n++
//	    return nil
//	})
//
//	s := server.New(m, nil)
//	log.Fatal(s.Run())
//
// Command errors map to statuses: an unknown element is 404, an unknown
// method or malformed body 400, a handler error 500.
package server
