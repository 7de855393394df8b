// Package transport carries refresh and command requests between a guisync
// client and server.
//
// HTTP is the default and matches the classic endpoints (POST /refresh/,
// POST /rpc/). WebSocket keeps one connection open and multiplexes both
// request kinds over protocol.Frame messages; it is useful when the poll
// interval is short enough that per-request connection setup dominates.
//
// Both implementations are safe for concurrent use. Neither retries: a failed
// request is reported to the caller, and the next refresh or command is the
// recovery path.
package transport
