// Package protocol defines the wire format shared by the guisync client and
// server.
//
// The protocol is plain JSON over HTTP. Two messages exist:
//
//   - UpdateRecord: server → client. A refresh returns the full, ordered list
//     of records, one per synchronized element.
//   - CommandRequest: client → server. One per user action.
//
// # Endpoints
//
//	POST /refresh/   empty body        → 200, [{"ID":"x","HTML":"..."}, ...]
//	POST /rpc/       {"ID","Method","Arg"} → 2xx (body ignored)
//
// # WebSocket framing
//
// The optional WebSocket transport carries the same two messages inside a
// Frame envelope with an op code and a sequence number used to match replies:
//
//	{"op":"refresh","seq":7}
//	{"op":"updates","seq":7,"updates":[...]}
//	{"op":"rpc","seq":8,"command":{"ID":"btn","Method":"call","Arg":""}}
//	{"op":"ack","seq":8}
//	{"op":"error","seq":8,"error":"unknown element"}
//
// Field names are part of the contract: the browser client and any existing
// server read them verbatim, so the JSON tags must not change.
package protocol
