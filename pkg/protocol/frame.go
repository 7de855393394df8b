package protocol

import (
	"encoding/json"
	"fmt"
)

// Op identifies the kind of a WebSocket frame.
type Op string

const (
	OpRefresh Op = "refresh" // Client → Server: request the update list
	OpUpdates Op = "updates" // Server → Client: the update list
	OpRPC     Op = "rpc"     // Client → Server: run a command
	OpAck     Op = "ack"     // Server → Client: command succeeded
	OpError   Op = "error"   // Server → Client: request failed
)

// Valid reports whether op is one of the defined ops.
func (op Op) Valid() bool {
	switch op {
	case OpRefresh, OpUpdates, OpRPC, OpAck, OpError:
		return true
	default:
		return false
	}
}

// Frame is the envelope used on the WebSocket transport.
// Seq is chosen by the client and echoed by the server.
type Frame struct {
	Op      Op              `json:"op"`
	Seq     uint64          `json:"seq"`
	Command *CommandRequest `json:"command,omitempty"`
	Updates []UpdateRecord  `json:"updates,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// EncodeFrame serializes a frame.
func EncodeFrame(f *Frame) ([]byte, error) {
	if !f.Op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, f.Op)
	}
	return json.Marshal(f)
}

// DecodeFrame parses a frame and checks its op.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, malformed("frame", err)
	}
	if !f.Op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, f.Op)
	}
	if f.Op == OpRPC && f.Command == nil {
		return nil, malformed("frame", fmt.Errorf("rpc frame without command"))
	}
	return &f, nil
}
