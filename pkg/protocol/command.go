package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Command methods understood by the reference server.
const (
	// MethodCall invokes the element's action (buttons).
	MethodCall = "call"

	// MethodSet commits a new value (text fields); Arg holds the value.
	MethodSet = "set"
)

// ErrEmptyCommandID is returned when a command does not name an element.
var ErrEmptyCommandID = errors.New("protocol: command has no element id")

// CommandRequest asks the server to run Method on the model element ID.
type CommandRequest struct {
	ID     string `json:"ID"`
	Method string `json:"Method"`
	Arg    string `json:"Arg"`
}

// NewCall returns a zero-argument "call" command for id.
func NewCall(id string) CommandRequest {
	return CommandRequest{ID: id, Method: MethodCall}
}

// NewSet returns a "set" command carrying value.
func NewSet(id, value string) CommandRequest {
	return CommandRequest{ID: id, Method: MethodSet, Arg: value}
}

// Validate checks the fields the server needs to route the command.
func (c CommandRequest) Validate() error {
	if c.ID == "" {
		return ErrEmptyCommandID
	}
	if c.Method == "" {
		return ErrEmptyMethod
	}
	return nil
}

// EncodeCommand serializes a command for POST /rpc/.
func EncodeCommand(c CommandRequest) ([]byte, error) {
	return json.Marshal(c)
}

// DecodeCommand parses a command body.
func DecodeCommand(data []byte) (CommandRequest, error) {
	return ReadCommand(bytes.NewReader(data), DefaultLimits())
}

// ReadCommand decodes one command from r, enforcing limits.
func ReadCommand(r io.Reader, limits *Limits) (CommandRequest, error) {
	data, err := readBody(r, limits)
	if err != nil {
		return CommandRequest{}, err
	}
	var c CommandRequest
	if err := json.Unmarshal(data, &c); err != nil {
		return CommandRequest{}, malformed("command", err)
	}
	return c, nil
}
