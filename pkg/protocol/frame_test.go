package protocol

import (
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	cmd := NewSet("name", "bob")
	in := &Frame{Op: OpRPC, Seq: 9, Command: &cmd}

	data, err := EncodeFrame(in)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	out, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if out.Op != OpRPC || out.Seq != 9 || out.Command == nil || *out.Command != cmd {
		t.Errorf("DecodeFrame() = %+v", out)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	if _, err := DecodeFrame([]byte(`{"op":"bogus"}`)); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("unknown op: err = %v, want ErrUnknownOp", err)
	}
	if _, err := DecodeFrame([]byte(`{"op":"rpc","seq":1}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("rpc without command: err = %v, want ErrMalformed", err)
	}
	if _, err := DecodeFrame([]byte(`not json`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("garbage: err = %v, want ErrMalformed", err)
	}
}

func TestEncodeFrameRejectsUnknownOp(t *testing.T) {
	if _, err := EncodeFrame(&Frame{Op: "nope"}); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("err = %v, want ErrUnknownOp", err)
	}
}
