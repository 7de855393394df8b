package protocol

import (
	"errors"
	"testing"
)

func TestEncodeCommand(t *testing.T) {
	data, err := EncodeCommand(NewSet("field1", "hello"))
	if err != nil {
		t.Fatalf("EncodeCommand() error = %v", err)
	}
	if want := `{"ID":"field1","Method":"set","Arg":"hello"}`; string(data) != want {
		t.Errorf("EncodeCommand() = %s, want %s", data, want)
	}
}

func TestNewCall(t *testing.T) {
	c := NewCall("btn1")
	if c.Method != MethodCall || c.ID != "btn1" || c.Arg != "" {
		t.Errorf("NewCall() = %+v", c)
	}
}

func TestDecodeCommand(t *testing.T) {
	c, err := DecodeCommand([]byte(`{"ID":"btn1","Method":"call"}`))
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	if c != NewCall("btn1") {
		t.Errorf("DecodeCommand() = %+v", c)
	}

	if _, err := DecodeCommand([]byte(`{"ID":`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name string
		cmd  CommandRequest
		want error
	}{
		{"ok", NewCall("a"), nil},
		{"no_id", CommandRequest{Method: MethodCall}, ErrEmptyCommandID},
		{"no_method", CommandRequest{ID: "a"}, ErrEmptyMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
