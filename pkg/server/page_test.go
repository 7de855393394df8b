package server

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/protocol"
)

// staticModel implements Model without Describer.
type staticModel []protocol.UpdateRecord

func (m staticModel) Updates(context.Context) ([]protocol.UpdateRecord, error) {
	return m, nil
}

func (m staticModel) Handle(context.Context, protocol.CommandRequest) error {
	return ErrUnknownMethod
}

func TestRenderPagePlainModel(t *testing.T) {
	var buf bytes.Buffer
	model := staticModel{{ID: "a", HTML: "<b>x</b>"}}
	if err := RenderPage(context.Background(), &buf, model, "T", "/client.js"); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	page := buf.String()
	if !strings.Contains(page, `<span id="a"><b>x</b></span>`) {
		t.Errorf("content should be inserted as markup:\n%s", page)
	}
	if !strings.Contains(page, `<script src="/client.js"></script>`) {
		t.Error("script tag missing")
	}
}

func TestRenderPageParses(t *testing.T) {
	m, _ := counterModel()
	var buf bytes.Buffer
	if err := RenderPage(context.Background(), &buf, m, "demo", ""); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	doc, err := dom.ParseHTML(&buf)
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	for _, id := range []string{"count", "inc", "name", "guielem_name", "ErrorBox", "MsgBox", "AutoRefresh"} {
		if _, ok := doc.ElementByID(id); !ok {
			t.Errorf("element %q missing from page", id)
		}
	}
	el, _ := doc.ElementByID("guielem_name")
	if _, ok := dom.AsValue(el); !ok {
		t.Error("guielem_name should be a value element")
	}
}

func TestRenderPageButtonLabelIsValue(t *testing.T) {
	m := NewBindings()
	label := "<b>Go</b>"
	m.Bind("go", func() string { return label }).OnCall(func(context.Context) error { return nil })

	var buf bytes.Buffer
	if err := RenderPage(context.Background(), &buf, m, "demo", ""); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	doc, err := dom.ParseHTML(&buf)
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}

	el, ok := doc.ElementByID("go")
	if !ok {
		t.Fatal("button missing from page")
	}
	v, ok := dom.AsValue(el)
	if !ok {
		t.Fatal("button should be a value element")
	}
	if got := v.Value(); got != "Go" {
		t.Errorf("initial label = %q, want %q", got, "Go")
	}

	// A refresh writes the value, which is what the button shows.
	v.SetValue("Stop")
	if got := doc.Value("go"); got != "Stop" {
		t.Errorf("label after refresh = %q, want %q", got, "Stop")
	}
}
