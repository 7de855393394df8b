package client

import (
	"errors"
	"testing"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/protocol"
)

func newTestDoc() *dom.Memory {
	doc := dom.NewMemory()
	doc.Add("span", "label1")
	doc.Add("input", "input1")
	doc.Add("textarea", "notes")
	doc.Add("div", "ErrorBox")
	doc.Add("div", "MsgBox")
	return doc
}

func TestApplyWritesContent(t *testing.T) {
	doc := newTestDoc()
	r := NewReconciler(doc, nil)

	n, err := r.Apply([]protocol.UpdateRecord{{ID: "label1", HTML: "42"}}, "")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if n != 1 {
		t.Errorf("applied = %d, want 1", n)
	}
	if got := doc.Content("label1"); got != "42" {
		t.Errorf("label1 content = %q, want %q", got, "42")
	}
}

func TestApplyWritesValue(t *testing.T) {
	doc := newTestDoc()
	r := NewReconciler(doc, nil)

	if _, err := r.Apply([]protocol.UpdateRecord{{ID: "input1", HTML: "abc"}}, ""); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := doc.Value("input1"); got != "abc" {
		t.Errorf("input1 value = %q, want %q", got, "abc")
	}
	if got := doc.Content("input1"); got != "" {
		t.Errorf("input1 content = %q, want empty", got)
	}
}

func TestApplyFocusSuppression(t *testing.T) {
	doc := newTestDoc()
	field, _ := doc.ElementByID("input1")
	field.(dom.ValueElement).SetValue("user typing")
	r := NewReconciler(doc, nil)

	updates := []protocol.UpdateRecord{{ID: "input1", HTML: "server"}}
	if _, err := r.Apply(updates, "input1"); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := doc.Value("input1"); got != "user typing" {
		t.Errorf("focused value = %q, want %q", got, "user typing")
	}
	if got := doc.Content("input1"); got != "server" {
		t.Errorf("focused content = %q, want %q", got, "server")
	}

	// After blur the next refresh overwrites the value.
	if _, err := r.Apply(updates, ""); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := doc.Value("input1"); got != "server" {
		t.Errorf("value after blur = %q, want %q", got, "server")
	}
}

func TestApplyFocusOnlyAffectsFocusedElement(t *testing.T) {
	doc := newTestDoc()
	r := NewReconciler(doc, nil)

	updates := []protocol.UpdateRecord{
		{ID: "input1", HTML: "a"},
		{ID: "notes", HTML: "b"},
	}
	if _, err := r.Apply(updates, "notes"); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := doc.Value("input1"); got != "a" {
		t.Errorf("input1 value = %q, want %q", got, "a")
	}
	if got := doc.Value("notes"); got != "" {
		t.Errorf("notes value = %q, want unchanged", got)
	}
}

func TestApplyIdempotent(t *testing.T) {
	doc := newTestDoc()
	r := NewReconciler(doc, nil)
	updates := []protocol.UpdateRecord{
		{ID: "label1", HTML: "<b>7</b>"},
		{ID: "input1", HTML: "x"},
		{ID: "notes", HTML: "y"},
	}

	if _, err := r.Apply(updates, "notes"); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	first := doc.Snapshot()
	if _, err := r.Apply(updates, "notes"); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	second := doc.Snapshot()

	for id, want := range first {
		if got := second[id]; got != want {
			t.Errorf("%s after second Apply = %+v, want %+v", id, got, want)
		}
	}
}

func TestApplyMissingElement(t *testing.T) {
	doc := newTestDoc()
	r := NewReconciler(doc, nil)

	updates := []protocol.UpdateRecord{
		{ID: "label1", HTML: "1"},
		{ID: "ghost", HTML: "2"},
		{ID: "input1", HTML: "3"},
	}
	n, err := r.Apply(updates, "")
	if !errors.Is(err, dom.ErrElementNotFound) {
		t.Fatalf("err = %v, want ErrElementNotFound", err)
	}
	var te *TargetError
	if !errors.As(err, &te) || te.ID != "ghost" || te.Op != "apply" {
		t.Errorf("TargetError = %+v", te)
	}
	if n != 1 {
		t.Errorf("applied = %d, want 1", n)
	}
	if got := doc.Content("label1"); got != "1" {
		t.Errorf("label1 = %q, want records before the failure applied", got)
	}
	if got := doc.Value("input1"); got != "" {
		t.Errorf("input1 = %q, want records after the failure skipped", got)
	}
}

func TestApplyContentPolicy(t *testing.T) {
	doc := newTestDoc()
	r := NewReconciler(doc, bluemonday.UGCPolicy())

	updates := []protocol.UpdateRecord{
		{ID: "label1", HTML: `<b>ok</b><script>alert(1)</script>`},
		{ID: "input1", HTML: `<script>x</script>`},
	}
	if _, err := r.Apply(updates, ""); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := doc.Content("label1"); got != "<b>ok</b>" {
		t.Errorf("sanitized content = %q, want %q", got, "<b>ok</b>")
	}
	if got := doc.Value("input1"); got != `<script>x</script>` {
		t.Errorf("value = %q, want values untouched by policy", got)
	}
}

func TestFocusTracker(t *testing.T) {
	var f FocusTracker
	if f.Focused() != "" {
		t.Fatalf("initial focus = %q, want empty", f.Focused())
	}
	f.NotifyFocus("a")
	f.NotifyFocus("b")
	if f.Focused() != "b" {
		t.Errorf("focus = %q, want b", f.Focused())
	}
	f.NotifyBlur("a")
	if f.Focused() != "" {
		t.Errorf("focus after blur of another id = %q, want empty", f.Focused())
	}
}
