package dom

import (
	"errors"
	"sync"
	"testing"
)

func TestMemoryAddKinds(t *testing.T) {
	doc := NewMemory()
	span := doc.Add("span", "label1")
	input := doc.Add("INPUT", "input1")

	if _, ok := AsValue(span); ok {
		t.Error("span should not have a value capability")
	}
	if _, ok := AsValue(input); !ok {
		t.Error("input should have a value capability")
	}
	if got := input.(*Field).Tag(); got != "input" {
		t.Errorf("Tag() = %q, want input", got)
	}
}

func TestMemoryWrites(t *testing.T) {
	doc := NewMemory()
	doc.Add("div", "d").SetContent("<b>x</b>")
	f, _ := AsValue(doc.Add("textarea", "t"))
	f.SetValue("typed")

	if got := doc.Content("d"); got != "<b>x</b>" {
		t.Errorf("Content(d) = %q", got)
	}
	if got := doc.Value("t"); got != "typed" {
		t.Errorf("Value(t) = %q", got)
	}
	if got := doc.Value("missing"); got != "" {
		t.Errorf("Value(missing) = %q, want empty", got)
	}
}

func TestMemoryReplaceKeepsOrder(t *testing.T) {
	doc := NewMemory()
	doc.Add("span", "a")
	doc.Add("span", "b")
	doc.Add("input", "a")

	ids := doc.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("IDs() = %v, want [a b]", ids)
	}
	if !doc.State("a").HasValue {
		t.Error("replaced element should be the input")
	}
}

func TestMemoryOnChange(t *testing.T) {
	doc := NewMemory()
	el := doc.Add("span", "s")

	var changes []Change
	doc.OnChange(func(c Change) { changes = append(changes, c) })

	el.SetContent("1")
	el.SetContent("1")
	el.SetContent("2")

	if len(changes) != 2 {
		t.Fatalf("len(changes) = %d, want 2 (no-op writes are not changes)", len(changes))
	}
	if changes[1] != (Change{ID: "s", Field: "content", Old: "1", New: "2"}) {
		t.Errorf("changes[1] = %+v", changes[1])
	}
}

func TestLookup(t *testing.T) {
	doc := NewMemory()
	doc.Add("span", "here")

	if _, err := Lookup(doc, "here"); err != nil {
		t.Fatalf("Lookup(here) error = %v", err)
	}
	_, err := Lookup(doc, "gone")
	if !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("Lookup(gone) = %v, want ErrElementNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "gone" {
		t.Errorf("NotFoundError.ID = %v", nf)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	doc := NewMemory()
	el := doc.Add("input", "x")
	f, _ := AsValue(el)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.SetValue("v")
		}()
		go func() {
			defer wg.Done()
			_ = doc.Snapshot()
		}()
	}
	wg.Wait()
}

func TestCheckedOr(t *testing.T) {
	doc := NewMemory()
	doc.Add("span", "label")
	doc.Add("input", "AutoRefresh")

	// No checkable element yet: the default wins.
	if !CheckedOr(doc, "AutoRefresh", true) {
		t.Error("CheckedOr(unset) = false, want default true")
	}
	if !CheckedOr(doc, "missing", true) {
		t.Error("CheckedOr(missing) = false, want default true")
	}

	if !doc.SetChecked("AutoRefresh", false) {
		t.Fatal("SetChecked(AutoRefresh) = false")
	}
	if CheckedOr(doc, "AutoRefresh", true) {
		t.Error("CheckedOr(unchecked) = true, want false")
	}
	if doc.SetChecked("label", true) {
		t.Error("SetChecked(span) = true, want false")
	}
	if doc.SetChecked("missing", true) {
		t.Error("SetChecked(missing) = true, want false")
	}
}
