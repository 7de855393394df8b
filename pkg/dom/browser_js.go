//go:build js && wasm

package dom

import "syscall/js"

// Browser is the live page document.
type Browser struct {
	document js.Value
}

// NewBrowser returns the Document backed by the global `document`.
func NewBrowser() *Browser {
	return &Browser{document: js.Global().Get("document")}
}

type jsElement struct {
	id string
	v  js.Value
}

type jsField struct {
	jsElement
}

// ElementByID implements Document. An element whose `value` property is
// neither undefined nor null is returned as a ValueElement.
func (b *Browser) ElementByID(id string) (Element, bool) {
	v := b.document.Call("getElementById", id)
	if v.IsNull() || v.IsUndefined() {
		return nil, false
	}
	el := jsElement{id: id, v: v}
	if val := v.Get("value"); !val.IsUndefined() && !val.IsNull() {
		return &jsField{jsElement: el}, true
	}
	return &el, true
}

// Checked implements Checker using the element's `checked` property. ok is
// false when the element is missing or the property is not a boolean.
func (b *Browser) Checked(id string) (checked, ok bool) {
	v := b.document.Call("getElementById", id)
	if v.IsNull() || v.IsUndefined() {
		return false, false
	}
	c := v.Get("checked")
	if c.Type() != js.TypeBoolean {
		return false, false
	}
	return c.Bool(), true
}

func (e *jsElement) ID() string { return e.id }

func (e *jsElement) SetContent(html string) { e.v.Set("innerHTML", html) }

func (f *jsField) Value() string { return f.v.Get("value").String() }

func (f *jsField) SetValue(v string) { f.v.Set("value", v) }
