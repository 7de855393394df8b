package dom

import (
	"sort"
	"strings"
	"sync"
)

// Change describes one write that altered an element.
type Change struct {
	ID    string
	Field string // "content" or "value"
	Old   string
	New   string
}

// State is a point-in-time copy of one element.
type State struct {
	Tag      string
	Content  string
	Value    string
	HasValue bool
}

// Memory is an in-process Document.
type Memory struct {
	mu       sync.RWMutex
	elements map[string]Element
	order    []string
	onChange func(Change)
}

// NewMemory creates an empty document.
func NewMemory() *Memory {
	return &Memory{elements: make(map[string]Element)}
}

// Node is an element without a value capability (span, div, td, ...).
type Node struct {
	doc     *Memory
	id      string
	tag     string
	content string
}

// Field is an element with a value capability (input, textarea, ...).
type Field struct {
	Node
	value     string
	checkable bool
	checked   bool
}

// Add creates an element with the given tag and id, replacing any element
// that already had that id. Value-capable tags produce a *Field.
func (m *Memory) Add(tag, id string) Element {
	tag = strings.ToLower(tag)
	n := Node{doc: m, id: id, tag: tag}

	var el Element
	if HasValueCapability(tag) {
		el = &Field{Node: n}
	} else {
		el = &n
	}

	m.mu.Lock()
	if _, exists := m.elements[id]; !exists {
		m.order = append(m.order, id)
	}
	m.elements[id] = el
	m.mu.Unlock()
	return el
}

// ElementByID implements Document.
func (m *Memory) ElementByID(id string) (Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el, ok := m.elements[id]
	return el, ok
}

// OnChange registers fn to be called after every write that changes an
// element. fn runs without the document lock held.
func (m *Memory) OnChange(fn func(Change)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// IDs returns element ids in insertion order.
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Content returns the content of id, or "" if absent.
func (m *Memory) Content(id string) string {
	return m.State(id).Content
}

// Value returns the value of id, or "" if absent or not value-capable.
func (m *Memory) Value(id string) string {
	return m.State(id).Value
}

// State returns a copy of the element's state.
func (m *Memory) State(id string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stateOf(m.elements[id])
}

// Checked implements Checker. Only fields made checkable by SetChecked or
// parsed from a checkbox or radio input report ok.
func (m *Memory) Checked(id string) (checked, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, isField := m.elements[id].(*Field)
	if !isField || !f.checkable {
		return false, false
	}
	return f.checked, true
}

// SetChecked sets the checked state of a value-capable element and makes it
// checkable. It returns false if id is missing or has no value capability.
func (m *Memory) SetChecked(id string, on bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.elements[id].(*Field)
	if !ok {
		return false
	}
	f.checkable = true
	f.checked = on
	return true
}

// Snapshot copies the state of every element.
func (m *Memory) Snapshot() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.elements))
	for id, el := range m.elements {
		out[id] = stateOf(el)
	}
	return out
}

// String renders the document as "id=content" lines sorted by id. Meant for
// debugging and test failure messages.
func (m *Memory) String() string {
	snap := m.Snapshot()
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		s := snap[id]
		b.WriteString(id)
		b.WriteString("=")
		if s.HasValue {
			b.WriteString(s.Value)
		} else {
			b.WriteString(s.Content)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// caller must hold m.mu
func stateOf(el Element) State {
	switch e := el.(type) {
	case *Field:
		return State{Tag: e.tag, Content: e.content, Value: e.value, HasValue: true}
	case *Node:
		return State{Tag: e.tag, Content: e.content}
	default:
		return State{}
	}
}

// ID implements Element.
func (n *Node) ID() string { return n.id }

// Tag returns the lower-case tag name.
func (n *Node) Tag() string { return n.tag }

// Content returns the current markup body.
func (n *Node) Content() string {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.content
}

// SetContent implements Element.
func (n *Node) SetContent(html string) {
	n.doc.write(n.id, "content", &n.content, html)
}

// Value implements ValueElement.
func (f *Field) Value() string {
	f.doc.mu.RLock()
	defer f.doc.mu.RUnlock()
	return f.value
}

// SetValue implements ValueElement.
func (f *Field) SetValue(v string) {
	f.doc.write(f.id, "value", &f.value, v)
}

func (m *Memory) write(id, field string, dst *string, v string) {
	m.mu.Lock()
	old := *dst
	*dst = v
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil && old != v {
		fn(Change{ID: id, Field: field, Old: old, New: v})
	}
}
