package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/vango-dev/guisync/pkg/protocol"
)

// Model is the server-held state mirrored by clients.
type Model interface {
	// Updates returns the current content of every synchronized element,
	// in a stable order.
	Updates(ctx context.Context) ([]protocol.UpdateRecord, error)

	// Handle runs one command against the model.
	Handle(ctx context.Context, cmd protocol.CommandRequest) error
}

// Binding is one model element registered with Bindings.
type Binding struct {
	id     string
	render func() string
	onCall func(ctx context.Context) error
	onSet  func(ctx context.Context, value string) error
}

// ElementInfo describes one binding at a point in time.
type ElementInfo struct {
	ID       string
	HTML     string
	Callable bool // accepts "call"
	Settable bool // accepts "set"
}

// OnCall sets the handler for "call" commands.
func (b *Binding) OnCall(fn func(ctx context.Context) error) *Binding {
	b.onCall = fn
	return b
}

// OnSet sets the handler for "set" commands. The handler receives the
// command argument.
func (b *Binding) OnSet(fn func(ctx context.Context, value string) error) *Binding {
	b.onSet = fn
	return b
}

// Bindings is a Model built from per-element render functions and command
// handlers.
//
// Every render and handler call is made under one lock, so model code
// needs no locking of its own. Handlers must be attached before the model
// is served.
//
//	b := server.NewBindings()
//	count := 0
//	b.Bind("count", func() string { return strconv.Itoa(count) })
//	b.Bind("inc", func() string { return "+1" }).OnCall(func(context.Context) error {
//	    count++
//	    return nil
//	})
type Bindings struct {
	mu    sync.Mutex
	order []*Binding
	byID  map[string]*Binding
}

var _ Model = (*Bindings)(nil)

// NewBindings creates an empty model.
func NewBindings() *Bindings {
	return &Bindings{byID: make(map[string]*Binding)}
}

// Bind registers an element whose content comes from render. Binding an id
// again replaces its render function and handlers but keeps its position.
// Bind panics on an empty id.
func (m *Bindings) Bind(id string, render func() string) *Binding {
	if id == "" {
		panic(ErrEmptyID)
	}
	if render == nil {
		render = func() string { return "" }
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.byID[id]; ok {
		*b = Binding{id: id, render: render}
		return b
	}
	b := &Binding{id: id, render: render}
	m.byID[id] = b
	m.order = append(m.order, b)
	return b
}

// Elements renders every binding in registration order.
func (m *Bindings) Elements() []ElementInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ElementInfo, 0, len(m.order))
	for _, b := range m.order {
		out = append(out, ElementInfo{
			ID:       b.id,
			HTML:     b.render(),
			Callable: b.onCall != nil,
			Settable: b.onSet != nil,
		})
	}
	return out
}

// Len returns the number of bindings.
func (m *Bindings) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Updates implements Model. Records follow registration order.
func (m *Bindings) Updates(ctx context.Context) ([]protocol.UpdateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updates := make([]protocol.UpdateRecord, 0, len(m.order))
	for _, b := range m.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		updates = append(updates, protocol.UpdateRecord{ID: b.id, HTML: b.render()})
	}
	return updates, nil
}

// Render returns the current content of one element.
func (m *Bindings) Render(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownElement, id)
	}
	return b.render(), nil
}

// Handle implements Model.
func (m *Bindings) Handle(ctx context.Context, cmd protocol.CommandRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.byID[cmd.ID]
	if !ok {
		return &CommandError{ID: cmd.ID, Method: cmd.Method, Err: ErrUnknownElement}
	}

	var err error
	switch {
	case cmd.Method == protocol.MethodCall && b.onCall != nil:
		err = b.onCall(ctx)
	case cmd.Method == protocol.MethodSet && b.onSet != nil:
		err = b.onSet(ctx, cmd.Arg)
	default:
		return &CommandError{ID: cmd.ID, Method: cmd.Method, Err: ErrUnknownMethod}
	}
	if err != nil {
		return &CommandError{ID: cmd.ID, Method: cmd.Method, Err: err}
	}
	return nil
}
