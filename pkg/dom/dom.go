package dom

import (
	"errors"
	"fmt"
)

// ErrElementNotFound is returned when no element has the requested id.
var ErrElementNotFound = errors.New("dom: element not found")

// Element is a node addressable by id whose rendered content can be replaced.
type Element interface {
	// ID returns the element id.
	ID() string

	// SetContent replaces the element's markup body.
	SetContent(html string)
}

// ValueElement is an Element with a settable scalar value.
type ValueElement interface {
	Element

	// Value returns the current value (what the user typed or selected).
	Value() string

	// SetValue replaces the current value.
	SetValue(v string)
}

// Document resolves element ids.
type Document interface {
	// ElementByID returns the element with the given id, if any.
	ElementByID(id string) (Element, bool)
}

// Checker reports the checked state of checkbox-like elements.
type Checker interface {
	// Checked returns the checked state of id. ok is false when no
	// checkable element has that id.
	Checked(id string) (checked, ok bool)
}

// CheckedOr returns the checked state of id, or def when the document has
// no checkable element with that id.
func CheckedOr(c Checker, id string, def bool) bool {
	if checked, ok := c.Checked(id); ok {
		return checked
	}
	return def
}

// NotFoundError names the id that could not be resolved.
type NotFoundError struct {
	ID string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dom: element %q not found", e.ID)
}

// Is reports ErrElementNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// Lookup resolves id or returns a *NotFoundError.
func Lookup(doc Document, id string) (Element, error) {
	el, ok := doc.ElementByID(id)
	if !ok || el == nil {
		return nil, &NotFoundError{ID: id}
	}
	return el, nil
}

// AsValue reports whether el has a value capability.
func AsValue(el Element) (ValueElement, bool) {
	v, ok := el.(ValueElement)
	return v, ok
}

// valueTags are the HTML elements whose DOM interface exposes a string value.
var valueTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
	"option":   true,
	"button":   true,
	"output":   true,
	"data":     true,
	"param":    true,
}

// HasValueCapability reports whether elements with this tag carry a value.
func HasValueCapability(tag string) bool {
	return valueTags[tag]
}
