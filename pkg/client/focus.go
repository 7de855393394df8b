package client

// FocusTracker records which element currently holds input focus.
// It is not synchronized; the session only touches it on the loop.
type FocusTracker struct {
	id string
}

// NotifyFocus records id as focused.
func (f *FocusTracker) NotifyFocus(id string) {
	f.id = id
}

// NotifyBlur clears the focus state. The id is ignored: blur of any element
// means nothing is focused.
func (f *FocusTracker) NotifyBlur(id string) {
	f.id = ""
}

// Focused returns the focused element id, or "" if none.
func (f *FocusTracker) Focused() string {
	return f.id
}
