package client

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/protocol"
)

// Reconciler writes update records into a document.
type Reconciler struct {
	doc    dom.Document
	policy *bluemonday.Policy
}

// NewReconciler creates a reconciler for doc. A nil policy writes content
// unmodified.
func NewReconciler(doc dom.Document, policy *bluemonday.Policy) *Reconciler {
	return &Reconciler{doc: doc, policy: policy}
}

// Apply writes each record into the element with the same id, in order.
//
// An element with a value capability gets its value replaced, unless it is
// the focused element. Every other element, the focused one included, gets
// its rendered content replaced. The value of the focused element is never
// written.
//
// Apply stops at the first record whose element does not exist and returns
// a *TargetError wrapping dom.ErrElementNotFound. Records before it stay
// applied; applied reports how many.
func (r *Reconciler) Apply(updates []protocol.UpdateRecord, focused string) (applied int, err error) {
	for _, u := range updates {
		el, err := dom.Lookup(r.doc, u.ID)
		if err != nil {
			return applied, &TargetError{ID: u.ID, Op: "apply", Err: err}
		}

		if v, ok := dom.AsValue(el); ok && u.ID != focused {
			v.SetValue(u.HTML)
		} else {
			el.SetContent(r.sanitize(u.HTML))
		}
		applied++
	}
	return applied, nil
}

func (r *Reconciler) sanitize(html string) string {
	if r.policy == nil {
		return html
	}
	return r.policy.Sanitize(html)
}
