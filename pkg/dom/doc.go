// Package dom abstracts the page a guisync client writes into.
//
// A Document resolves element ids to Elements. Every Element can have its
// rendered content replaced; elements that also carry a scalar value (text
// inputs, text areas, selects, buttons) implement ValueElement. The client's
// reconciliation policy branches on that capability.
//
// Two implementations exist:
//
//   - Memory: an in-process document, built with Add or parsed from HTML with
//     ParseHTML. Safe for concurrent use.
//   - Browser: the live page when compiled with GOOS=js GOARCH=wasm.
package dom
