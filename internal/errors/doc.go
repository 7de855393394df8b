// Package errors provides coded, actionable error messages for the guisync
// command line.
//
// Library packages return plain Go errors (sentinels and wrapper types).
// At the CLI boundary those are turned into an *Error with a code, a
// plain-language explanation and a hint:
//
//	err := errors.New("E100").
//	    WithDetail("No guisync.json or guisync.yaml in /srv/app").
//	    WithSuggestion("Run with --config or create guisync.yaml")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E100: Config file not found
//	//
//	//   No guisync.json or guisync.yaml in /srv/app
//	//
//	//   Hint: Run with --config or create guisync.yaml
//
// Classify maps errors from the transport, protocol and dom packages to
// their codes.
//
// # Error Codes
//
//   - E100-E199: configuration
//   - E200-E299: transport
//   - E300-E399: protocol
//   - E400-E499: document
//   - E500-E599: command line and server startup
package errors
