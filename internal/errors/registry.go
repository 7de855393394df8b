package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (E100-E199)
	"E100": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "No guisync.json, guisync.yaml or guisync.yml was found.",
		Suggestion: "Pass --config with a file path, or run without one to use defaults.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file could not be parsed.",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Invalid duration",
		Detail:     "Durations are written as Go duration strings.",
		Suggestion: `Use a value such as "200ms", "1s" or "1m30s".`,
	},
	"E103": {
		Category:   CategoryConfig,
		Message:    "Invalid poll interval",
		Detail:     "The poll interval must be a positive duration.",
		Suggestion: `The default is "200ms".`,
	},
	"E104": {
		Category:   CategoryConfig,
		Message:    "Unsupported transport",
		Suggestion: `Use "http" or "websocket".`,
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid server configuration",
	},
	"E106": {
		Category:   CategoryConfig,
		Message:    "Unsupported config format",
		Suggestion: "Use a .json, .yaml or .yml file.",
	},
	"E107": {
		Category:   CategoryConfig,
		Message:    "Invalid log setting",
		Suggestion: `Levels are debug, info, warn and error; formats are text and json.`,
	},

	// Transport (E200-E299)
	"E200": {
		Category:   CategoryTransport,
		Message:    "Server unreachable",
		Detail:     "The request could not be delivered to the server.",
		Suggestion: "Check that the server is running and the URL is correct.",
	},
	"E201": {
		Category: CategoryTransport,
		Message:  "Unexpected HTTP status",
		Detail:   "The server answered with a status the client does not accept.",
	},
	"E202": {
		Category:   CategoryTransport,
		Message:    "Unsupported URL",
		Suggestion: "Use an http:// or https:// URL.",
	},
	"E203": {
		Category: CategoryTransport,
		Message:  "Server rejected the request",
	},

	// Protocol (E300-E399)
	"E300": {
		Category: CategoryProtocol,
		Message:  "Malformed response",
		Detail:   "The response body is not a JSON list of {ID, HTML} records.",
	},
	"E301": {
		Category: CategoryProtocol,
		Message:  "Response too large",
	},

	// Document (E400-E499)
	"E400": {
		Category:   CategoryDOM,
		Message:    "Element not found",
		Detail:     "The document has no element with the requested id.",
		Suggestion: "Element ids must match the model ids the server sends.",
	},
	"E401": {
		Category:   CategoryDOM,
		Message:    "Element has no value",
		Detail:     "A set command reads its argument from an input, textarea or select.",
		Suggestion: `The value element of "x" must have id "guielem_x".`,
	},
	"E402": {
		Category: CategoryDOM,
		Message:  "Page could not be parsed",
	},

	// Command line (E500-E599)
	"E500": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	"E501": {
		Category:   CategoryCLI,
		Message:    "Server failed to start",
		Suggestion: "Check that the address is free, or pick another with --addr.",
	},
	"E502": {
		Category:   CategoryCLI,
		Message:    "Report not written",
		Suggestion: "For s3:// destinations set AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_REGION.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
