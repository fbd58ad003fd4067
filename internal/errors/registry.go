package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (R100-R199)

	"R100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No renderbridge.json was found in the given directory.",
	},
	"R101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "renderbridge.json could not be read or is not valid JSON.",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field is out of range or malformed.",
	},
	"R103": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations are written as Go duration strings, such as \"30s\" or \"1m\".",
	},

	// Wire messages (R200-R299)

	"R200": {
		Category: CategoryCLI,
		Message:  "Invalid hex input",
		Detail:   "The input must be hexadecimal digits. Whitespace is ignored.",
	},
	"R201": {
		Category: CategoryProtocol,
		Message:  "Malformed message",
		Detail:   "The bytes are not a valid encoded value.",
	},
	"R202": {
		Category: CategoryCLI,
		Message:  "Invalid JSON input",
		Detail:   "The input must be a single JSON value.",
	},
	"R203": {
		Category: CategoryProtocol,
		Message:  "Value cannot be encoded",
		Detail:   "The value contains a type or nesting depth the wire format does not carry.",
	},
	"R204": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "The bytes are not a valid transport frame.",
	},

	// Server (R300-R399)

	"R300": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	"R301": {
		Category: CategoryServer,
		Message:  "Invalid listen address",
	},
}

// Lookup returns the template for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
