package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration errors (R100-R149)

	"R100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The configuration file does not exist at the given path.",
	},
	"R101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or is not valid JSON or YAML.",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "Log level must be one of debug, info, warn or error.",
	},
	"R103": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The inspect address must have the form host:port.",
	},
	"R104": {
		Category: CategoryConfig,
		Message:  "Invalid metrics name",
		Detail:   "Metric namespaces and subsystems may contain only letters, digits and underscores, and must not start with a digit.",
	},
	"R105": {
		Category: CategoryConfig,
		Message:  "Invalid demo interval",
		Detail:   "The demo tick interval must be a positive duration such as \"1s\".",
	},

	// CLI errors (R200-R249)

	"R200": {
		Category: CategoryCLI,
		Message:  "Inspect server failed",
		Detail:   "The inspect HTTP server stopped with an error.",
	},
	"R201": {
		Category: CategoryCLI,
		Message:  "Effect failed",
		Detail:   "An effect returned an error while the demo state was updated.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
