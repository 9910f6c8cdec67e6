// Package exitcode provides standardized exit codes for splitmerge
package exitcode

// Exit codes for the splitmerge CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
)

// MissingParentTree shares the general failure code; callers and scripts
// treat a missing parent as "nothing could be reconciled".
const MissingParentTree = GeneralError

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	default:
		return "Unknown error"
	}
}
