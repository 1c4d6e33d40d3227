// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion, including a declined
	// confirmation prompt.
	Success = 0

	// UserError indicates bad args, a rejected field, or an entity that
	// no longer exists.
	UserError = 1

	// AuthError indicates a missing, expired or rejected session.
	AuthError = 2

	// BackendError indicates the persistence service was unreachable or
	// failed in a way the user cannot fix.
	BackendError = 3
)
