package cli

import "fmt"

// Process exit codes.
const (
	exitSuccess      = 0
	exitUsage        = 1
	exitScript       = 2
	exitFileNotFound = 3
)

// ExitError is an error that carries a specific process exit code.
// Cobra's RunE returns this to signal the desired exit code to main.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError creates an ExitError with the given code wrapping err.
func exitError(code int, err error, format string, args ...any) *ExitError {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg += ": " + err.Error()
	}
	return &ExitError{Code: code, Message: msg, Err: err}
}
