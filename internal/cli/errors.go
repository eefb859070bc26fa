package cli

import (
	"errors"
	"fmt"

	"github.com/kingrea/task-cli/internal/task"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// InvalidArgumentError reports a problem with the command line itself:
// missing arguments, a non-numeric id or an unknown status.
type InvalidArgumentError struct {
	Message string
	// ShowUsage asks the dispatcher to print usage after the message.
	ShowUsage bool
}

func (e *InvalidArgumentError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidArgumentf(format string, args ...any) error {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}

var (
	errMissingDescription = invalidArgumentf("Please provide a task description")
	errMissingUpdateArgs  = invalidArgumentf("Please provide task ID and new description")
	errMissingID          = invalidArgumentf("Please provide task ID")
	errInvalidID          = invalidArgumentf("Invalid task ID. Please provide a valid number.")
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}

// describe renders err for the error stream.
func describe(err error) string {
	var invalid *InvalidArgumentError
	var notFound *task.NotFoundError
	var persist *task.PersistenceError
	switch {
	case errors.As(err, &invalid):
		return "Error: " + invalid.Message
	case errors.As(err, &notFound):
		return "Error: " + notFound.Error()
	case errors.As(err, &persist):
		return fmt.Sprintf("Error saving tasks: %v", persist.Err)
	default:
		return "Error: " + err.Error()
	}
}
