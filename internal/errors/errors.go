package errors

import (
	"fmt"
	"os"

	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/logger"
)

// Hint suggests the command that fixes err, or "".
func Hint(err error) string {
	switch {
	case Is(err, ErrNoCurrentUser):
		return fmt.Sprintf("run '%s account signin <email>' first", constants.AppName)
	case Is(err, ErrInvalidFormat):
		return "the file must be a backup exported by " + constants.AppName
	case Is(err, ErrTransferUnavailable):
		return "pass --dir or --stdout"
	case Is(err, ErrStorageWrite), Is(err, ErrStorageRead):
		return fmt.Sprintf("run '%s doctor' to check storage", constants.AppName)
	}
	return ""
}

// Format renders err for the terminal as "Error: <msg>", followed by a hint
// line when one applies.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if h := Hint(err); h != "" {
		msg += "\nHint: " + h
	}
	return msg
}

// Fatal logs err, prints it to stderr and exits with status 1. A nil err
// is a no-op.
func Fatal(err error) {
	if err == nil {
		return
	}
	var appErr *AppError
	if As(err, &appErr) && appErr.Field != "" {
		logger.Error("Command execution failed", "error", err, "field", appErr.Field)
	} else {
		logger.Error("Command execution failed", "error", err)
	}
	fmt.Fprintln(os.Stderr, Format(err))
	os.Exit(1)
}
