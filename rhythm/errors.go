package rhythm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMarking is returned when a tempo marking name is not in the table.
	ErrUnknownMarking = errors.New("unknown tempo marking")

	// ErrClickOutOfRange is returned when a click index falls outside the measure.
	ErrClickOutOfRange = errors.New("click index out of range")

	// ErrNoSink is returned when the engine is started without an audio sink.
	ErrNoSink = errors.New("engine has no audio sink")
)

// ValidationError reports an invalid configuration value. The configuration
// that was in place before the failing call is left untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
