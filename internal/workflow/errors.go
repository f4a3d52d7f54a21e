package workflow

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure reported by the engine wraps exactly one of them.
var (
	ErrGeneration       = errors.New("generation failed")
	ErrSearch           = errors.New("search failed")
	ErrMerge            = errors.New("search fan-in failed")
	ErrStreamDisconnect = errors.New("stream consumer disconnected")
)

// StageError reports the stage (and fan-out task) that failed.
// errors.Is matches both the kind and the underlying cause.
type StageError struct {
	Stage Stage
	Task  int // dispatch index, -1 for sequential stages
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	prefix := string(e.Stage)
	if e.Task >= 0 {
		prefix = fmt.Sprintf("%s[%d]", e.Stage, e.Task)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", prefix, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short label for the error kind of err, used in metrics and wire payloads
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMerge):
		return "merge"
	case errors.Is(err, ErrSearch):
		return "search"
	case errors.Is(err, ErrGeneration):
		return "generation"
	case errors.Is(err, ErrStreamDisconnect):
		return "disconnect"
	default:
		return "unknown"
	}
}
