package reconciler

import (
	"errors"
	"fmt"
)

var (
	// ErrRunTimeout is matched by *RunTimeoutError.
	ErrRunTimeout = errors.New("reconciliation run timed out")

	// ErrPartitionViolation means a record was lost or counted twice. It
	// always indicates a bug in a matching stage.
	ErrPartitionViolation = errors.New("partition violation")
)

// RunTimeoutError reports a run that was stopped before finishing. Partial
// holds what the completed stages produced, with everything else listed as
// unmatched; it must not be presented as a finished result.
type RunTimeoutError struct {
	Stage   string
	Partial *Outcome
	Cause   error
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("reconciliation stopped during %s stage: %v", e.Stage, e.Cause)
}

// Is lets errors.Is(err, ErrRunTimeout) succeed.
func (e *RunTimeoutError) Is(target error) bool {
	return target == ErrRunTimeout
}

func (e *RunTimeoutError) Unwrap() error {
	return e.Cause
}
