package sim

import (
	"errors"
	"fmt"
)

// ErrUnstable indicates the field stopped being finite.
var ErrUnstable = errors.New("sim: simulation unstable (field diverged)")

// StepError wraps an error with the frame it happened on.
type StepError struct {
	Frame int
	Time  float64
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
