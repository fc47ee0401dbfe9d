package adapter

import (
	"errors"
)

// Result is the outcome of a batch operation. A batch that ran to the end
// returns a Result and a nil error even when nothing succeeded; per-entry
// failures are listed in Failures.
type Result struct {
	Succeeded int
	Failures  []*OperationError
}

// Failed returns the number of failed directory operations.
func (r Result) Failed() int {
	return len(r.Failures)
}

// Err joins the recorded failures, or returns nil when there are none.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}

	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
