package adapter

import (
	"time"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithStrictConditions makes unsupported query conditions fail the
// operation instead of being dropped from the filter.
func WithStrictConditions() Option {
	return func(a *Adapter) {
		a.translator.Strict = true
	}
}

// WithSizeLimit caps the entries returned by every search. Zero means no
// client-side limit.
func WithSizeLimit(n int) Option {
	return func(a *Adapter) {
		if n >= 0 {
			a.sizeLimit = n
		}
	}
}

// WithTimeLimit sets the server-side time limit of every search.
func WithTimeLimit(d time.Duration) Option {
	return func(a *Adapter) {
		if d >= 0 {
			a.timeLimit = d
		}
	}
}
