package advice

import (
	"errors"
	"fmt"

	"github.com/m3rciful/dietbot/core/telegram/netutil"
)

// Kind separates failures worth another attempt from final ones.
type Kind string

const (
	KindTransient Kind = "transient"
	KindTerminal  Kind = "terminal"
)

// Error is returned by every Service call that fails.
type Error struct {
	Kind     Kind
	Op       string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("advice %s: %s after %d attempt(s): %v", e.Op, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may try again later.
func (e *Error) Retryable() bool { return e.Kind == KindTransient }

// StatusError carries the HTTP status of a rejected upstream request.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// ErrEmptyAnswer means the model returned no usable text.
var ErrEmptyAnswer = errors.New("empty answer")

// classify decides whether err is transient.
func classify(err error) Kind {
	var se *StatusError
	if errors.As(err, &se) {
		if netutil.RetryableStatus(se.StatusCode) {
			return KindTransient
		}
		return KindTerminal
	}
	if netutil.ShouldRetry(err) {
		return KindTransient
	}
	return KindTerminal
}
