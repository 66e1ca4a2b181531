package rivulet

import (
	"errors"
	"fmt"
)

// ErrorKind classifies everything that can surface through OnError. A
// caller never sees provider-specific error shapes; below the session
// boundary failures are either absorbed locally or normalized into one of
// these kinds.
type ErrorKind int

const (
	// ErrKindTransport covers connection-level failures: dial errors,
	// resets, unexpected status codes. Retried automatically only when no
	// byte of the response had been received.
	ErrKindTransport ErrorKind = iota + 1
	// ErrKindProvider is an explicit error record in the provider's
	// stream. Never retried automatically.
	ErrKindProvider
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindTransport:
		return "transport"
	case ErrKindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Error is the normalized failure delivered to OnError.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError unwraps a rivulet *Error from err, if one is in its chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}
