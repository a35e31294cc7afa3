package phxkit

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors for session state.
var (
	ErrSessionClosed = errors.New("session is closed")
	ErrNotConnected  = errors.New("session is not connected")
	ErrDisconnected  = errors.New("connection lost before reply")
)

// ErrorKind classifies session-level errors that cannot be returned to a
// direct caller.
type ErrorKind int

const (
	ErrDecodeFailure  ErrorKind = iota // inbound frame couldn't be parsed
	ErrEncodeFailure                   // outbound payload couldn't be marshaled
	ErrTransportWrite                  // failed to write to the connection
	ErrNotifyOverflow                  // notification dropped, consumer too slow
)

var errorKindNames = [...]string{
	ErrDecodeFailure:  "ErrDecodeFailure",
	ErrEncodeFailure:  "ErrEncodeFailure",
	ErrTransportWrite: "ErrTransportWrite",
	ErrNotifyOverflow: "ErrNotifyOverflow",
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// SessionError is an error routed to the ErrorHandler provided at session
// creation. None of these alter the session state: a bad frame or a full
// notification buffer never crashes the session.
type SessionError struct {
	Kind      ErrorKind
	URL       string
	Cause     error
	Raw       []byte // raw frame, set for decode failures
	Timestamp time.Time
}

// Value receivers so that the SessionError values handed to an ErrorHandler
// satisfy error directly and work with errors.Is/errors.As.
func (e SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v (url=%s)", e.Kind, e.Cause, e.URL)
	}
	return fmt.Sprintf("%s (url=%s)", e.Kind, e.URL)
}

func (e SessionError) Unwrap() error {
	return e.Cause
}

// ErrorHandler is called for every session-level error that cannot be
// returned to a direct caller. It MUST be provided when creating a session.
type ErrorHandler func(SessionError)

// LogErrors returns an ErrorHandler that writes every session error to the
// given logger.
func LogErrors(logger zerolog.Logger) ErrorHandler {
	return func(e SessionError) {
		logger.Error().
			Str("kind", e.Kind.String()).
			Str("url", e.URL).
			Err(e.Cause).
			Msg("session error")
	}
}
