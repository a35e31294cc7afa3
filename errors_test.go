package phxkit

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestErrorKind_String(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrDecodeFailure:  "ErrDecodeFailure",
		ErrEncodeFailure:  "ErrEncodeFailure",
		ErrTransportWrite: "ErrTransportWrite",
		ErrNotifyOverflow: "ErrNotifyOverflow",
		ErrorKind(42):     "ErrorKind(42)",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestSessionError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	// A plain value, exactly as an ErrorHandler receives it, must satisfy
	// error on its own.
	var err error = SessionError{
		Kind:      ErrDecodeFailure,
		URL:       "ws://x",
		Cause:     cause,
		Timestamp: time.Now(),
	}

	if msg := err.Error(); !strings.Contains(msg, "ErrDecodeFailure") || !strings.Contains(msg, "ws://x") {
		t.Errorf("Error() = %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap() should expose the cause")
	}

	var se SessionError
	if !errors.As(err, &se) || se.Kind != ErrDecodeFailure {
		t.Error("errors.As should recover the SessionError value")
	}

	bare := SessionError{Kind: ErrNotifyOverflow}
	if msg := bare.Error(); !strings.Contains(msg, "ErrNotifyOverflow") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestLogErrors_WritesToLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := LogErrors(zerolog.New(&buf))

	handler(SessionError{
		Kind:  ErrDecodeFailure,
		URL:   "ws://x",
		Cause: errors.New("bad frame"),
	})

	out := buf.String()
	if !strings.Contains(out, "ErrDecodeFailure") || !strings.Contains(out, "ws://x") {
		t.Errorf("logged output = %q", out)
	}
}
