package phxkit

import "github.com/rs/zerolog"

// Option configures a Session at creation.
type Option func(*Session)

// WithTransport substitutes the socket transport. The default is the
// WebSocket transport from NewWebsocketTransport.
func WithTransport(t Transport) Option {
	return func(s *Session) {
		s.transport = t
	}
}

// WithClock substitutes the timer source used for retry backoff and the
// heartbeat interval. The default is the system clock.
func WithClock(c Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithLogger attaches a logger for debug-level session events (transitions,
// stale discards, heartbeats). The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}
