package phxkit

// Handle identifies one connection attempt. URL feeds the session's
// staleness guards: events for a handle whose URL the session is no longer
// pursuing are discarded.
type Handle interface {
	URL() string
}

// Transport is the injected socket capability. The default implementation
// is the WebSocket transport (websocket.go); tests substitute a fake.
type Transport interface {
	// Bind registers the event sink. The session calls it exactly once,
	// before any Open.
	Bind(ev TransportEvents)

	// Open starts an asynchronous connection attempt and returns its
	// handle. Exactly one of ConnOpened/ConnFailed eventually fires for
	// the handle, unless the handle is closed first.
	Open(url string) Handle

	// Send writes one wire frame. Fire-and-forget; buffering and
	// backpressure are the transport's concern.
	Send(h Handle, data []byte) error

	// Close shuts the connection down with a close code and reason,
	// eventually firing ConnClosed. Safe to call on a handle whose dial
	// is still in flight.
	Close(h Handle, code int, reason string)
}

// TransportEvents is the sink a Transport delivers its events to. Deliveries
// must come from the transport's own goroutines, never synchronously from
// inside Open, Send or Close.
type TransportEvents interface {
	ConnOpened(h Handle)
	ConnFailed(h Handle, err error)
	ConnMessage(h Handle, data []byte)
	ConnClosed(h Handle)
}
