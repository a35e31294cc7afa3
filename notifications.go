package phxkit

import (
	"encoding/json"
	"time"
)

// Notification is one element of the consumer-facing event stream, delivered
// in emission order on Session.Notifications.
type Notification interface {
	notification()
}

// ConnectionRetryScheduled reports a failed connect attempt and the wait
// before the next one.
type ConnectionRetryScheduled struct {
	URL  string
	Wait time.Duration
}

// ConnectionEstablished reports that the socket for URL is open.
type ConnectionEstablished struct {
	URL string
}

// ChannelMessageReceived carries one inbound channel event.
type ChannelMessageReceived struct {
	Topic   string
	Event   string
	Payload json.RawMessage
}

// ChannelReplyReceived carries a reply that was not consumed internally.
// Heartbeat acks and successful pending-join acks never surface.
type ChannelReplyReceived struct {
	Topic    string
	Status   ReplyStatus
	Response json.RawMessage
	Ref      string
}

func (ConnectionRetryScheduled) notification() {}
func (ConnectionEstablished) notification()    {}
func (ChannelMessageReceived) notification()   {}
func (ChannelReplyReceived) notification()     {}
