package phxkit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Phoenix channel protocol event names.
const (
	eventJoin      = "phx_join"
	eventLeave     = "phx_leave"
	eventReply     = "phx_reply"
	eventHeartbeat = "heartbeat"
)

// heartbeatTopic is the control topic heartbeats are sent and acknowledged on.
const heartbeatTopic = "phoenix"

// heartbeatRef is the fixed ref attached to every heartbeat request.
const heartbeatRef = "heartbeat"

// Envelope is the wire format in both directions (JSON object variant).
type Envelope struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

// ReplyStatus is the decoded status of a phx_reply. The literal string "ok"
// decodes to StatusOk; anything else is StatusError.
type ReplyStatus int

const (
	StatusOk ReplyStatus = iota
	StatusError
)

func (s ReplyStatus) String() string {
	if s == StatusOk {
		return "ok"
	}
	return "error"
}

// Message is an inbound channel event (any event other than phx_reply).
type Message struct {
	Topic   string
	Event   string
	Payload json.RawMessage
}

// Reply is an inbound phx_reply, acknowledging a prior request by ref.
type Reply struct {
	Topic    string
	Status   ReplyStatus
	Response json.RawMessage
	Ref      string
}

// decodeInbound parses one wire frame and classifies it as either a plain
// channel Message or a Reply. Exactly one of the two results is non-nil on
// success.
func decodeInbound(data []byte) (*Message, *Reply, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Topic == "" || env.Event == "" {
		return nil, nil, errors.New("envelope missing topic or event")
	}

	if env.Event != eventReply {
		return &Message{Topic: env.Topic, Event: env.Event, Payload: env.Payload}, nil, nil
	}

	var body struct {
		Status   string          `json:"status"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(env.Payload, &body); err != nil {
		return nil, nil, fmt.Errorf("parse reply payload: %w", err)
	}
	status := StatusError
	if body.Status == "ok" {
		status = StatusOk
	}
	return nil, &Reply{
		Topic:    env.Topic,
		Status:   status,
		Response: body.Response,
		Ref:      env.Ref,
	}, nil
}

// newRequest builds an outbound envelope, marshaling the payload. A nil
// payload becomes an empty JSON object.
func newRequest(topic, event string, payload any, ref string) (Envelope, error) {
	raw := json.RawMessage(`{}`)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}
	return Envelope{Topic: topic, Event: event, Payload: raw, Ref: ref}, nil
}

// joinRequest asks the server to join a channel. Its ref is the channel key,
// which is how the join reply is later matched back to the entry.
func joinRequest(key, topic string, params any) (Envelope, error) {
	return newRequest(topic, eventJoin, params, key)
}

// leaveRequest asks the server to leave a channel. The server correlates
// leave replies by topic, so the ref is the topic, not the channel key.
func leaveRequest(topic string) Envelope {
	return Envelope{Topic: topic, Event: eventLeave, Payload: json.RawMessage(`{}`), Ref: topic}
}

func heartbeatRequest() Envelope {
	return Envelope{Topic: heartbeatTopic, Event: eventHeartbeat, Payload: json.RawMessage(`{}`), Ref: heartbeatRef}
}
