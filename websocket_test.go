package phxkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockPhoenixServer simulates a Phoenix endpoint for transport tests.
type mockPhoenixServer struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conn     *websocket.Conn
	received []Envelope
	onMsg    func(Envelope)
}

func newMockServer() *mockPhoenixServer {
	return &mockPhoenixServer{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *mockPhoenixServer) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		s.mu.Lock()
		s.received = append(s.received, env)
		handler := s.onMsg
		s.mu.Unlock()

		if handler != nil {
			handler(env)
		}
	}
}

func (s *mockPhoenixServer) sendToClient(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		data, _ := json.Marshal(env)
		s.conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (s *mockPhoenixServer) getReceived() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Envelope(nil), s.received...)
}

func setupMockServer(t *testing.T) (*mockPhoenixServer, string) {
	t.Helper()
	mock := newMockServer()
	server := httptest.NewServer(http.HandlerFunc(mock.handler))
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/socket/websocket"
	return mock, wsURL
}

func TestWebsocket_SessionJoinAndMessage(t *testing.T) {
	mock, wsURL := setupMockServer(t)
	mock.onMsg = func(env Envelope) {
		if env.Event == eventJoin {
			mock.sendToClient(Envelope{
				Topic:   env.Topic,
				Event:   eventReply,
				Ref:     env.Ref,
				Payload: json.RawMessage(`{"status":"ok","response":{}}`),
			})
			mock.sendToClient(Envelope{
				Topic:   env.Topic,
				Event:   "new_msg",
				Payload: json.RawMessage(`{"text":"hi"}`),
			})
		}
	}

	s, err := NewSession(Config{}, discardErrors)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	if err := s.Listen(wsURL, map[string]ChannelSpec{"lobby": {Topic: "room:lobby"}}); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	if n := nextNotification(t, s); n != (ConnectionEstablished{URL: wsURL}) {
		t.Errorf("notification = %#v, want ConnectionEstablished", n)
	}

	// The join ack is consumed internally; the next surfaced notification
	// is the channel message.
	n := nextNotification(t, s)
	msg, ok := n.(ChannelMessageReceived)
	if !ok || msg.Topic != "room:lobby" || msg.Event != "new_msg" {
		t.Fatalf("notification = %#v, want ChannelMessageReceived{room:lobby, new_msg}", n)
	}

	received := mock.getReceived()
	if len(received) == 0 {
		t.Fatal("server received nothing")
	}
	join := received[0]
	if join.Event != eventJoin || join.Topic != "room:lobby" || join.Ref != "lobby" {
		t.Errorf("join = %+v, want phx_join on room:lobby with ref lobby", join)
	}
}

func TestWebsocket_PushRoundTrip(t *testing.T) {
	mock, wsURL := setupMockServer(t)
	mock.onMsg = func(env Envelope) {
		switch env.Event {
		case eventJoin:
			mock.sendToClient(Envelope{
				Topic: env.Topic, Event: eventReply, Ref: env.Ref,
				Payload: json.RawMessage(`{"status":"ok","response":{}}`),
			})
		case "shout":
			mock.sendToClient(Envelope{
				Topic: env.Topic, Event: eventReply, Ref: env.Ref,
				Payload: json.RawMessage(`{"status":"ok","response":{"echo":true}}`),
			})
		}
	}

	s, err := NewSession(Config{}, discardErrors)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	s.Listen(wsURL, map[string]ChannelSpec{"lobby": {Topic: "room:lobby"}})
	nextNotification(t, s) // ConnectionEstablished

	replyCh := make(chan Reply, 1)
	s.Push("room:lobby", "shout", map[string]string{"text": "hi"}, func(r Reply, err error) {
		if err == nil {
			replyCh <- r
		}
	})

	select {
	case r := <-replyCh:
		if r.Status != StatusOk {
			t.Errorf("reply status = %v, want ok", r.Status)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("push reply never arrived")
	}
}

func TestWebsocket_DialFailureSchedulesRetry(t *testing.T) {
	s, err := NewSession(Config{}, discardErrors)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	// Nothing listens on port 1; the dial fails fast.
	s.Listen("ws://127.0.0.1:1/socket/websocket", nil)

	n := nextNotification(t, s)
	retry, ok := n.(ConnectionRetryScheduled)
	if !ok {
		t.Fatalf("notification = %#v, want ConnectionRetryScheduled", n)
	}
	if retry.Wait != 1*time.Second {
		t.Errorf("first retry wait = %v, want 1s", retry.Wait)
	}
}

func TestWebsocketTransport_SendBeforeDialCompletes(t *testing.T) {
	tr := NewWebsocketTransport()
	h := &wsHandle{url: "ws://x"}

	if err := tr.Send(h, []byte(`{}`)); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() = %v, want ErrNotConnected", err)
	}
	// Closing a handle whose dial never completed must not panic.
	tr.Close(h, closeCodeNormal, "bye")
	tr.Close(h, closeCodeNormal, "bye") // idempotent
}
