package phxkit

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport is the production Transport, backed by gorilla/websocket.
type wsTransport struct {
	dialer *websocket.Dialer
	events TransportEvents
}

// NewWebsocketTransport returns the default WebSocket-backed Transport.
func NewWebsocketTransport() Transport {
	return &wsTransport{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (t *wsTransport) Bind(ev TransportEvents) {
	t.events = ev
}

// wsHandle is one connection attempt. conn is set once the dial succeeds.
type wsHandle struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (h *wsHandle) URL() string {
	return h.url
}

func (t *wsTransport) Open(url string) Handle {
	h := &wsHandle{url: url}
	go t.dial(h)
	return h
}

func (t *wsTransport) dial(h *wsHandle) {
	conn, _, err := t.dialer.Dial(h.url, nil)
	if err != nil {
		t.events.ConnFailed(h, err)
		return
	}

	h.mu.Lock()
	if h.closed {
		// Closed while the dial was in flight; nobody wants this socket.
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conn = conn
	h.mu.Unlock()

	t.events.ConnOpened(h)
	t.readLoop(h, conn)
}

func (t *wsTransport) readLoop(h *wsHandle, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.events.ConnClosed(h)
			return
		}
		t.events.ConnMessage(h, data)
	}
}

func (t *wsTransport) Send(h Handle, data []byte) error {
	wh, ok := h.(*wsHandle)
	if !ok {
		return fmt.Errorf("foreign handle %T", h)
	}

	wh.mu.Lock()
	defer wh.mu.Unlock()
	if wh.conn == nil || wh.closed {
		return ErrNotConnected
	}
	return wh.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close(h Handle, code int, reason string) {
	wh, ok := h.(*wsHandle)
	if !ok {
		return
	}

	wh.mu.Lock()
	if wh.closed {
		wh.mu.Unlock()
		return
	}
	wh.closed = true
	conn := wh.conn
	wh.mu.Unlock()

	if conn == nil {
		return // dial in flight; the dial goroutine closes the socket
	}
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}
