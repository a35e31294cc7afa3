package phxkit

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestOptions_Apply(t *testing.T) {
	ft := &fakeTransport{}
	fc := &fakeClock{}

	s, err := NewSession(Config{}, discardErrors,
		WithTransport(ft),
		WithClock(fc),
		WithLogger(zerolog.Nop()),
	)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	if s.transport != ft {
		t.Error("WithTransport not applied")
	}
	if s.clock != fc {
		t.Error("WithClock not applied")
	}
	if ft.events == nil {
		t.Error("session did not bind the transport event sink")
	}
}

func TestDefaults_WebsocketTransportAndSystemClock(t *testing.T) {
	s, err := NewSession(Config{}, discardErrors)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer s.Close()

	if _, ok := s.transport.(*wsTransport); !ok {
		t.Errorf("default transport = %T, want *wsTransport", s.transport)
	}
	if _, ok := s.clock.(systemClock); !ok {
		t.Errorf("default clock = %T, want systemClock", s.clock)
	}
}
