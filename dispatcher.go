package phxkit

import (
	"fmt"
	"sync"
)

// HandlerFunc consumes one inbound channel message.
type HandlerFunc func(msg ChannelMessageReceived)

// Dispatcher is an optional convenience over the raw notification stream: it
// routes ChannelMessageReceived notifications to handlers registered by
// (topic, event). Consumers that want full control read Notifications
// directly instead.
type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[dispatchKey]HandlerFunc
	unmatched HandlerFunc
}

type dispatchKey struct {
	topic string
	event string
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[dispatchKey]HandlerFunc)}
}

// Handle registers fn for messages on the given topic and event name.
// Registering the same pair twice is an error.
func (d *Dispatcher) Handle(topic, event string, fn HandlerFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dispatchKey{topic: topic, event: event}
	if _, exists := d.handlers[key]; exists {
		return fmt.Errorf("handler already registered for %s %s", topic, event)
	}
	d.handlers[key] = fn
	return nil
}

// HandleUnmatched registers a fallback for messages no handler matches.
func (d *Dispatcher) HandleUnmatched(fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmatched = fn
}

// Run consumes notifications until the channel closes. Channel messages are
// routed to handlers; every other notification kind is passed to onOther
// when it is non-nil.
func (d *Dispatcher) Run(notifs <-chan Notification, onOther func(Notification)) {
	for n := range notifs {
		msg, ok := n.(ChannelMessageReceived)
		if !ok {
			if onOther != nil {
				onOther(n)
			}
			continue
		}
		d.dispatch(msg)
	}
}

func (d *Dispatcher) dispatch(msg ChannelMessageReceived) {
	d.mu.RLock()
	fn, ok := d.handlers[dispatchKey{topic: msg.Topic, event: msg.Event}]
	if !ok {
		fn = d.unmatched
	}
	d.mu.RUnlock()

	if fn != nil {
		fn(msg)
	}
}
