package phxkit

import (
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// closeCodeNormal is the WebSocket normal-closure code used when the session
// abandons or shuts down a connection.
const closeCodeNormal = 1000

// pushRefPrefix namespaces push refs away from join refs, which use the
// consumer-chosen channel key. Without it a numeric channel key could
// swallow the reply to a push with the same counter value.
const pushRefPrefix = "push:"

// ReplyFunc receives the reply correlated to a Push. err is ErrNotConnected
// when the push was attempted without an open connection, ErrDisconnected
// when the connection was lost (or the session closed) before a reply
// arrived. It runs on the session's event goroutine and must not block.
type ReplyFunc func(reply Reply, err error)

// event is one unit of work for the session loop. Consumer calls, transport
// callbacks and timer firings all arrive as events and are processed to
// completion, one at a time, in arrival order.
type event interface {
	sessionEvent()
}

type listenEvent struct {
	url     string
	desired map[string]ChannelSpec
}

type pushEvent struct {
	topic   string
	event   string
	payload any
	fn      ReplyFunc
}

type connOpenedEvent struct{ h Handle }

type connFailedEvent struct {
	h   Handle
	err error
}

type connMessageEvent struct {
	h    Handle
	data []byte
}

type connClosedEvent struct{ h Handle }

type retryEvent struct{ url string }

type heartbeatEvent struct{}

type shutdownEvent struct{}

func (listenEvent) sessionEvent()      {}
func (pushEvent) sessionEvent()        {}
func (connOpenedEvent) sessionEvent()  {}
func (connFailedEvent) sessionEvent()  {}
func (connMessageEvent) sessionEvent() {}
func (connClosedEvent) sessionEvent()  {}
func (retryEvent) sessionEvent()       {}
func (heartbeatEvent) sessionEvent()   {}
func (shutdownEvent) sessionEvent()    {}

// Session owns one logical socket connection and its channel memberships.
// State is mutated by exactly one goroutine, the event loop; every public
// method only posts an event onto its queue.
type Session struct {
	cfg       Config
	transport Transport
	clock     Clock
	logger    zerolog.Logger
	onError   ErrorHandler

	state   sessionState
	desired map[string]ChannelSpec // latest Listen intent, applied on open

	events chan event
	notifs chan Notification

	stopHeartbeat func()
	closeOnce     sync.Once
	done          chan struct{}
}

// NewSession creates a session in the Closed state and starts its event
// loop. The onError handler receives session-level errors that cannot be
// returned to a direct caller (decode failures, dropped notifications, write
// failures); it must not be nil. No connection is attempted until Listen.
func NewSession(cfg Config, onError ErrorHandler, opts ...Option) (*Session, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	if onError == nil {
		return nil, errors.New("ErrorHandler must not be nil")
	}

	s := &Session{
		cfg:     resolved,
		clock:   systemClock{},
		logger:  zerolog.Nop(),
		onError: onError,
		state:   closedState{},
		events:  make(chan event, 64),
		notifs:  make(chan Notification, resolved.NotifyBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transport == nil {
		s.transport = NewWebsocketTransport()
	}
	s.logger = s.logger.With().Str("session", uuid.NewString()).Logger()
	s.transport.Bind(transportSink{s})

	s.stopHeartbeat = s.clock.Every(resolved.HeartbeatInterval, func() {
		s.post(heartbeatEvent{})
	})

	go s.run()
	return s, nil
}

// Listen declares the desired connection URL and channel membership. It is
// idempotent and safe to call on every tick of the host's update loop: the
// session diffs against current state and emits only the necessary connect,
// join and leave work. Changing the URL abandons the previous connection
// lineage and starts a fresh one with a reset backoff counter.
func (s *Session) Listen(url string, channels map[string]ChannelSpec) error {
	if url == "" {
		return errors.New("url must not be empty")
	}
	desired := make(map[string]ChannelSpec, len(channels))
	for key, spec := range channels {
		desired[key] = spec
	}
	if !s.post(listenEvent{url: url, desired: desired}) {
		return ErrSessionClosed
	}
	return nil
}

// Push sends an arbitrary event on a channel topic with a unique monotonic
// ref. Push refs live in their own namespace, so they never collide with a
// channel key used as a join ref. When fn is non-nil it is invoked once with
// the correlated reply, or with an error if no connection is open or the
// connection is lost first.
func (s *Session) Push(topic, event string, payload any, fn ReplyFunc) error {
	if !s.post(pushEvent{topic: topic, event: event, payload: payload, fn: fn}) {
		return ErrSessionClosed
	}
	return nil
}

// Notifications returns the session's notification stream, delivered in
// emission order. The channel is closed when the session closes.
func (s *Session) Notifications() <-chan Notification {
	return s.notifs
}

// Close shuts the session down: a live connection is closed, pending push
// continuations fail with ErrDisconnected, and the notification channel is
// closed. Close blocks until the event loop has exited and is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.post(shutdownEvent{})
	})
	<-s.done
	return nil
}

// post enqueues an event, reporting false once the session has shut down.
// The closed check takes priority over the send: the queue is buffered, so a
// send could otherwise still succeed after the loop has exited and silently
// strand the event.
func (s *Session) post(ev event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) run() {
	defer close(s.notifs)
	defer close(s.done)
	for ev := range s.events {
		if _, ok := ev.(shutdownEvent); ok {
			s.shutdown()
			return
		}
		s.handle(ev)
	}
}

// handle is the per-event reducer. Each invocation completes atomically with
// respect to the state: mutate once, emit commands, emit a notification.
func (s *Session) handle(ev event) {
	switch ev := ev.(type) {
	case listenEvent:
		s.handleListen(ev)
	case connOpenedEvent:
		s.handleOpened(ev.h)
	case connFailedEvent:
		s.handleFailed(ev.h, ev.err)
	case connMessageEvent:
		s.handleFrame(ev.h, ev.data)
	case connClosedEvent:
		// No transition is defined for a close; it is informational.
		s.logger.Debug().Str("url", ev.h.URL()).Msg("connection closed")
	case retryEvent:
		s.handleRetry(ev.url)
	case heartbeatEvent:
		s.handleHeartbeat()
	case pushEvent:
		s.handlePush(ev)
	}
}

func (s *Session) handleListen(ev listenEvent) {
	s.desired = ev.desired

	switch st := s.state.(type) {
	case closedState:
		s.open(ev.url)

	case *openingState:
		if st.url == ev.url {
			return // already pursuing this url
		}
		s.open(ev.url)

	case *openState:
		if st.url == ev.url {
			s.applyDiff(st, reconcileChannels(st.channels, ev.desired))
			return
		}
		s.failPending(st, ErrDisconnected)
		s.transport.Close(st.handle, closeCodeNormal, "New URL")
		s.open(ev.url)
	}
}

// open starts a fresh connection lineage for url with a zeroed backoff
// counter.
func (s *Session) open(url string) {
	s.state = &openingState{url: url}
	s.logger.Debug().Str("url", url).Msg("opening connection")
	s.transport.Open(url)
}

func (s *Session) handleOpened(h Handle) {
	switch st := s.state.(type) {
	case *openingState:
		if st.url == h.URL() {
			open := &openState{
				url:      st.url,
				handle:   h,
				channels: make(map[string]channelEntry),
				pending:  make(map[string]ReplyFunc),
			}
			s.state = open
			s.logger.Debug().Str("url", st.url).Msg("connection established")
			s.notify(ConnectionEstablished{URL: st.url})
			s.applyDiff(open, reconcileChannels(open.channels, s.desired))
			return
		}
	case *openState:
		if st.handle == h {
			return // duplicate open for the live handle
		}
	}

	// A socket opened for a URL the session no longer wants. Close it
	// rather than leak it.
	s.logger.Debug().Str("url", h.URL()).Msg("stale connection opened, closing")
	s.transport.Close(h, closeCodeNormal, "New URL")
}

func (s *Session) handleFailed(h Handle, err error) {
	st, ok := s.state.(*openingState)
	if !ok || st.url != h.URL() {
		s.logger.Debug().Str("url", h.URL()).Err(err).Msg("stale connection error discarded")
		return
	}

	wait := retryWait(st.attempts)
	st.attempts++
	url := st.url
	s.clock.AfterFunc(wait, func() {
		s.post(retryEvent{url: url})
	})
	s.logger.Debug().Str("url", url).Dur("wait", wait).Err(err).Msg("connect failed, retry scheduled")
	s.notify(ConnectionRetryScheduled{URL: url, Wait: wait})
}

func (s *Session) handleRetry(url string) {
	st, ok := s.state.(*openingState)
	if !ok || st.url != url {
		return // the timer's target lineage was superseded
	}
	s.transport.Open(url)
}

func (s *Session) handleHeartbeat() {
	st, ok := s.state.(*openState)
	if !ok {
		return
	}
	s.send(st, heartbeatRequest())
}

func (s *Session) handleFrame(h Handle, data []byte) {
	msg, reply, err := decodeInbound(data)
	if err != nil {
		s.report(SessionError{
			Kind:      ErrDecodeFailure,
			URL:       h.URL(),
			Cause:     err,
			Raw:       data,
			Timestamp: time.Now(),
		})
		return
	}
	if msg != nil {
		s.notify(ChannelMessageReceived{Topic: msg.Topic, Event: msg.Event, Payload: msg.Payload})
		return
	}
	s.handleReply(*reply)
}

func (s *Session) handleReply(reply Reply) {
	if reply.Topic == heartbeatTopic {
		s.logger.Debug().Msg("heartbeat acknowledged")
		return
	}

	if st, ok := s.state.(*openState); ok {
		if entry, ok := st.channels[reply.Ref]; ok && !entry.joined && entry.topic == reply.Topic {
			if reply.Status == StatusOk {
				entry.joined = true
				st.channels[reply.Ref] = entry
				s.logger.Debug().Str("topic", reply.Topic).Str("key", reply.Ref).Msg("channel joined")
				return
			}
			// A rejected join surfaces below; the entry stays unjoined
			// so the consumer can decide what to do.
		}
		if fn, ok := st.pending[reply.Ref]; ok {
			delete(st.pending, reply.Ref)
			fn(reply, nil)
			return
		}
	}

	s.notify(ChannelReplyReceived{
		Topic:    reply.Topic,
		Status:   reply.Status,
		Response: reply.Response,
		Ref:      reply.Ref,
	})
}

func (s *Session) handlePush(ev pushEvent) {
	st, ok := s.state.(*openState)
	if !ok {
		if ev.fn != nil {
			ev.fn(Reply{}, ErrNotConnected)
		}
		return
	}

	st.nextRef++
	ref := pushRefPrefix + strconv.Itoa(st.nextRef)
	env, err := newRequest(ev.topic, ev.event, ev.payload, ref)
	if err != nil {
		s.report(SessionError{Kind: ErrEncodeFailure, URL: st.url, Cause: err, Timestamp: time.Now()})
		if ev.fn != nil {
			ev.fn(Reply{}, err)
		}
		return
	}
	if ev.fn != nil {
		st.pending[ref] = ev.fn
	}
	s.send(st, env)
}

// applyDiff installs the reconciled channel map and sends the queued join
// and leave requests.
func (s *Session) applyDiff(st *openState, diff channelDiff) {
	st.channels = diff.next
	for _, key := range diff.joins {
		entry := diff.next[key]
		env, err := joinRequest(key, entry.topic, entry.params)
		if err != nil {
			s.report(SessionError{Kind: ErrEncodeFailure, URL: st.url, Cause: err, Timestamp: time.Now()})
			continue
		}
		s.send(st, env)
	}
	for _, topic := range diff.leaves {
		s.send(st, leaveRequest(topic))
	}
}

func (s *Session) send(st *openState, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		s.report(SessionError{Kind: ErrEncodeFailure, URL: st.url, Cause: err, Timestamp: time.Now()})
		return
	}
	if err := s.transport.Send(st.handle, data); err != nil {
		s.report(SessionError{Kind: ErrTransportWrite, URL: st.url, Cause: err, Timestamp: time.Now()})
	}
}

// failPending discards all outstanding push correlations; their refs are
// invalid on any future connection.
func (s *Session) failPending(st *openState, err error) {
	for ref, fn := range st.pending {
		delete(st.pending, ref)
		fn(Reply{}, err)
	}
}

func (s *Session) notify(n Notification) {
	select {
	case s.notifs <- n:
	default:
		s.report(SessionError{Kind: ErrNotifyOverflow, Timestamp: time.Now()})
	}
}

func (s *Session) report(e SessionError) {
	s.onError(e)
}

func (s *Session) shutdown() {
	s.stopHeartbeat()
	if st, ok := s.state.(*openState); ok {
		s.failPending(st, ErrDisconnected)
		s.transport.Close(st.handle, closeCodeNormal, "Session closed")
	}
	s.state = closedState{}
}

// transportSink funnels transport callbacks onto the session's event queue.
type transportSink struct {
	s *Session
}

func (t transportSink) ConnOpened(h Handle) {
	t.s.post(connOpenedEvent{h: h})
}

func (t transportSink) ConnFailed(h Handle, err error) {
	t.s.post(connFailedEvent{h: h, err: err})
}

func (t transportSink) ConnMessage(h Handle, data []byte) {
	t.s.post(connMessageEvent{h: h, data: data})
}

func (t transportSink) ConnClosed(h Handle) {
	t.s.post(connClosedEvent{h: h})
}
