// Package phxkit manages one client session of the Phoenix channels
// protocol: a single persistent WebSocket carrying JSON envelopes
// ({topic, event, payload, ref}) with multiplexed channel join/leave,
// periodic heartbeats, and reply correlation by ref.
//
// The Session is declarative: call Listen with the URL and the full set of
// channels you want to be on, as often as you like (every tick of your own
// update loop is fine). The session diffs the desired set against what it
// already has and emits only the necessary connect, join and leave work.
// Reconnection with backoff, heartbeat keep-alive and join acknowledgment
// are handled internally; everything the consumer needs to see arrives on
// the Notifications stream.
//
// Basic usage:
//
//	session, err := phxkit.NewSession(phxkit.Config{},
//	    phxkit.LogErrors(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	session.Listen("ws://localhost:4000/socket/websocket", map[string]phxkit.ChannelSpec{
//	    "lobby": {Topic: "room:lobby", Params: map[string]string{"name": "sam"}},
//	})
//
//	for n := range session.Notifications() {
//	    switch n := n.(type) {
//	    case phxkit.ChannelMessageReceived:
//	        fmt.Println(n.Topic, n.Event, string(n.Payload))
//	    }
//	}
//
// A channel's identity is its map key, not its topic or params. Changing
// params under an unchanged key is deliberately a no-op; change the key to
// leave and rejoin.
package phxkit
