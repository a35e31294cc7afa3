package phxkit

// ChannelSpec describes one desired channel subscription, keyed in the map
// passed to Listen by a consumer-chosen channel key. The key, not the topic
// or params, is the identity used for reconciliation: if the key is changed,
// the channel is left and rejoined.
type ChannelSpec struct {
	Topic  string
	Params any
}

// channelEntry is the live record for one channel on the current connection.
// joined flips to true only when a successful join reply arrives whose ref
// matches the key used to send the join.
type channelEntry struct {
	topic  string
	params any
	joined bool
}

// sessionState is the connection lifecycle, a closed sum of three variants.
// The session is always in exactly one of them.
type sessionState interface {
	sessionState()
}

// closedState: no socket attempt has been made.
type closedState struct{}

// openingState: a connect attempt for url is outstanding. attempts counts
// prior failures for this url and indexes the retry schedule; it resets to
// zero whenever a new url is requested.
type openingState struct {
	url      string
	attempts int
}

// openState: the socket is live. The url and handle anchor the staleness
// guards; events carrying any other url belong to an abandoned lineage.
type openState struct {
	url      string
	handle   Handle
	channels map[string]channelEntry
	nextRef  int                  // monotonic per-connection ref counter for pushes
	pending  map[string]ReplyFunc // wire ref -> push continuation
}

func (closedState) sessionState()   {}
func (*openingState) sessionState() {}
func (*openState) sessionState()    {}
