package phxkit

// channelDiff is the outcome of reconciling the live channel map against a
// desired set: the next map plus the joins and leaves to send. No ordering
// is promised between distinct channel operations.
type channelDiff struct {
	next   map[string]channelEntry
	joins  []string // channel keys newly added; entries live in next
	leaves []string // topics of entries that were dropped
}

// reconcileChannels partitions by key membership. Keys present on both sides
// carry the current entry over untouched, deliberately ignoring any params
// change in the desired entry. Keys only in desired become fresh unjoined
// entries with a queued join; keys only in current are dropped with a queued
// leave.
func reconcileChannels(current map[string]channelEntry, desired map[string]ChannelSpec) channelDiff {
	diff := channelDiff{next: make(map[string]channelEntry, len(desired))}

	for key, spec := range desired {
		if entry, ok := current[key]; ok {
			diff.next[key] = entry
			continue
		}
		diff.next[key] = channelEntry{topic: spec.Topic, params: spec.Params}
		diff.joins = append(diff.joins, key)
	}

	for key, entry := range current {
		if _, ok := desired[key]; !ok {
			diff.leaves = append(diff.leaves, entry.topic)
		}
	}

	return diff
}
