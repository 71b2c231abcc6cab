// Package conversation holds the per-conversation state the router reads and
// writes: bounded chat history and the issue-to-merge workflow record. Both
// live in memory for the process lifetime, keyed by channel and thread.
package conversation

// Key identifies one logical conversation. Messages outside a thread share
// the channel's "main" conversation.
type Key string

// NewKey derives the conversation key from a channel and optional thread.
func NewKey(channel, threadTS string) Key {
	if threadTS == "" {
		threadTS = "main"
	}
	return Key(channel + ":" + threadTS)
}

func (k Key) String() string { return string(k) }
