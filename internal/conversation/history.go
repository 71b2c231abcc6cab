package conversation

import "sync"

// maxHistoryEntries bounds stored turns per conversation: five exchanges.
const maxHistoryEntries = 10

// EntryRole distinguishes user turns from assistant turns.
type EntryRole string

const (
	RoleUser      EntryRole = "user"
	RoleAssistant EntryRole = "assistant"
)

// HistoryEntry is a single stored turn.
type HistoryEntry struct {
	Role EntryRole
	Text string
}

// HistoryStore is an in-memory, per-conversation bounded history.
// It is safe for concurrent use; different keys never contend beyond the map
// lock, and same-key races are accepted for a chat-paced workload.
type HistoryStore struct {
	mu      sync.RWMutex
	history map[Key][]HistoryEntry
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{history: make(map[Key][]HistoryEntry)}
}

// History returns a copy of the stored turns for the key, oldest first.
// A key never seen before yields an empty list.
func (s *HistoryStore) History(key Key) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[key]
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// Append records one user/assistant exchange, then evicts from the front
// until the list holds at most ten entries.
func (s *HistoryStore) Append(key Key, userTurn, assistantTurn string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.history[key],
		HistoryEntry{Role: RoleUser, Text: userTurn},
		HistoryEntry{Role: RoleAssistant, Text: assistantTurn},
	)
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	s.history[key] = entries
}

// Len returns the number of stored entries for the key.
func (s *HistoryStore) Len(key Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history[key])
}
