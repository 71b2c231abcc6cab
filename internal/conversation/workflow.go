package conversation

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/devteam-agent/internal/persona"
)

// Stage is the tracked position in the issue-to-merge flow.
type Stage string

const (
	StageInitial          Stage = "initial"
	StageIssueCreated     Stage = "issue_created"
	StageIssueRetrieved   Stage = "issue_retrieved"
	StageBranchCreated    Stage = "branch_created"
	StageCommitCreated    Stage = "commit_created"
	StagePRCreated        Stage = "pr_created"
	StagePRApproved       Stage = "pr_approved"
	StagePRMerged         Stage = "pr_merged"
	StageChangesRequested Stage = "changes_requested"
)

// State is the workflow record for one conversation. The tracker is
// descriptive, not prescriptive: the stage reflects whichever capability last
// succeeded, with ordering enforced upstream by the personas' prompts rather
// than by transition validation here.
type State struct {
	Stage              Stage
	IssueNumber        int
	BranchName         string
	PRNumber           int
	LastAgentRole      persona.Role
	LastFunctionCalled string
}

// Patch carries the fields to merge into a State. Nil pointers leave the
// existing value untouched.
type Patch struct {
	Stage              Stage
	IssueNumber        *int
	BranchName         *string
	PRNumber           *int
	LastAgentRole      persona.Role
	LastFunctionCalled string
}

// Tracker is the in-memory workflow state store, one State per conversation.
type Tracker struct {
	mu     sync.RWMutex
	states map[Key]State
	logger zerolog.Logger
}

// NewTracker creates an empty workflow tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		states: make(map[Key]State),
		logger: logger.With().Str("component", "conversation.tracker").Logger(),
	}
}

// Get returns the state for the key, lazily initialising to StageInitial.
func (t *Tracker) Get(key Key) State {
	t.mu.RLock()
	st, ok := t.states[key]
	t.mu.RUnlock()
	if ok {
		return st
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok = t.states[key]; ok {
		return st
	}
	st = State{Stage: StageInitial}
	t.states[key] = st
	return st
}

// Update shallow-merges the patch into the key's state and returns the result.
// Applying an identical patch twice yields the same state (idempotent merge).
func (t *Tracker) Update(key Key, p Patch) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[key]
	if !ok {
		st = State{Stage: StageInitial}
	}
	prev := st.Stage

	if p.Stage != "" {
		st.Stage = p.Stage
	}
	if p.IssueNumber != nil {
		st.IssueNumber = *p.IssueNumber
	}
	if p.BranchName != nil {
		st.BranchName = *p.BranchName
	}
	if p.PRNumber != nil {
		st.PRNumber = *p.PRNumber
	}
	if p.LastAgentRole != "" {
		st.LastAgentRole = p.LastAgentRole
	}
	if p.LastFunctionCalled != "" {
		st.LastFunctionCalled = p.LastFunctionCalled
	}

	t.states[key] = st
	if st.Stage != prev {
		t.logger.Info().
			Str("conversation", key.String()).
			Str("from", string(prev)).
			Str("to", string(st.Stage)).
			Msg("workflow stage transition")
	}
	return st
}

// Reset deletes the key's state. Debug and test use only.
func (t *Tracker) Reset(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, key)
	t.logger.Info().Str("conversation", key.String()).Msg("workflow state reset")
}

// Count returns the number of tracked conversations.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}

// Int returns a pointer to v, for building Patches.
func Int(v int) *int { return &v }

// Str returns a pointer to v, for building Patches.
func Str(v string) *string { return &v }
