package conversation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/p-blackswan/devteam-agent/internal/persona"
)

func TestTracker_LazyInit(t *testing.T) {
	tr := NewTracker(zerolog.Nop())

	state := tr.Get(NewKey("C1", ""))
	assert.Equal(t, StageInitial, state.Stage)
	assert.Equal(t, 0, state.IssueNumber)
	assert.Equal(t, 1, tr.Count())
}

func TestTracker_UpdateMergesPatch(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	key := NewKey("C1", "T1")

	tr.Update(key, Patch{Stage: StageIssueCreated, IssueNumber: Int(42)})
	tr.Update(key, Patch{Stage: StageBranchCreated, BranchName: Str("feature/42-login")})

	state := tr.Get(key)
	assert.Equal(t, StageBranchCreated, state.Stage)
	assert.Equal(t, 42, state.IssueNumber)
	assert.Equal(t, "feature/42-login", state.BranchName)
}

func TestTracker_UpdateLeavesUnsetFields(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	key := NewKey("C1", "")

	tr.Update(key, Patch{Stage: StagePRCreated, PRNumber: Int(7)})
	tr.Update(key, Patch{LastAgentRole: persona.RoleDeveloper, LastFunctionCalled: "createPullRequest"})

	state := tr.Get(key)
	assert.Equal(t, StagePRCreated, state.Stage)
	assert.Equal(t, 7, state.PRNumber)
	assert.Equal(t, persona.RoleDeveloper, state.LastAgentRole)
	assert.Equal(t, "createPullRequest", state.LastFunctionCalled)
}

// Stage transitions are not validated; any ordering is recorded as-is.
func TestTracker_PermissiveTransitions(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	key := NewKey("C1", "")

	tr.Update(key, Patch{Stage: StagePRMerged})
	tr.Update(key, Patch{Stage: StageIssueCreated})

	assert.Equal(t, StageIssueCreated, tr.Get(key).Stage)
}

func TestTracker_SamePatchIdempotent(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	key := NewKey("C1", "")

	first := tr.Update(key, Patch{Stage: StageIssueCreated, IssueNumber: Int(5)})
	second := tr.Update(key, Patch{Stage: StageIssueCreated, IssueNumber: Int(5)})

	assert.Equal(t, first, second)
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	key := NewKey("C1", "T1")

	tr.Update(key, Patch{Stage: StagePRCreated, PRNumber: Int(3)})
	tr.Reset(key)

	state := tr.Get(key)
	assert.Equal(t, StageInitial, state.Stage)
	assert.Equal(t, 0, state.PRNumber)
}

func TestTracker_IndependentConversations(t *testing.T) {
	tr := NewTracker(zerolog.Nop())

	tr.Update(NewKey("C1", ""), Patch{Stage: StageIssueCreated})
	tr.Update(NewKey("C1", "T1"), Patch{Stage: StagePRCreated})

	assert.Equal(t, StageIssueCreated, tr.Get(NewKey("C1", "")).Stage)
	assert.Equal(t, StagePRCreated, tr.Get(NewKey("C1", "T1")).Stage)
}
