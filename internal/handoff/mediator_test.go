package handoff

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/devteam-agent/internal/conversation"
	"github.com/p-blackswan/devteam-agent/internal/persona"
)

func newMediator(t *testing.T) (*Mediator, *persona.Registry, *conversation.Tracker) {
	t.Helper()
	reg := persona.NewRegistry(zerolog.Nop())
	require.NoError(t, persona.RegisterDefaultTeam(reg))
	tracker := conversation.NewTracker(zerolog.Nop())
	return NewMediator(reg, tracker, zerolog.Nop()), reg, tracker
}

func TestDetermineNextPersona_ExplicitMentionWins(t *testing.T) {
	m, _, tracker := newMediator(t)

	// Stage routing and keywords both point at the developer; the explicit
	// mention of the QA tester outranks them.
	tracker.Update(conversation.NewKey("C1", ""), conversation.Patch{Stage: conversation.StageIssueCreated})

	got := m.DetermineNextPersona("C1", "", []string{"qa"}, "please implement this")
	require.NotNil(t, got)
	assert.Equal(t, "qa", got.ID)
}

func TestDetermineNextPersona_UnresolvedMentionFallsThrough(t *testing.T) {
	m, _, _ := newMediator(t)

	got := m.DetermineNextPersona("C1", "", []string{"U_UNKNOWN"}, "please review the code")
	require.NotNil(t, got)
	assert.Equal(t, persona.RoleCodeReviewer, got.Role)
}

func TestDetermineNextPersona_MultipleMentions_RoleInTextBreaksTie(t *testing.T) {
	m, _, _ := newMediator(t)

	got := m.DetermineNextPersona("C1", "", []string{"dev", "reviewer"}, "the code reviewer should take this")
	require.NotNil(t, got)
	assert.Equal(t, "reviewer", got.ID)
}

func TestDetermineNextPersona_MultipleMentions_FirstWinsWithoutRole(t *testing.T) {
	m, _, _ := newMediator(t)

	got := m.DetermineNextPersona("C1", "", []string{"dev", "reviewer"}, "someone take this")
	require.NotNil(t, got)
	assert.Equal(t, "dev", got.ID)
}

func TestDetermineNextPersona_StageRouting(t *testing.T) {
	m, _, tracker := newMediator(t)

	cases := []struct {
		stage conversation.Stage
		role  persona.Role
	}{
		{conversation.StageIssueCreated, persona.RoleDeveloper},
		{conversation.StageIssueRetrieved, persona.RoleDeveloper},
		{conversation.StageCommitCreated, persona.RoleDeveloper},
		{conversation.StagePRCreated, persona.RoleCodeReviewer},
		{conversation.StageChangesRequested, persona.RoleDeveloper},
		{conversation.StagePRApproved, persona.RoleDeveloper},
		{conversation.StagePRMerged, persona.RoleProjectManager},
	}
	for _, tc := range cases {
		tracker.Update(conversation.NewKey("C1", string(tc.stage)), conversation.Patch{Stage: tc.stage})
		got := m.DetermineNextPersona("C1", string(tc.stage), nil, "no keywords here")
		require.NotNil(t, got, "stage %s", tc.stage)
		assert.Equal(t, tc.role, got.Role, "stage %s", tc.stage)
	}
}

func TestDetermineNextPersona_InitialStageHasNoSuccessor(t *testing.T) {
	m, _, _ := newMediator(t)

	got := m.DetermineNextPersona("C1", "", nil, "no keywords here")
	assert.Nil(t, got)
}

func TestDetermineNextPersona_KeywordFallback(t *testing.T) {
	m, _, _ := newMediator(t)

	cases := []struct {
		text string
		role persona.Role
	}{
		{"we should plan the next sprint", persona.RoleProjectManager},
		{"implement the login flow", persona.RoleDeveloper},
		{"someone review the code", persona.RoleCodeReviewer},
		{"verify the fix works", persona.RoleQATester},
		{"update the readme", persona.RoleTechnicalWriter},
	}
	for _, tc := range cases {
		got := m.DetermineNextPersona("C1", "", nil, tc.text)
		require.NotNil(t, got, "text %q", tc.text)
		assert.Equal(t, tc.role, got.Role, "text %q", tc.text)
	}
}

func TestDetermineNextPersona_NoRuleMatches(t *testing.T) {
	m, _, _ := newMediator(t)

	assert.Nil(t, m.DetermineNextPersona("C1", "", nil, "good morning everyone"))
}

func TestStageRouting_LoadBalancesAcrossAvailability(t *testing.T) {
	m, reg, tracker := newMediator(t)
	require.NoError(t, reg.Register(&persona.Persona{ID: "dev2", DisplayName: "Second Developer", Role: persona.RoleDeveloper}))

	key := conversation.NewKey("C1", "")
	tracker.Update(key, conversation.Patch{Stage: conversation.StageIssueCreated})

	got := m.DetermineNextPersona("C1", "", nil, "carry on")
	require.NotNil(t, got)
	assert.Equal(t, "dev", got.ID)

	reg.MarkBusy("dev")
	got = m.DetermineNextPersona("C1", "", nil, "carry on")
	require.NotNil(t, got)
	assert.Equal(t, "dev2", got.ID)

	reg.MarkBusy("dev2")
	assert.Nil(t, m.DetermineNextPersona("C1", "", nil, "carry on"))
}
