package persona

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(zerolog.Nop())
	require.NoError(t, RegisterDefaultTeam(reg))
	return reg
}

func TestRegister_DuplicateID(t *testing.T) {
	reg := newTestRegistry(t)

	err := reg.Register(&Persona{ID: "dev", DisplayName: "Another Dev", Role: RoleDeveloper})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegister_InvalidPersona(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	assert.Error(t, reg.Register(&Persona{DisplayName: "No ID", Role: RoleDeveloper}))
	assert.Error(t, reg.Register(&Persona{ID: "x", DisplayName: "Bad Role", Role: Role("INTERN")}))
}

func TestAll_RegistrationOrder(t *testing.T) {
	reg := newTestRegistry(t)

	var ids []string
	for _, p := range reg.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"pm", "dev", "reviewer", "qa", "writer"}, ids)
}

func TestByRole(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(&Persona{ID: "dev2", DisplayName: "Second Developer", Role: RoleDeveloper}))

	devs := reg.ByRole(RoleDeveloper)
	require.Len(t, devs, 2)
	assert.Equal(t, "dev", devs[0].ID)
	assert.Equal(t, "dev2", devs[1].ID)
}

func TestFirstAvailableByRole_SkipsBusy(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(&Persona{ID: "dev2", DisplayName: "Second Developer", Role: RoleDeveloper}))

	reg.MarkBusy("dev")
	got := reg.FirstAvailableByRole(RoleDeveloper)
	require.NotNil(t, got)
	assert.Equal(t, "dev2", got.ID)
}

func TestFirstAvailableByRole_AllBusy(t *testing.T) {
	reg := newTestRegistry(t)

	reg.MarkBusy("dev")
	assert.Nil(t, reg.FirstAvailableByRole(RoleDeveloper))
}

func TestSetAvailability_Roundtrip(t *testing.T) {
	reg := newTestRegistry(t)

	assert.True(t, reg.IsAvailable("qa"))
	reg.MarkBusy("qa")
	assert.False(t, reg.IsAvailable("qa"))
	reg.SetAvailability("qa", true)
	assert.True(t, reg.IsAvailable("qa"))

	// Unknown IDs are ignored.
	reg.SetAvailability("ghost", true)
	assert.False(t, reg.IsAvailable("ghost"))
}

func TestAliasTable(t *testing.T) {
	reg := newTestRegistry(t)

	table := reg.AliasTable()
	assert.Equal(t, "pm", table["project manager"])
	assert.Equal(t, "pm", table["projectmanager"])
	assert.Equal(t, "pm", table["project_manager"])
	assert.Equal(t, "dev", table["developer"])
	assert.Equal(t, "reviewer", table["code reviewer"])
	assert.Equal(t, "qa", table["qa_tester"])
	assert.Equal(t, "writer", table["technicalwriter"])
}

func TestAliasTable_FirstRegistrantWins(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(&Persona{ID: "dev2", DisplayName: "Developer", Role: RoleDeveloper}))

	assert.Equal(t, "dev", reg.AliasTable()["developer"])
}

func TestSystemPrompt(t *testing.T) {
	custom := &Persona{ID: "x", DisplayName: "X", Role: RoleDeveloper, PromptTemplate: "You are X."}
	assert.Equal(t, "You are X.", custom.SystemPrompt())

	dev := DefaultTeam()[1]
	prompt := dev.SystemPrompt()
	assert.Contains(t, prompt, dev.DisplayName)
	assert.Contains(t, prompt, "createBranch")
}
