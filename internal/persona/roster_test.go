package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeRoster(t, `
personas:
  - id: alice
    display_name: Alice
    role: DEVELOPER
    prompt_template: "You are Alice, a developer."
  - id: bob
    display_name: Bob
    role: QA_TESTER
    capabilities: [getIssue, createIssue]
`)

	reg := NewRegistry(zerolog.Nop())
	require.NoError(t, LoadRoster(path, reg))
	require.Equal(t, 2, reg.Count())

	alice, ok := reg.Get("alice")
	require.True(t, ok)
	assert.Equal(t, RoleDeveloper, alice.Role)
	assert.Equal(t, "You are Alice, a developer.", alice.SystemPrompt())
	// No explicit capabilities: role defaults apply.
	assert.Equal(t, DefaultCapabilities(RoleDeveloper), alice.Capabilities)

	bob, ok := reg.Get("bob")
	require.True(t, ok)
	assert.Equal(t, []string{"getIssue", "createIssue"}, bob.Capabilities)
}

func TestLoadRoster_InvalidRole(t *testing.T) {
	path := writeRoster(t, `
personas:
  - id: eve
    display_name: Eve
    role: MASTERMIND
`)

	reg := NewRegistry(zerolog.Nop())
	err := LoadRoster(path, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestLoadRoster_EmptyFile(t *testing.T) {
	path := writeRoster(t, "personas: []\n")

	err := LoadRoster(path, NewRegistry(zerolog.Nop()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no personas")
}

func TestLoadRoster_MissingFile(t *testing.T) {
	err := LoadRoster("/nonexistent/personas.yaml", NewRegistry(zerolog.Nop()))
	require.Error(t, err)
}

func TestDefaultTeam_Roles(t *testing.T) {
	team := DefaultTeam()
	require.Len(t, team, 5)

	roles := map[Role]bool{}
	for _, p := range team {
		require.NoError(t, p.Validate())
		roles[p.Role] = true
	}
	assert.Len(t, roles, 5)
}
