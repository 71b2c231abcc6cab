package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rosterFile is the YAML shape of a persona roster file.
type rosterFile struct {
	Personas []*Persona `yaml:"personas"`
}

// LoadRoster reads a persona roster from a YAML file and registers every
// entry. Personas without an explicit capability set get their role's default.
func LoadRoster(path string, reg *Registry) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading roster: %w", err)
	}

	var rf rosterFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return fmt.Errorf("parsing roster: %w", err)
	}
	if len(rf.Personas) == 0 {
		return fmt.Errorf("roster %s contains no personas", path)
	}

	for _, p := range rf.Personas {
		if len(p.Capabilities) == 0 {
			p.Capabilities = DefaultCapabilities(p.Role)
		}
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefaultTeam registers the built-in five-persona team.
func RegisterDefaultTeam(reg *Registry) error {
	for _, p := range DefaultTeam() {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// DefaultTeam returns the built-in persona roster.
func DefaultTeam() []*Persona {
	roles := []struct {
		id, name string
		role     Role
	}{
		{"pm", "Project Manager", RoleProjectManager},
		{"dev", "Developer", RoleDeveloper},
		{"reviewer", "Code Reviewer", RoleCodeReviewer},
		{"qa", "QA Tester", RoleQATester},
		{"writer", "Technical Writer", RoleTechnicalWriter},
	}

	team := make([]*Persona, 0, len(roles))
	for _, r := range roles {
		team = append(team, &Persona{
			ID:           r.id,
			DisplayName:  r.name,
			Role:         r.role,
			Capabilities: DefaultCapabilities(r.role),
		})
	}
	return team
}

// DefaultCapabilities returns the capability names a role may invoke.
func DefaultCapabilities(role Role) []string {
	shared := []string{"getRepositoryInfo", "getIssue", "listIssues", "addCommentToIssue"}

	switch role {
	case RoleProjectManager:
		return append(shared, "createIssue", "closeIssue")
	case RoleDeveloper:
		return append(shared, "createBranch", "branchExists", "createCommit", "createPullRequest")
	case RoleCodeReviewer:
		return append(shared, "getPullRequest", "createReview", "mergePullRequest")
	case RoleQATester:
		return append(shared, "getPullRequest", "createIssue")
	case RoleTechnicalWriter:
		return append(shared, "createBranch", "createCommit", "createPullRequest")
	case RoleTeamLeader:
		return append(shared, "createIssue", "closeIssue", "getPullRequest", "mergePullRequest")
	}
	return shared
}
