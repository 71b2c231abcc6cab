// Package persona defines the agent personas and their registry.
// A persona is a configured chat identity: role, prompt template, and the
// capability set its model turns may request.
package persona

import (
	"fmt"
	"strings"
)

// Role classifies a persona's function on the team.
type Role string

const (
	RoleProjectManager  Role = "PROJECT_MANAGER"
	RoleDeveloper       Role = "DEVELOPER"
	RoleCodeReviewer    Role = "CODE_REVIEWER"
	RoleQATester        Role = "QA_TESTER"
	RoleTechnicalWriter Role = "TECHNICAL_WRITER"
	RoleTeamLeader      Role = "TEAM_LEADER"
)

// Valid reports whether the role is one of the known team roles.
func (r Role) Valid() bool {
	switch r {
	case RoleProjectManager, RoleDeveloper, RoleCodeReviewer,
		RoleQATester, RoleTechnicalWriter, RoleTeamLeader:
		return true
	}
	return false
}

// Persona describes a single agent identity. Immutable after registration
// except for the availability flag, which the registry owns.
type Persona struct {
	ID             string   `yaml:"id"`
	DisplayName    string   `yaml:"display_name"`
	Role           Role     `yaml:"role"`
	PromptTemplate string   `yaml:"prompt_template"`
	Capabilities   []string `yaml:"capabilities"`
}

// Validate checks required fields.
func (p *Persona) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("persona: id is required")
	}
	if p.DisplayName == "" {
		p.DisplayName = p.ID
	}
	if !p.Role.Valid() {
		return fmt.Errorf("persona %s: unknown role %q", p.ID, p.Role)
	}
	return nil
}

// SystemPrompt renders the persona's system prompt. The template is used
// verbatim when set; otherwise a structured prompt is generated from the
// display name, role, and capability list.
func (p *Persona) SystemPrompt() string {
	if p.PromptTemplate != "" {
		return p.PromptTemplate
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the team's %s.\n", p.DisplayName, roleLabel(p.Role))
	if len(p.Capabilities) > 0 {
		b.WriteString("\nYou can use these tools:\n")
		for _, c := range p.Capabilities {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString("\nWork the issue-to-merge flow in order: create or fetch the issue, " +
		"create the branch, commit, open the pull request, review, then merge. " +
		"Never commit before the branch exists and never merge before an approving review.")
	return b.String()
}

// String implements Stringer for logging.
func (p *Persona) String() string {
	return fmt.Sprintf("Persona{id=%s role=%s}", p.ID, p.Role)
}

func roleLabel(r Role) string {
	switch r {
	case RoleProjectManager:
		return "project manager"
	case RoleDeveloper:
		return "developer"
	case RoleCodeReviewer:
		return "code reviewer"
	case RoleQATester:
		return "QA tester"
	case RoleTechnicalWriter:
		return "technical writer"
	case RoleTeamLeader:
		return "team leader"
	}
	return string(r)
}
