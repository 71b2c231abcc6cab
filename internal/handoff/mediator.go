// Package handoff decides which persona, if any, should handle a message.
// Precedence: explicit mention, then workflow stage, then keyword heuristic.
// A nil result always means "do not auto-route" — any fallback for entry
// messages belongs to the orchestrator's routing policy, never here.
package handoff

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/devteam-agent/internal/conversation"
	"github.com/p-blackswan/devteam-agent/internal/persona"
)

// stageSuccessor maps a workflow stage to the role that naturally acts next.
var stageSuccessor = map[conversation.Stage]persona.Role{
	conversation.StageIssueCreated:     persona.RoleDeveloper,
	conversation.StageIssueRetrieved:   persona.RoleDeveloper,
	conversation.StageCommitCreated:    persona.RoleDeveloper,
	conversation.StagePRCreated:        persona.RoleCodeReviewer,
	conversation.StageChangesRequested: persona.RoleDeveloper,
	conversation.StagePRApproved:       persona.RoleDeveloper,
	conversation.StagePRMerged:         persona.RoleProjectManager,
}

// keywordGroup pairs a role with its trigger phrases. Groups are scanned in
// order; the first group with a hit wins.
type keywordGroup struct {
	role     persona.Role
	keywords []string
}

var keywordGroups = []keywordGroup{
	{persona.RoleProjectManager, []string{"create issue", "create an issue", "assign", "sprint", "backlog", "plan"}},
	{persona.RoleDeveloper, []string{"implement", "commit", "branch", "pull request", "fix bug", "fix the bug", "write code"}},
	{persona.RoleCodeReviewer, []string{"review code", "review the code", "review pr", "approve pr", "merge pr", "code review"}},
	{persona.RoleQATester, []string{"test", "verify", "bug report", "regression", "qa"}},
	{persona.RoleTechnicalWriter, []string{"document", "documentation", "guide", "readme", "changelog"}},
}

// roleTokenRe matches an explicit role name in message text, used to break
// ties between multiple resolved mentions.
var roleTokenRe = regexp.MustCompile(`(?i)\b(PROJECT[_\s]?MANAGER|DEVELOPER|CODE[_\s]?REVIEWER|QA[_\s]?TESTER|TECHNICAL[_\s]?WRITER|TEAM[_\s]?LEADER)\b`)

// Mediator selects the next persona for a message.
type Mediator struct {
	registry *persona.Registry
	tracker  *conversation.Tracker
	logger   zerolog.Logger
}

// NewMediator creates a mediator over the registry and workflow tracker.
func NewMediator(registry *persona.Registry, tracker *conversation.Tracker, logger zerolog.Logger) *Mediator {
	return &Mediator{
		registry: registry,
		tracker:  tracker,
		logger:   logger.With().Str("component", "handoff").Logger(),
	}
}

// DetermineNextPersona picks the single persona that should respond, or nil
// when no rule yields a target.
func (m *Mediator) DetermineNextPersona(channel, threadTS string, mentions []string, text string) *persona.Persona {
	// 1. Explicit mention outranks everything.
	if p := m.resolveMentions(mentions, text); p != nil {
		m.logger.Debug().Str("persona", p.ID).Msg("routed by explicit mention")
		return p
	}

	// 2. Workflow stage.
	state := m.tracker.Get(conversation.NewKey(channel, threadTS))
	if p := m.PersonaForState(state); p != nil {
		m.logger.Debug().Str("persona", p.ID).Str("stage", string(state.Stage)).Msg("routed by workflow stage")
		return p
	}

	// 3. Keyword heuristic.
	if p := m.matchKeywords(text); p != nil {
		m.logger.Debug().Str("persona", p.ID).Msg("routed by keyword heuristic")
		return p
	}

	return nil
}

// PersonaForState returns an available persona of the role mapped to the
// state's stage, or nil when the stage has no successor or all are busy.
func (m *Mediator) PersonaForState(state conversation.State) *persona.Persona {
	role, ok := stageSuccessor[state.Stage]
	if !ok {
		return nil
	}
	return m.registry.FirstAvailableByRole(role)
}

// resolveMentions maps mention IDs to registered personas. One resolved
// mention wins outright; among several, a role named in the text breaks the
// tie, otherwise the first in mention order wins.
func (m *Mediator) resolveMentions(mentions []string, text string) *persona.Persona {
	var resolved []*persona.Persona
	for _, id := range mentions {
		if p, ok := m.registry.Get(id); ok {
			resolved = append(resolved, p)
		}
	}

	switch len(resolved) {
	case 0:
		return nil
	case 1:
		return resolved[0]
	}

	if role, ok := roleFromText(text); ok {
		for _, p := range resolved {
			if p.Role == role {
				return p
			}
		}
	}
	return resolved[0]
}

// matchKeywords scans the ordered role keyword groups; first hit wins, then
// availability picks among personas sharing the role.
func (m *Mediator) matchKeywords(text string) *persona.Persona {
	lower := strings.ToLower(text)
	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return m.registry.FirstAvailableByRole(g.role)
			}
		}
	}
	return nil
}

func roleFromText(text string) (persona.Role, bool) {
	match := roleTokenRe.FindString(text)
	if match == "" {
		return "", false
	}
	normalized := strings.ToUpper(strings.NewReplacer(" ", "_").Replace(match))
	r := persona.Role(normalized)
	if r.Valid() {
		return r, true
	}
	return "", false
}
