package orchestrator

import (
	"fmt"
	"strings"

	"github.com/p-blackswan/devteam-agent/internal/capability"
	"github.com/p-blackswan/devteam-agent/internal/mention"
	"github.com/p-blackswan/devteam-agent/internal/persona"
)

// workItemPhrases signal intent to create a tracked work item. Checked only
// for project-manager personas.
var workItemPhrases = []string{
	"create an issue",
	"create issue",
	"open an issue",
	"new issue",
	"track this",
	"new task",
	"add a task",
	"work item",
}

// buildPrompt produces the enhanced prompt for a persona's turn: the cleaned
// message text plus workflow directives derived from extracted references.
func (o *Orchestrator) buildPrompt(p *persona.Persona, ext mention.Result) string {
	var b strings.Builder
	b.WriteString(ext.CleanText)

	if len(ext.IssueNumbers) > 0 {
		fmt.Fprintf(&b,
			"\n\nThis message references issue #%d. Before anything else, call %s and then %s for issue #%d.",
			ext.IssueNumbers[0], capability.GetRepositoryInfo, capability.GetIssue, ext.IssueNumbers[0])
	}

	if p.Role == persona.RoleProjectManager && containsWorkItemIntent(ext.CleanText) {
		fmt.Fprintf(&b,
			"\n\nThe requester wants a tracked work item. Use %s to create it, then mention @Developer in your reply so implementation can start.",
			capability.CreateIssue)
	}

	return b.String()
}

func containsWorkItemIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range workItemPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
