package orchestrator

import (
	"strings"

	"github.com/p-blackswan/devteam-agent/internal/capability"
	"github.com/p-blackswan/devteam-agent/internal/conversation"
	"github.com/p-blackswan/devteam-agent/internal/persona"
)

// replyDelimiter separates model text from capability call results.
const replyDelimiter = "\n\n---\n"

// renderReply combines the persona's response text with a human-readable
// rendering of each capability call, in execution order.
func renderReply(p *persona.Persona, text string, results []capability.Result) string {
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(p.DisplayName)
	b.WriteString("*\n")
	b.WriteString(strings.TrimSpace(text))

	if len(results) > 0 {
		b.WriteString(replyDelimiter)
		for i, r := range results {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(r.Render())
		}
	}
	return b.String()
}

// applyResult advances the conversation's workflow state from one successful
// capability call. Stages are set directly from whichever capability
// succeeded — there is no legality check against the prior stage.
func (o *Orchestrator) applyResult(key conversation.Key, p *persona.Persona, res capability.Result) {
	patch := conversation.Patch{
		LastAgentRole:      p.Role,
		LastFunctionCalled: res.Name,
	}

	switch res.Name {
	case capability.CreateIssue:
		patch.Stage = conversation.StageIssueCreated
		if info, ok := res.Payload.(capability.IssueInfo); ok {
			patch.IssueNumber = conversation.Int(info.Number)
		}
	case capability.GetIssue:
		patch.Stage = conversation.StageIssueRetrieved
		if info, ok := res.Payload.(capability.IssueInfo); ok {
			patch.IssueNumber = conversation.Int(info.Number)
		}
	case capability.CreateBranch:
		patch.Stage = conversation.StageBranchCreated
		if info, ok := res.Payload.(capability.BranchInfo); ok {
			patch.BranchName = conversation.Str(info.Name)
		}
	case capability.CreateCommit:
		patch.Stage = conversation.StageCommitCreated
		if info, ok := res.Payload.(capability.CommitInfo); ok {
			patch.BranchName = conversation.Str(info.Branch)
		}
	case capability.CreatePullRequest:
		patch.Stage = conversation.StagePRCreated
		if info, ok := res.Payload.(capability.PRInfo); ok {
			patch.PRNumber = conversation.Int(info.Number)
		}
	case capability.CreateReview:
		if info, ok := res.Payload.(capability.ReviewInfo); ok {
			switch info.State {
			case "APPROVED":
				patch.Stage = conversation.StagePRApproved
			case "CHANGES_REQUESTED":
				patch.Stage = conversation.StageChangesRequested
			}
			patch.PRNumber = conversation.Int(info.PRNumber)
		}
	case capability.MergePullRequest:
		patch.Stage = conversation.StagePRMerged
		if info, ok := res.Payload.(capability.PRInfo); ok {
			patch.PRNumber = conversation.Int(info.Number)
		}
	}

	o.tracker.Update(key, patch)
}
