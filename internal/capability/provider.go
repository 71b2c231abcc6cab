// Package capability exposes the issue-tracker side effects a persona's model
// turn may request: create issue, branch, commit, pull request, review, merge.
// Real and test implementations satisfy the same Provider interface.
package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p-blackswan/devteam-agent/internal/llm"
)

// Capability names, matching the tool names advertised to the model.
const (
	CreateIssue       = "createIssue"
	GetIssue          = "getIssue"
	CreateBranch      = "createBranch"
	BranchExists      = "branchExists"
	CreateCommit      = "createCommit"
	CreatePullRequest = "createPullRequest"
	CreateReview      = "createReview"
	GetPullRequest    = "getPullRequest"
	MergePullRequest  = "mergePullRequest"
	CloseIssue        = "closeIssue"
	AddCommentToIssue = "addCommentToIssue"
	GetRepositoryInfo = "getRepositoryInfo"
	ListIssues        = "listIssues"
)

// Payload is the structured result of a successful capability call.
type Payload interface {
	// Summary renders a one-line human-readable description of the result.
	Summary() string
}

// Provider invokes capabilities by name. Implementations must treat every
// call as an independent, sequential side effect.
type Provider interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (Payload, error)
}

// Result records one capability call after execution. Ephemeral — consumed
// by the orchestrator to update workflow state and render reply text, never
// persisted past the turn.
type Result struct {
	Name      string
	Arguments json.RawMessage
	Success   bool
	Payload   Payload
	Err       error
}

// Render returns the human-readable line for this call.
func (r Result) Render() string {
	if r.Success {
		return fmt.Sprintf("✅ %s: %s", r.Name, r.Payload.Summary())
	}
	return fmt.Sprintf("❌ %s failed: %v", r.Name, r.Err)
}

// Schemas returns tool schemas for the named capabilities, preserving order
// and skipping unknown names.
func Schemas(names []string) []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(names))
	for _, n := range names {
		if s, ok := toolSchemas[n]; ok {
			out = append(out, s)
		}
	}
	return out
}

var toolSchemas = map[string]llm.ToolSchema{
	CreateIssue: {
		Name:        CreateIssue,
		Description: "Create a new issue in the tracked repository.",
		InputSchema: schema(`{"type":"object","properties":{"title":{"type":"string"},"body":{"type":"string"},"labels":{"type":"array","items":{"type":"string"}}},"required":["title"]}`),
	},
	GetIssue: {
		Name:        GetIssue,
		Description: "Fetch details of an issue by number.",
		InputSchema: schema(`{"type":"object","properties":{"number":{"type":"integer"}},"required":["number"]}`),
	},
	CreateBranch: {
		Name:        CreateBranch,
		Description: "Create a branch from the default branch (or an explicit base).",
		InputSchema: schema(`{"type":"object","properties":{"branch":{"type":"string"},"from":{"type":"string"}},"required":["branch"]}`),
	},
	BranchExists: {
		Name:        BranchExists,
		Description: "Check whether a branch exists.",
		InputSchema: schema(`{"type":"object","properties":{"branch":{"type":"string"}},"required":["branch"]}`),
	},
	CreateCommit: {
		Name:        CreateCommit,
		Description: "Create or update a file on a branch with a commit. The branch must already exist.",
		InputSchema: schema(`{"type":"object","properties":{"branch":{"type":"string"},"path":{"type":"string"},"content":{"type":"string"},"message":{"type":"string"}},"required":["branch","path","content","message"]}`),
	},
	CreatePullRequest: {
		Name:        CreatePullRequest,
		Description: "Open a pull request from a head branch to the base branch.",
		InputSchema: schema(`{"type":"object","properties":{"title":{"type":"string"},"body":{"type":"string"},"head":{"type":"string"},"base":{"type":"string"}},"required":["title","head"]}`),
	},
	CreateReview: {
		Name:        CreateReview,
		Description: "Submit a pull request review: APPROVE, REQUEST_CHANGES, or COMMENT.",
		InputSchema: schema(`{"type":"object","properties":{"number":{"type":"integer"},"event":{"type":"string","enum":["APPROVE","REQUEST_CHANGES","COMMENT"]},"body":{"type":"string"}},"required":["number","event"]}`),
	},
	GetPullRequest: {
		Name:        GetPullRequest,
		Description: "Fetch details of a pull request by number.",
		InputSchema: schema(`{"type":"object","properties":{"number":{"type":"integer"}},"required":["number"]}`),
	},
	MergePullRequest: {
		Name:        MergePullRequest,
		Description: "Merge a pull request by number.",
		InputSchema: schema(`{"type":"object","properties":{"number":{"type":"integer"},"method":{"type":"string","enum":["merge","squash","rebase"]}},"required":["number"]}`),
	},
	CloseIssue: {
		Name:        CloseIssue,
		Description: "Close an issue by number.",
		InputSchema: schema(`{"type":"object","properties":{"number":{"type":"integer"}},"required":["number"]}`),
	},
	AddCommentToIssue: {
		Name:        AddCommentToIssue,
		Description: "Add a comment to an issue or pull request.",
		InputSchema: schema(`{"type":"object","properties":{"number":{"type":"integer"},"body":{"type":"string"}},"required":["number","body"]}`),
	},
	GetRepositoryInfo: {
		Name:        GetRepositoryInfo,
		Description: "Fetch the tracked repository's metadata (name, default branch, open issues).",
		InputSchema: schema(`{"type":"object","properties":{}}`),
	},
	ListIssues: {
		Name:        ListIssues,
		Description: "List issues in the tracked repository.",
		InputSchema: schema(`{"type":"object","properties":{"state":{"type":"string","enum":["open","closed","all"]}},"required":[]}`),
	},
}

func schema(s string) json.RawMessage { return json.RawMessage(s) }
