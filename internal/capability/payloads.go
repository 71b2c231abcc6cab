package capability

import "fmt"

// IssueInfo describes an issue after create/get/close.
type IssueInfo struct {
	Number int
	Title  string
	State  string
	URL    string
}

func (i IssueInfo) Summary() string {
	return fmt.Sprintf("issue #%d %q (%s) %s", i.Number, i.Title, i.State, i.URL)
}

// IssueList is the result of listIssues.
type IssueList struct {
	Issues []IssueInfo
}

func (l IssueList) Summary() string {
	return fmt.Sprintf("%d issues", len(l.Issues))
}

// BranchInfo describes a branch after createBranch/branchExists.
type BranchInfo struct {
	Name   string
	Exists bool
	SHA    string
}

func (b BranchInfo) Summary() string {
	if !b.Exists {
		return fmt.Sprintf("branch %q does not exist", b.Name)
	}
	return fmt.Sprintf("branch %q at %.7s", b.Name, b.SHA)
}

// CommitInfo describes a commit created on a branch.
type CommitInfo struct {
	Branch  string
	Path    string
	SHA     string
	Message string
}

func (c CommitInfo) Summary() string {
	return fmt.Sprintf("committed %s to %s (%.7s)", c.Path, c.Branch, c.SHA)
}

// PRInfo describes a pull request.
type PRInfo struct {
	Number int
	Title  string
	State  string
	Head   string
	Merged bool
	URL    string
}

func (p PRInfo) Summary() string {
	if p.Merged {
		return fmt.Sprintf("PR #%d merged", p.Number)
	}
	return fmt.Sprintf("PR #%d %q (%s) %s", p.Number, p.Title, p.State, p.URL)
}

// ReviewInfo describes a submitted pull request review.
type ReviewInfo struct {
	PRNumber int
	State    string // APPROVED | CHANGES_REQUESTED | COMMENTED
}

func (r ReviewInfo) Summary() string {
	return fmt.Sprintf("review on PR #%d: %s", r.PRNumber, r.State)
}

// CommentInfo describes a created issue comment.
type CommentInfo struct {
	IssueNumber int
	URL         string
}

func (c CommentInfo) Summary() string {
	return fmt.Sprintf("comment added to #%d", c.IssueNumber)
}

// RepoInfo describes the tracked repository.
type RepoInfo struct {
	FullName      string
	DefaultBranch string
	OpenIssues    int
	URL           string
}

func (r RepoInfo) Summary() string {
	return fmt.Sprintf("%s (default branch %s, %d open issues)", r.FullName, r.DefaultBranch, r.OpenIssues)
}
