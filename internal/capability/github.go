package capability

import (
	"context"
	"encoding/json"
	"fmt"

	gh "github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/devteam-agent/internal/errors"
	"github.com/p-blackswan/devteam-agent/internal/githubapp"
	"github.com/p-blackswan/devteam-agent/internal/retry"
)

// GitHubProvider implements Provider against a single configured repository.
type GitHubProvider struct {
	auth     githubapp.Auth
	owner    string
	repo     string
	retryCfg retry.Config
	logger   zerolog.Logger
}

// NewGitHubProvider creates a provider bound to owner/repo.
func NewGitHubProvider(auth githubapp.Auth, owner, repo string, logger zerolog.Logger) *GitHubProvider {
	return &GitHubProvider{
		auth:     auth,
		owner:    owner,
		repo:     repo,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.With().Str("component", "capability.github").Logger(),
	}
}

// Invoke dispatches a capability call by name.
func (p *GitHubProvider) Invoke(ctx context.Context, name string, args json.RawMessage) (Payload, error) {
	client, err := p.auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("github auth: %w", err)
	}

	var payload Payload
	err = retry.Do(ctx, p.retryCfg, func(ctx context.Context) error {
		var callErr error
		payload, callErr = p.call(ctx, client, name, args)
		return callErr
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("capability", name).Msg("capability call failed")
		return nil, err
	}

	p.logger.Info().Str("capability", name).Str("result", payload.Summary()).Msg("capability call succeeded")
	return payload, nil
}

func (p *GitHubProvider) call(ctx context.Context, client *gh.Client, name string, args json.RawMessage) (Payload, error) {
	switch name {
	case CreateIssue:
		return p.createIssue(ctx, client, args)
	case GetIssue:
		return p.getIssue(ctx, client, args)
	case CreateBranch:
		return p.createBranch(ctx, client, args)
	case BranchExists:
		return p.branchExists(ctx, client, args)
	case CreateCommit:
		return p.createCommit(ctx, client, args)
	case CreatePullRequest:
		return p.createPullRequest(ctx, client, args)
	case CreateReview:
		return p.createReview(ctx, client, args)
	case GetPullRequest:
		return p.getPullRequest(ctx, client, args)
	case MergePullRequest:
		return p.mergePullRequest(ctx, client, args)
	case CloseIssue:
		return p.closeIssue(ctx, client, args)
	case AddCommentToIssue:
		return p.addComment(ctx, client, args)
	case GetRepositoryInfo:
		return p.repositoryInfo(ctx, client)
	case ListIssues:
		return p.listIssues(ctx, client, args)
	}
	return nil, fmt.Errorf("%w: unknown capability %q", perrors.ErrValidation, name)
}

func (p *GitHubProvider) createIssue(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: createIssue requires a title", perrors.ErrValidation)
	}

	req := &gh.IssueRequest{Title: &in.Title}
	if in.Body != "" {
		req.Body = &in.Body
	}
	if len(in.Labels) > 0 {
		req.Labels = &in.Labels
	}

	issue, resp, err := client.Issues.Create(ctx, p.owner, p.repo, req)
	if err != nil {
		return nil, ghError("createIssue", resp, err)
	}
	return IssueInfo{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		State:  issue.GetState(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

func (p *GitHubProvider) getIssue(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	number, err := requireNumber(args, "getIssue")
	if err != nil {
		return nil, err
	}

	issue, resp, err := client.Issues.Get(ctx, p.owner, p.repo, number)
	if err != nil {
		return nil, ghError("getIssue", resp, err)
	}
	return IssueInfo{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		State:  issue.GetState(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

func (p *GitHubProvider) createBranch(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Branch string `json:"branch"`
		From   string `json:"from"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Branch == "" {
		return nil, fmt.Errorf("%w: createBranch requires a branch name", perrors.ErrValidation)
	}

	base := in.From
	if base == "" {
		repo, resp, err := client.Repositories.Get(ctx, p.owner, p.repo)
		if err != nil {
			return nil, ghError("createBranch", resp, err)
		}
		base = repo.GetDefaultBranch()
	}

	baseRef, resp, err := client.Git.GetRef(ctx, p.owner, p.repo, "refs/heads/"+base)
	if err != nil {
		return nil, ghError("createBranch", resp, err)
	}

	newRef := &gh.Reference{
		Ref:    gh.String("refs/heads/" + in.Branch),
		Object: &gh.GitObject{SHA: baseRef.Object.SHA},
	}
	created, resp, err := client.Git.CreateRef(ctx, p.owner, p.repo, newRef)
	if err != nil {
		return nil, ghError("createBranch", resp, err)
	}
	return BranchInfo{Name: in.Branch, Exists: true, SHA: created.GetObject().GetSHA()}, nil
}

func (p *GitHubProvider) branchExists(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Branch string `json:"branch"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Branch == "" {
		return nil, fmt.Errorf("%w: branchExists requires a branch name", perrors.ErrValidation)
	}

	ref, resp, err := client.Git.GetRef(ctx, p.owner, p.repo, "refs/heads/"+in.Branch)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return BranchInfo{Name: in.Branch, Exists: false}, nil
		}
		return nil, ghError("branchExists", resp, err)
	}
	return BranchInfo{Name: in.Branch, Exists: true, SHA: ref.GetObject().GetSHA()}, nil
}

func (p *GitHubProvider) createCommit(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Branch  string `json:"branch"`
		Path    string `json:"path"`
		Content string `json:"content"`
		Message string `json:"message"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Branch == "" || in.Path == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: createCommit requires branch, path, and message", perrors.ErrValidation)
	}

	// Committing to a missing branch is the classic out-of-order call.
	_, resp, err := client.Git.GetRef(ctx, p.owner, p.repo, "refs/heads/"+in.Branch)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, perrors.SequenceError(CreateCommit, CreateBranch)
		}
		return nil, ghError("createCommit", resp, err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: &in.Message,
		Content: []byte(in.Content),
		Branch:  &in.Branch,
	}

	// Existing file needs its blob SHA for an update.
	existing, _, resp, err := client.Repositories.GetContents(ctx, p.owner, p.repo, in.Path,
		&gh.RepositoryContentGetOptions{Ref: in.Branch})
	if err == nil && existing != nil {
		opts.SHA = existing.SHA
	} else if resp != nil && resp.StatusCode != 404 {
		return nil, ghError("createCommit", resp, err)
	}

	result, resp, err := client.Repositories.CreateFile(ctx, p.owner, p.repo, in.Path, opts)
	if err != nil {
		return nil, ghError("createCommit", resp, err)
	}
	return CommitInfo{
		Branch:  in.Branch,
		Path:    in.Path,
		SHA:     result.Commit.GetSHA(),
		Message: in.Message,
	}, nil
}

func (p *GitHubProvider) createPullRequest(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Title == "" || in.Head == "" {
		return nil, fmt.Errorf("%w: createPullRequest requires title and head", perrors.ErrValidation)
	}

	base := in.Base
	if base == "" {
		repo, resp, err := client.Repositories.Get(ctx, p.owner, p.repo)
		if err != nil {
			return nil, ghError("createPullRequest", resp, err)
		}
		base = repo.GetDefaultBranch()
	}

	pr, resp, err := client.PullRequests.Create(ctx, p.owner, p.repo, &gh.NewPullRequest{
		Title: &in.Title,
		Body:  &in.Body,
		Head:  &in.Head,
		Base:  &base,
	})
	if err != nil {
		return nil, ghError("createPullRequest", resp, err)
	}
	return PRInfo{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		State:  pr.GetState(),
		Head:   in.Head,
		URL:    pr.GetHTMLURL(),
	}, nil
}

func (p *GitHubProvider) createReview(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Number int    `json:"number"`
		Event  string `json:"event"`
		Body   string `json:"body"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Number <= 0 || in.Event == "" {
		return nil, fmt.Errorf("%w: createReview requires number and event", perrors.ErrValidation)
	}

	review, resp, err := client.PullRequests.CreateReview(ctx, p.owner, p.repo, in.Number,
		&gh.PullRequestReviewRequest{Body: &in.Body, Event: &in.Event})
	if err != nil {
		return nil, ghError("createReview", resp, err)
	}
	return ReviewInfo{PRNumber: in.Number, State: review.GetState()}, nil
}

func (p *GitHubProvider) getPullRequest(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	number, err := requireNumber(args, "getPullRequest")
	if err != nil {
		return nil, err
	}

	pr, resp, err := client.PullRequests.Get(ctx, p.owner, p.repo, number)
	if err != nil {
		return nil, ghError("getPullRequest", resp, err)
	}
	return PRInfo{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		State:  pr.GetState(),
		Head:   pr.GetHead().GetRef(),
		Merged: pr.GetMerged(),
		URL:    pr.GetHTMLURL(),
	}, nil
}

func (p *GitHubProvider) mergePullRequest(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Number int    `json:"number"`
		Method string `json:"method"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Number <= 0 {
		return nil, fmt.Errorf("%w: mergePullRequest requires a PR number", perrors.ErrValidation)
	}
	if in.Method == "" {
		in.Method = "merge"
	}

	result, resp, err := client.PullRequests.Merge(ctx, p.owner, p.repo, in.Number, "",
		&gh.PullRequestOptions{MergeMethod: in.Method})
	if err != nil {
		return nil, ghError("mergePullRequest", resp, err)
	}
	return PRInfo{Number: in.Number, Merged: result.GetMerged(), State: "closed"}, nil
}

func (p *GitHubProvider) closeIssue(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	number, err := requireNumber(args, "closeIssue")
	if err != nil {
		return nil, err
	}

	issue, resp, err := client.Issues.Edit(ctx, p.owner, p.repo, number,
		&gh.IssueRequest{State: gh.String("closed")})
	if err != nil {
		return nil, ghError("closeIssue", resp, err)
	}
	return IssueInfo{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		State:  issue.GetState(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

func (p *GitHubProvider) addComment(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		Number int    `json:"number"`
		Body   string `json:"body"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Number <= 0 || in.Body == "" {
		return nil, fmt.Errorf("%w: addCommentToIssue requires number and body", perrors.ErrValidation)
	}

	comment, resp, err := client.Issues.CreateComment(ctx, p.owner, p.repo, in.Number,
		&gh.IssueComment{Body: &in.Body})
	if err != nil {
		return nil, ghError("addCommentToIssue", resp, err)
	}
	return CommentInfo{IssueNumber: in.Number, URL: comment.GetHTMLURL()}, nil
}

func (p *GitHubProvider) repositoryInfo(ctx context.Context, client *gh.Client) (Payload, error) {
	repo, resp, err := client.Repositories.Get(ctx, p.owner, p.repo)
	if err != nil {
		return nil, ghError("getRepositoryInfo", resp, err)
	}
	return RepoInfo{
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		URL:           repo.GetHTMLURL(),
	}, nil
}

func (p *GitHubProvider) listIssues(ctx context.Context, client *gh.Client, args json.RawMessage) (Payload, error) {
	var in struct {
		State string `json:"state"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.State == "" {
		in.State = "open"
	}

	issues, resp, err := client.Issues.ListByRepo(ctx, p.owner, p.repo,
		&gh.IssueListByRepoOptions{State: in.State})
	if err != nil {
		return nil, ghError("listIssues", resp, err)
	}

	list := IssueList{}
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		list.Issues = append(list.Issues, IssueInfo{
			Number: issue.GetNumber(),
			Title:  issue.GetTitle(),
			State:  issue.GetState(),
			URL:    issue.GetHTMLURL(),
		})
	}
	return list, nil
}

// decodeArgs unmarshals model-supplied arguments, mapping malformed JSON to
// the validation error class.
func decodeArgs(args json.RawMessage, out any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, out); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrValidation, err)
	}
	return nil
}

func requireNumber(args json.RawMessage, capName string) (int, error) {
	var in struct {
		Number int `json:"number"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return 0, err
	}
	if in.Number <= 0 {
		return 0, fmt.Errorf("%w: %s requires a positive number", perrors.ErrValidation, capName)
	}
	return in.Number, nil
}

// ghError classifies a go-github failure into the error taxonomy.
func ghError(action string, resp *gh.Response, err error) error {
	if resp != nil {
		return perrors.FromStatus("github", resp.StatusCode, fmt.Sprintf("%s: %v", action, err))
	}
	return fmt.Errorf("%s: %w", action, err)
}
