package github

import (
	"context"
	"net/url"
	"strconv"
)

// CreatePullRequestRequest is the body of POST /repos/{owner}/{repo}/pulls.
type CreatePullRequestRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

func pullPath(repo RepoPath, number int64, suffix string) string {
	return repoPath(repo, "/pulls/"+strconv.FormatInt(number, 10)+suffix)
}

// CreatePullRequest opens a pull request merging head into base.
func (c *Client) CreatePullRequest(ctx context.Context, creds Credentials, repo RepoPath, title, description, head, base string) (PullRequest, error) {
	if err := requireIdentity(creds); err != nil {
		return PullRequest{}, err
	}
	return postJSON[PullRequest](ctx, c, creds, repoPath(repo, "/pulls"), CreatePullRequestRequest{
		Title: title,
		Body:  description,
		Head:  head,
		Base:  base,
	})
}

// PullRequest fetches a pull request with its rendered HTML body.
func (c *Client) PullRequest(ctx context.Context, creds Credentials, repo RepoPath, number int64) (PullRequest, error) {
	return getJSON[PullRequest](ctx, c, creds, pullPath(repo, number, ""), AcceptHTMLBodyMarkup)
}

// PullRequests lists every open pull request of repo.
func (c *Client) PullRequests(ctx context.Context, creds Credentials, repo RepoPath) ([]PullRequest, error) {
	return c.PullRequestsPager(repo).All(ctx, creds)
}

// PullRequestsPager returns a pager over the open pull requests of repo, for
// callers that load pages on demand.
func (c *Client) PullRequestsPager(repo RepoPath) *Pager[PullRequest] {
	return NewPager[PullRequest](c, repoPath(repo, "/pulls"), AcceptHTMLBodyMarkup)
}

// PullRequestCommits lists the commits of a pull request.
func (c *Client) PullRequestCommits(ctx context.Context, creds Credentials, repo RepoPath, number int64) ([]Commit, error) {
	return NewPager[Commit](c, pullPath(repo, number, "/commits")).All(ctx, creds)
}

// PullRequestFiles lists the files changed by a pull request.
func (c *Client) PullRequestFiles(ctx context.Context, creds Credentials, repo RepoPath, number int64) ([]File, error) {
	return NewPager[File](c, pullPath(repo, number, "/files")).All(ctx, creds)
}

// Commit fetches a commit with stats and changed files.
func (c *Client) Commit(ctx context.Context, creds Credentials, repo RepoPath, sha string) (CommitDetailed, error) {
	return getJSON[CommitDetailed](ctx, c, creds, repoPath(repo, "/commits/"+url.PathEscape(sha)))
}
