package github

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

type issueSearchResult struct {
	Issues []Issue `json:"issues"`
}

// IssuesAssigned lists the issues of repo, optionally restricted to an assignee.
func (c *Client) IssuesAssigned(ctx context.Context, creds Credentials, repo RepoPath, assignee string) ([]Issue, error) {
	path := repoPath(repo, "/issues")
	if strings.TrimSpace(assignee) != "" {
		path += "?assignee=" + url.QueryEscape(assignee)
	}
	return NewPager[Issue](c, path).All(ctx, creds)
}

// IssuesQueried searches the issues of repo. The query is scoped to the
// repository with an "@owner/repo" prefix.
func (c *Client) IssuesQueried(ctx context.Context, creds Credentials, repo RepoPath, query string) ([]Issue, error) {
	q := url.QueryEscape("@" + repo.Owner + "/" + repo.Repo + " " + query)
	result, err := getJSON[issueSearchResult](ctx, c, creds, "/search/issues?q="+q, AcceptPreviewSearch)
	if err != nil {
		return nil, err
	}
	if result.Issues == nil {
		return []Issue{}, nil
	}
	return result.Issues, nil
}

// Issue fetches a single issue.
func (c *Client) Issue(ctx context.Context, creds Credentials, repo RepoPath, number int64) (Issue, error) {
	return getJSON[Issue](ctx, c, creds, repoPath(repo, "/issues/"+strconv.FormatInt(number, 10)))
}

// IssueComments lists the comments of an issue with rendered HTML bodies.
func (c *Client) IssueComments(ctx context.Context, creds Credentials, repo RepoPath, number int64) ([]IssueComment, error) {
	path := repoPath(repo, "/issues/"+strconv.FormatInt(number, 10)+"/comments")
	return NewPager[IssueComment](c, path, AcceptHTMLBodyMarkup).All(ctx, creds)
}
