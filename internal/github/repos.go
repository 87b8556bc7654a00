package github

import (
	"context"
	"net/url"
	"strings"
)

// CreateRepoRequest is the body of POST /user/repos.
type CreateRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

func repoPath(repo RepoPath, suffix string) string {
	return "/repos/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Repo) + suffix
}

// UserRepos lists the repositories of the authenticated user.
func (c *Client) UserRepos(ctx context.Context, creds Credentials) ([]Repo, error) {
	if err := requireIdentity(creds); err != nil {
		return nil, err
	}
	return NewPager[Repo](c, "/user/repos").All(ctx, creds)
}

// UserReposOf lists the public repositories of login.
func (c *Client) UserReposOf(ctx context.Context, creds Credentials, login string) ([]Repo, error) {
	return NewPager[Repo](c, userPath(login, "/repos")).All(ctx, creds)
}

// AvailableRepos lists every repository the user can work with: their own,
// those of their organizations where they are a member, and the ones they watch.
func (c *Client) AvailableRepos(ctx context.Context, creds Credentials) ([]Repo, error) {
	repos, err := c.UserRepos(ctx, creds)
	if err != nil {
		return nil, err
	}

	orgs, err := NewPager[Org](c, "/user/orgs").All(ctx, creds)
	if err != nil {
		return nil, err
	}
	for _, org := range orgs {
		orgRepos, err := NewPager[Repo](c, "/orgs/"+url.PathEscape(org.Login)+"/repos?type=member").All(ctx, creds)
		if err != nil {
			return nil, err
		}
		repos = append(repos, orgRepos...)
	}

	watched, err := NewPager[Repo](c, "/user/subscriptions").All(ctx, creds)
	if err != nil {
		return nil, err
	}
	return append(repos, watched...), nil
}

// RepoDetailed returns a repository together with its fork parent and source.
func (c *Client) RepoDetailed(ctx context.Context, creds Credentials, repo RepoPath) (RepoDetailed, error) {
	return getJSON[RepoDetailed](ctx, c, creds, repoPath(repo, ""))
}

// CreateRepo creates a repository owned by the authenticated user.
func (c *Client) CreateRepo(ctx context.Context, creds Credentials, name, description string, private bool) (Repo, error) {
	if err := requireIdentity(creds); err != nil {
		return Repo{}, err
	}
	return postJSON[Repo](ctx, c, creds, "/user/repos", CreateRepoRequest{
		Name:        name,
		Description: description,
		Private:     private,
	})
}

// DeleteRepo deletes a repository.
func (c *Client) DeleteRepo(ctx context.Context, creds Credentials, repo RepoPath) error {
	if err := requireIdentity(creds); err != nil {
		return err
	}
	return c.delete(ctx, creds, repoPath(repo, ""))
}

// RepoBranches lists the branches of a repository.
func (c *Client) RepoBranches(ctx context.Context, creds Credentials, repo RepoPath) ([]Branch, error) {
	return NewPager[Branch](c, repoPath(repo, "/branches")).All(ctx, creds)
}

// FindForkByUser walks the forks of repo and returns the first one owned by
// forkOwner, compared case-insensitively. It returns nil when there is none.
// Pages after the match are not fetched.
func (c *Client) FindForkByUser(ctx context.Context, creds Credentials, repo RepoPath, forkOwner string) (*Repo, error) {
	pager := NewPager[Repo](c, repoPath(repo, "/forks"))
	for pager.HasNext() {
		forks, err := pager.Next(ctx, creds)
		if err != nil {
			return nil, err
		}
		for _, fork := range forks {
			if strings.EqualFold(fork.Owner.Login, forkOwner) {
				return &fork, nil
			}
		}
	}
	return nil, nil
}
