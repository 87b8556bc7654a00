// Package gitremote finds GitHub remotes in a local working copy.
package gitremote

import (
	"errors"
	"fmt"
	"sort"

	"ghclient/internal/github"
	"ghclient/internal/logging"

	"github.com/go-git/go-git/v6"
)

// ErrNoGitHubRemote is returned when no remote of the repository points at the host.
var ErrNoGitHubRemote = errors.New("no GitHub remote found")

// Remote is a named git remote and the URL that matched.
type Remote struct {
	Name string
	URL  string
}

// Repo returns owner and repository parsed from the remote URL.
func (r Remote) Repo() (github.RepoPath, bool) {
	return github.ParseRepoCoordinates(r.URL)
}

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("not a git repository: %s", path)
		}
		return nil, fmt.Errorf("cannot open git repository: %w", err)
	}
	return repo, nil
}

type remoteEntry struct {
	name string
	urls []string
}

// listRemotes opens the repository containing path and returns its remotes
// sorted by name.
func listRemotes(path string) ([]remoteEntry, error) {
	repo, err := open(path)
	if err != nil {
		return nil, err
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("cannot list remotes: %w", err)
	}

	entries := make([]remoteEntry, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		if cfg == nil {
			continue
		}
		entries = append(entries, remoteEntry{name: cfg.Name, urls: cfg.URLs})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

// FindGitHubRemote returns the remote of the repository at path that points
// at host. Remotes named "github" or "origin" win; otherwise the first
// matching remote by name is used. Only the first matching URL of each remote
// is considered.
func FindGitHubRemote(path, host string) (Remote, error) {
	entries, err := listRemotes(path)
	if err != nil {
		return Remote{}, err
	}

	var found *Remote
	for _, e := range entries {
		for _, u := range e.urls {
			if !github.IsGitHubURL(u, host) {
				continue
			}
			if e.name == "github" || e.name == "origin" {
				logging.Debug("GitHub remote found", "name", e.name, "url", u)
				return Remote{Name: e.name, URL: u}, nil
			}
			if found == nil {
				found = &Remote{Name: e.name, URL: u}
			}
			break
		}
	}

	if found == nil {
		return Remote{}, ErrNoGitHubRemote
	}
	logging.Debug("GitHub remote found", "name", found.Name, "url", found.URL)
	return *found, nil
}

// FindUpstreamRemote returns the URL of the "upstream" remote, preferring a
// URL on host over the remote's first URL.
func FindUpstreamRemote(path, host string) (string, bool, error) {
	entries, err := listRemotes(path)
	if err != nil {
		return "", false, err
	}

	for _, e := range entries {
		if e.name != "upstream" || len(e.urls) == 0 {
			continue
		}
		for _, u := range e.urls {
			if github.IsGitHubURL(u, host) {
				return u, true, nil
			}
		}
		return e.urls[0], true, nil
	}
	return "", false, nil
}

// IsOnGitHub reports whether the repository at path has a remote on host.
func IsOnGitHub(path, host string) bool {
	_, err := FindGitHubRemote(path, host)
	return err == nil
}

// CurrentBranch returns the short name of the branch checked out in the
// repository containing path.
func CurrentBranch(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("cannot resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash().String()[:7])
	}
	return head.Name().Short(), nil
}
