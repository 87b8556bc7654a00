package gitremote

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ghclient/internal/github"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T, remotes map[string][]string) string {
	t.Helper()
	path := t.TempDir()

	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	for name, urls := range remotes {
		_, err := repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: urls})
		require.NoError(t, err)
	}
	return path
}

func TestFindGitHubRemote(t *testing.T) {
	tests := []struct {
		name     string
		remotes  map[string][]string
		host     string
		wantName string
		wantURL  string
		wantErr  bool
	}{
		{
			name: "origin preferred over other remotes",
			remotes: map[string][]string{
				"alpha":  {"https://github.com/someone/fork.git"},
				"origin": {"git@github.com:octocat/hello.git"},
			},
			host:     "github.com",
			wantName: "origin",
			wantURL:  "git@github.com:octocat/hello.git",
		},
		{
			name: "github remote preferred",
			remotes: map[string][]string{
				"aaa":    {"https://github.com/a/b"},
				"github": {"https://github.com/octocat/hello"},
			},
			host:     "github.com",
			wantName: "github",
			wantURL:  "https://github.com/octocat/hello",
		},
		{
			name: "first matching remote otherwise",
			remotes: map[string][]string{
				"zeta":  {"https://github.com/z/z"},
				"beta":  {"https://github.com/b/b"},
				"alpha": {"https://gitlab.com/a/a"},
			},
			host:     "github.com",
			wantName: "beta",
			wantURL:  "https://github.com/b/b",
		},
		{
			name: "enterprise host",
			remotes: map[string][]string{
				"origin": {"https://github.com/octocat/hello"},
				"corp":   {"https://ghe.example/team/tool.git"},
			},
			host:     "https://ghe.example/",
			wantName: "corp",
			wantURL:  "https://ghe.example/team/tool.git",
		},
		{
			name:    "no match",
			remotes: map[string][]string{"origin": {"https://gitlab.com/a/a"}},
			host:    "github.com",
			wantErr: true,
		},
		{
			name:    "no remotes",
			host:    "github.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := initRepo(t, tt.remotes)

			got, err := FindGitHubRemote(path, tt.host)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoGitHubRemote)
				assert.False(t, IsOnGitHub(path, tt.host))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantURL, got.URL)
			assert.True(t, IsOnGitHub(path, tt.host))
		})
	}
}

func TestFindGitHubRemote_FromSubdirectory(t *testing.T) {
	path := initRepo(t, map[string][]string{"origin": {"https://github.com/octocat/hello.git"}})
	sub := filepath.Join(path, "nested", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got, err := FindGitHubRemote(sub, "github.com")
	require.NoError(t, err)

	repo, ok := got.Repo()
	require.True(t, ok)
	assert.Equal(t, github.RepoPath{Owner: "octocat", Repo: "hello"}, repo)
}

func TestFindGitHubRemote_NotARepository(t *testing.T) {
	_, err := FindGitHubRemote(t.TempDir(), "github.com")
	assert.ErrorContains(t, err, "not a git repository")
}

func TestFindUpstreamRemote(t *testing.T) {
	t.Run("prefers github url", func(t *testing.T) {
		path := initRepo(t, map[string][]string{
			"upstream": {"https://gitlab.com/mirror/hello", "https://github.com/octocat/hello"},
		})
		url, ok, err := FindUpstreamRemote(path, "github.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "https://github.com/octocat/hello", url)
	})

	t.Run("falls back to first url", func(t *testing.T) {
		path := initRepo(t, map[string][]string{
			"upstream": {"https://gitlab.com/mirror/hello"},
		})
		url, ok, err := FindUpstreamRemote(path, "github.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "https://gitlab.com/mirror/hello", url)
	})

	t.Run("absent", func(t *testing.T) {
		path := initRepo(t, map[string][]string{"origin": {"https://github.com/a/b"}})
		_, ok, err := FindUpstreamRemote(path, "github.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCurrentBranch(t *testing.T) {
	path := t.TempDir()
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)

	_, err = CurrentBranch(path)
	assert.Error(t, err, "no commit yet")

	require.NoError(t, os.WriteFile(filepath.Join(path, "README.md"), []byte("hello"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature/pager"),
		Create: true,
	}))
	branch, err := CurrentBranch(path)
	require.NoError(t, err)
	assert.Equal(t, "feature/pager", branch)

	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: hash}))
	_, err = CurrentBranch(path)
	assert.ErrorContains(t, err, "detached")
}
