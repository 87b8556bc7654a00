// Package cli is the ghclient command line, a thin cobra layer over the typed
// GitHub operations.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ghclient/internal/config"
	"ghclient/internal/credentials"
	"ghclient/internal/github"
	"ghclient/internal/gitremote"
	"ghclient/internal/logging"
	"ghclient/internal/prompt"
	"ghclient/internal/render"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Prompter asks the user for credentials and certificate trust.
type Prompter interface {
	github.CredentialPrompter
	github.TrustPrompter
}

// App holds the collaborators shared by all commands. Fields left nil are
// built from the config file and the OS keyring on first use.
type App struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	Logger *logging.AppLogger

	// WorkDir is the working copy searched for GitHub remotes.
	WorkDir string

	Config   *config.Config
	Store    *credentials.Store
	Source   github.CredentialSource
	Prompter Prompter
	Trust    *github.TrustStore
	Client   *github.Client
	Orch     *github.Orchestrator
	Renderer *render.Renderer
}

// NewApp creates an application bound to the process standard streams.
func NewApp(logger *logging.AppLogger) *App {
	return &App{
		In:      os.Stdin,
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
		Logger:  logger,
		WorkDir: ".",
	}
}

func (a *App) wire(opts globalOptions) error {
	if a.Logger == nil {
		a.Logger = logging.GetDefault()
	}
	if opts.workDir != "" {
		a.WorkDir = opts.workDir
	}
	if a.WorkDir == "" {
		a.WorkDir = "."
	}

	if a.Config == nil {
		cfg, err := config.LoadOrDefault()
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if opts.host != "" {
		a.Config.OverrideHost(opts.host)
	}
	if opts.noProxy {
		a.Config.DisableProxy()
	}

	if a.Store == nil {
		a.Store = credentials.NewStore(a.Config, a.Logger)
	}
	if a.Source == nil {
		a.Source = a.Store
	}
	if a.Prompter == nil && !opts.noPrompt && isTerminal(a.In) {
		a.Prompter = prompt.New(a.In, a.ErrOut, a.Logger)
	}
	if a.Trust == nil {
		a.Trust = github.NewTrustStore(a.Prompter, a.Logger)
	}

	if a.Client == nil {
		proxy, err := a.Store.ProxySettings()
		if err != nil {
			return err
		}
		transport := github.NewTransport(a.Trust, a.Logger, github.WithProxySettings(proxy))
		a.Client = github.NewClient(transport, a.Logger)
	}
	if a.Orch == nil {
		a.Orch = github.NewOrchestrator(a.Source, a.Prompter, a.Trust, a.Logger)
	}

	if a.Renderer == nil {
		var ropts []render.Option
		if opts.plain {
			ropts = append(ropts, render.WithPlain(true))
		}
		a.Renderer = render.New(a.Out, a.Logger, ropts...)
	}

	a.Logger.Debug("Application wired", "host", a.Config.Host, "interactive", a.Prompter != nil)
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// withCredentials runs work under the app's orchestrator with the command's context.
func withCredentials[T any](cmd *cobra.Command, a *App, work github.Work[T]) (T, error) {
	return github.RunWithValidCredentials(cmd.Context(), a.Orch, work)
}

// markdown renders md to the command output.
func (a *App) markdown(md string) error {
	return a.Renderer.Markdown(md)
}

// resolveRepo returns the repository named by arg, or the one the working
// copy's GitHub remote points at when arg is empty.
func (a *App) resolveRepo(arg string) (github.RepoPath, error) {
	if arg != "" {
		return parseRepoArg(arg)
	}
	remote, err := gitremote.FindGitHubRemote(a.WorkDir, a.Config.Host)
	if err != nil {
		return github.RepoPath{}, fmt.Errorf("no repository given: %w", err)
	}
	repo, ok := remote.Repo()
	if !ok {
		return github.RepoPath{}, fmt.Errorf("cannot parse repository from remote %s (%s)", remote.Name, remote.URL)
	}
	return repo, nil
}

// parseRepoArg accepts "owner/repo" or a repository URL.
func parseRepoArg(arg string) (github.RepoPath, error) {
	arg = strings.TrimSpace(arg)
	if !strings.Contains(arg, ":") {
		owner, repo, ok := strings.Cut(strings.TrimSuffix(arg, ".git"), "/")
		if ok && owner != "" && repo != "" && !strings.Contains(repo, "/") {
			return github.RepoPath{Owner: owner, Repo: repo}, nil
		}
	}
	if repo, ok := github.ParseRepoCoordinates(arg); ok {
		return repo, nil
	}
	return github.RepoPath{}, fmt.Errorf("invalid repository %q, expected owner/repo or a URL", arg)
}

var errNoTerminal = errors.New("no terminal to ask for credentials on")

