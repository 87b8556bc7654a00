package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ghclient/internal/github"
	"ghclient/internal/gitremote"
	"ghclient/internal/render"

	"github.com/spf13/cobra"
)

func newRepoCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Work with repositories",
		Long: `Work with repositories. Commands taking an optional [OWNER/REPO] fall back to
the repository the GitHub remote of the working copy points at.`,
	}

	cmd.AddCommand(newRepoViewCommand(a))
	cmd.AddCommand(newRepoListCommand(a))
	cmd.AddCommand(newRepoBranchesCommand(a))
	cmd.AddCommand(newRepoForksCommand(a))
	cmd.AddCommand(newRepoCreateCommand(a))
	cmd.AddCommand(newRepoDeleteCommand(a))
	cmd.AddCommand(newRepoCommitCommand(a))

	return cmd
}

// optionalArg returns args[0], or "" when there are no arguments.
func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func newRepoViewCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "view [OWNER/REPO]",
		Short: "Show a repository and its fork ancestry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.resolveRepo(optionalArg(args))
			if err != nil {
				return err
			}
			detailed, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (github.RepoDetailed, error) {
				return a.Client.RepoDetailed(ctx, creds, repo)
			})
			if err != nil {
				return err
			}
			return a.markdown(render.RepoMarkdown(&detailed))
		},
	}
}

func newRepoListCommand(a *App) *cobra.Command {
	var (
		all  bool
		user string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		Example: `  ghclient repo list
  ghclient repo list --all
  ghclient repo list --user octocat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && user != "" {
				return errors.New("--all and --user cannot be combined")
			}

			title := "Your repositories"
			work := a.Client.UserRepos
			switch {
			case all:
				title = "Available repositories"
				work = a.Client.AvailableRepos
			case user != "":
				title = "Repositories of " + user
				work = func(ctx context.Context, creds github.Credentials) ([]github.Repo, error) {
					return a.Client.UserReposOf(ctx, creds, user)
				}
			}

			repos, err := withCredentials(cmd, a, work)
			if err != nil {
				return err
			}
			return a.markdown(render.ReposMarkdown(title, repos))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include repositories of your organizations and those you collaborate on")
	cmd.Flags().StringVar(&user, "user", "", "List the public repositories of another user")
	return cmd
}

func newRepoBranchesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "branches [OWNER/REPO]",
		Short: "List the branches of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.resolveRepo(optionalArg(args))
			if err != nil {
				return err
			}
			branches, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) ([]github.Branch, error) {
				return a.Client.RepoBranches(ctx, creds, repo)
			})
			if err != nil {
				return err
			}
			return a.markdown(render.BranchesMarkdown(repo, branches))
		},
	}
}

func newRepoForksCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forks",
		Short: "Work with forks of a repository",
	}

	findCmd := &cobra.Command{
		Use:   "find USER [OWNER/REPO]",
		Short: "Find the fork of a repository owned by USER",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := args[0]
			repo, err := a.resolveRepo(optionalArg(args[1:]))
			if err != nil {
				return err
			}
			fork, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (*github.Repo, error) {
				return a.Client.FindForkByUser(ctx, creds, repo, user)
			})
			if err != nil {
				return err
			}
			if fork == nil {
				return fmt.Errorf("%s has no fork of %s", user, repo)
			}
			return a.markdown(render.ReposMarkdown("Fork of "+repo.String(), []github.Repo{*fork}))
		},
	}

	cmd.AddCommand(findCmd)
	return cmd
}

func newRepoCreateCommand(a *App) *cobra.Command {
	var (
		description string
		private     bool
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a repository for the authenticated user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("repository name cannot be empty")
			}
			repo, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (github.Repo, error) {
				return a.Client.CreateRepo(ctx, creds, name, description, private)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, repo.HTMLURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Repository description")
	cmd.Flags().BoolVar(&private, "private", false, "Make the repository private")
	return cmd
}

func newRepoDeleteCommand(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete OWNER/REPO",
		Short: "Delete a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := parseRepoArg(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", repo)
			}
			_, err = withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (struct{}, error) {
				return struct{}{}, a.Client.DeleteRepo(ctx, creds, repo)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Deleted %s\n", repo)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func newRepoCommitCommand(a *App) *cobra.Command {
	var repoArg string

	cmd := &cobra.Command{
		Use:   "commit SHA",
		Short: "Show a commit with its changed files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.resolveRepo(repoArg)
			if err != nil {
				return err
			}
			commit, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (github.CommitDetailed, error) {
				return a.Client.Commit(ctx, creds, repo, args[0])
			})
			if err != nil {
				return err
			}
			return a.markdown(render.CommitMarkdown(&commit))
		},
	}

	cmd.Flags().StringVarP(&repoArg, "repo", "R", "", "Repository as OWNER/REPO (default from the git remote)")
	return cmd
}

func newRemoteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remote",
		Short: "Show the GitHub remotes of the working copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host := a.Config.Host
			remote, err := gitremote.FindGitHubRemote(a.WorkDir, host)
			if err != nil {
				return err
			}

			var b strings.Builder
			b.WriteString("# Remotes\n\n")
			fmt.Fprintf(&b, "- **%s:** %s\n", remote.Name, remote.URL)
			if repo, ok := remote.Repo(); ok {
				fmt.Fprintf(&b, "- **Repository:** %s\n", repo)
			}
			if branch, err := gitremote.CurrentBranch(a.WorkDir); err == nil {
				fmt.Fprintf(&b, "- **Branch:** %s\n", branch)
			}
			upstream, ok, err := gitremote.FindUpstreamRemote(a.WorkDir, host)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(&b, "- **upstream:** %s\n", upstream)
			}
			return a.markdown(b.String())
		},
	}
}
