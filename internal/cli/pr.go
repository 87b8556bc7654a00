package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ghclient/internal/github"
	"ghclient/internal/gitremote"
	"ghclient/internal/render"

	"github.com/spf13/cobra"
)

func newPRCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pr",
		Aliases: []string{"pull"},
		Short:   "Create and inspect pull requests",
	}

	cmd.AddCommand(newPRCreateCommand(a))
	cmd.AddCommand(newPRListCommand(a))
	cmd.AddCommand(newPRViewCommand(a))

	return cmd
}

func parseNumber(arg string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid number %q", arg)
	}
	return n, nil
}

// prTarget is where a pull request from the working copy goes: the upstream
// remote when there is one, otherwise the GitHub remote itself.
func (a *App) prTarget() (target, origin github.RepoPath, err error) {
	origin, err = a.resolveRepo("")
	if err != nil {
		return github.RepoPath{}, github.RepoPath{}, err
	}
	upstream, ok, err := gitremote.FindUpstreamRemote(a.WorkDir, a.Config.Host)
	if err != nil {
		return github.RepoPath{}, github.RepoPath{}, err
	}
	if ok {
		if repo, parsed := github.ParseRepoCoordinates(upstream); parsed {
			return repo, origin, nil
		}
	}
	return origin, origin, nil
}

// qualifyHead prefixes head with the fork owner when the pull request crosses
// repositories.
func qualifyHead(head string, target, origin github.RepoPath) string {
	if strings.Contains(head, ":") || origin.Owner == "" || strings.EqualFold(origin.Owner, target.Owner) {
		return head
	}
	return origin.Owner + ":" + head
}

func newPRCreateCommand(a *App) *cobra.Command {
	var (
		repoArg string
		title   string
		body    string
		head    string
		base    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a pull request",
		Long: `Open a pull request from a branch of the working copy.

Without --repo the pull request targets the "upstream" remote when the working
copy has one, and its GitHub remote otherwise. The head defaults to the current
branch and the base to the default branch of the target.`,
		Example: `  ghclient pr create -t "Fix pager" -b "Stops at the last page."
  ghclient pr create -R octocat/hello --head mona:fix-pager --base main -t "Fix pager"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return errors.New("a title is required")
			}

			var target, origin github.RepoPath
			var err error
			if repoArg != "" {
				target, err = parseRepoArg(repoArg)
				if err == nil {
					origin, _ = a.resolveRepo("")
				}
			} else {
				target, origin, err = a.prTarget()
			}
			if err != nil {
				return err
			}

			if head == "" {
				if head, err = gitremote.CurrentBranch(a.WorkDir); err != nil {
					return fmt.Errorf("cannot pick a head branch, use --head: %w", err)
				}
			}
			head = qualifyHead(head, target, origin)

			pr, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (github.PullRequest, error) {
				baseBranch := base
				if baseBranch == "" {
					repo, err := a.Client.RepoDetailed(ctx, creds, target)
					if err != nil {
						return github.PullRequest{}, err
					}
					baseBranch = repo.DefaultBranch
				}
				a.Logger.Debug("Creating pull request", "repo", target.String(), "head", head, "base", baseBranch)
				return a.Client.CreatePullRequest(ctx, creds, target, title, body, head, baseBranch)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, pr.HTMLURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoArg, "repo", "R", "", "Target repository as OWNER/REPO")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Pull request title")
	cmd.Flags().StringVarP(&body, "body", "b", "", "Pull request description")
	cmd.Flags().StringVarP(&head, "head", "H", "", "Branch with the changes, optionally OWNER:BRANCH")
	cmd.Flags().StringVarP(&base, "base", "B", "", "Branch to merge into")
	return cmd
}

func newPRListCommand(a *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list [OWNER/REPO]",
		Short: "List open pull requests",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.resolveRepo(optionalArg(args))
			if err != nil {
				return err
			}
			pulls, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) ([]github.PullRequest, error) {
				if limit <= 0 {
					return a.Client.PullRequests(ctx, creds, repo)
				}
				pager := a.Client.PullRequestsPager(repo)
				var pulls []github.PullRequest
				for pager.HasNext() && len(pulls) < limit {
					page, err := pager.Next(ctx, creds)
					if err != nil {
						return nil, err
					}
					pulls = append(pulls, page...)
				}
				if len(pulls) > limit {
					pulls = pulls[:limit]
				}
				return pulls, nil
			})
			if err != nil {
				return err
			}
			return a.markdown(render.PullRequestsMarkdown(repo, pulls))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "L", 0, "Stop after this many pull requests (0 loads all)")
	return cmd
}

type pullRequestDetails struct {
	pr      github.PullRequest
	commits []github.Commit
	files   []github.File
}

func newPRViewCommand(a *App) *cobra.Command {
	var (
		repoArg string
		changes bool
	)

	cmd := &cobra.Command{
		Use:   "view NUMBER",
		Short: "Show a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			repo, err := a.resolveRepo(repoArg)
			if err != nil {
				return err
			}

			details, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (pullRequestDetails, error) {
				var d pullRequestDetails
				var err error
				if d.pr, err = a.Client.PullRequest(ctx, creds, repo, number); err != nil {
					return d, err
				}
				if !changes {
					return d, nil
				}
				if d.commits, err = a.Client.PullRequestCommits(ctx, creds, repo, number); err != nil {
					return d, err
				}
				d.files, err = a.Client.PullRequestFiles(ctx, creds, repo, number)
				return d, err
			})
			if err != nil {
				return err
			}

			md := render.PullRequestMarkdown(&details.pr)
			if changes {
				md += "\n" + render.PullRequestChangesMarkdown(details.commits, details.files)
			}
			return a.markdown(md)
		},
	}

	cmd.Flags().StringVarP(&repoArg, "repo", "R", "", "Repository as OWNER/REPO (default from the git remote)")
	cmd.Flags().BoolVarP(&changes, "changes", "c", false, "Also list commits and changed files")
	return cmd
}
