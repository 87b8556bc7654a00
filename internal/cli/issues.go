package cli

import (
	"context"
	"strings"

	"ghclient/internal/github"
	"ghclient/internal/render"

	"github.com/spf13/cobra"
)

func newIssuesCommand(a *App) *cobra.Command {
	var repoArg string

	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "Search and read issues",
	}
	cmd.PersistentFlags().StringVarP(&repoArg, "repo", "R", "", "Repository as OWNER/REPO (default from the git remote)")

	var assignee string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List issues, optionally only those assigned to someone",
		Example: `  ghclient issues list
  ghclient issues list --assignee octocat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.resolveRepo(repoArg)
			if err != nil {
				return err
			}
			issues, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) ([]github.Issue, error) {
				return a.Client.IssuesAssigned(ctx, creds, repo, assignee)
			})
			if err != nil {
				return err
			}
			title := "Issues of " + repo.String()
			if assignee != "" {
				title += " assigned to " + assignee
			}
			return a.markdown(render.IssuesMarkdown(title, issues))
		},
	}
	listCmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Only issues assigned to this login")

	searchCmd := &cobra.Command{
		Use:     "search QUERY...",
		Short:   "Search the issues of a repository",
		Example: `  ghclient issues search is:open label:bug pager`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.resolveRepo(repoArg)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			issues, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) ([]github.Issue, error) {
				return a.Client.IssuesQueried(ctx, creds, repo, query)
			})
			if err != nil {
				return err
			}
			return a.markdown(render.IssuesMarkdown("Issues matching "+query, issues))
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view NUMBER",
		Short: "Show an issue with its comments",
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

			type issueThread struct {
				issue    github.Issue
				comments []github.IssueComment
			}
			thread, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (issueThread, error) {
				issue, err := a.Client.Issue(ctx, creds, repo, number)
				if err != nil {
					return issueThread{}, err
				}
				comments, err := a.Client.IssueComments(ctx, creds, repo, number)
				return issueThread{issue: issue, comments: comments}, err
			})
			if err != nil {
				return err
			}
			return a.markdown(render.IssueMarkdown(&thread.issue, thread.comments))
		},
	}

	cmd.AddCommand(listCmd, searchCmd, viewCmd)
	return cmd
}
