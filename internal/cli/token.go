package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ghclient/internal/github"

	"github.com/spf13/cobra"
)

// Creating authorizations needs a login and password, so these commands ask
// for basic credentials for the configured host instead of using a stored token.
func newTokenCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create OAuth tokens with a login and password",
	}

	var (
		note   string
		scopes []string
	)
	createCmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a token with the given scopes",
		Example: `  ghclient token create --note "ci upload" --scope repo --scope gist`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(note) == "" {
				return errors.New("a note is required")
			}
			token, err := github.RunWithValidBasicCredentialsForHost(cmd.Context(), a.Orch, a.Config.Host,
				func(ctx context.Context, creds github.Credentials) (string, error) {
					return a.Client.CreateScopedToken(ctx, creds, note, scopes...)
				})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, token)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&note, "note", "n", "", "What the token is for")
	createCmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "OAuth scope, repeatable")

	var readNote string
	readOnlyCmd := &cobra.Command{
		Use:   "readonly [OWNER/REPO]",
		Short: "Create a token that can read one repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.resolveRepo(optionalArg(args))
			if err != nil {
				return err
			}
			if readNote == "" {
				readNote = "ghclient read access to " + repo.String()
			}
			token, err := github.RunWithValidBasicCredentialsForHost(cmd.Context(), a.Orch, a.Config.Host,
				func(ctx context.Context, creds github.Credentials) (string, error) {
					return a.Client.ReadOnlyToken(ctx, creds, repo, readNote)
				})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, token)
			return nil
		},
	}
	readOnlyCmd.Flags().StringVarP(&readNote, "note", "n", "", "What the token is for")

	cmd.AddCommand(createCmd, readOnlyCmd)
	return cmd
}
