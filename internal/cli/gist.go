package cli

import (
	"context"
	"fmt"

	"ghclient/internal/gistfile"
	"ghclient/internal/github"
	"ghclient/internal/render"

	"github.com/spf13/cobra"
)

func newGistCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gist",
		Short: "Create, view and delete gists",
	}

	cmd.AddCommand(newGistCreateCommand(a))
	cmd.AddCommand(newGistViewCommand(a))
	cmd.AddCommand(newGistDeleteCommand(a))

	return cmd
}

func newGistCreateCommand(a *App) *cobra.Command {
	var (
		description string
		public      bool
		filename    string
		keepFront   bool
	)

	cmd := &cobra.Command{
		Use:   "create [FILE|DIR ...]",
		Short: "Create a gist from files or standard input",
		Long: `Create a gist from files, directories or standard input ("-" or no arguments).

A file may start with a YAML frontmatter block setting description, public and
filename. Flags given on the command line win over frontmatter.`,
		Example: `  ghclient gist create notes.md
  ghclient gist create --public -d "Build helpers" scripts/
  kubectl get pods | ghclient gist create -f pods.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := gistfile.Options{KeepFrontmatter: keepFront, Filename: filename}

			var (
				bundle gistfile.Bundle
				err    error
			)
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				name := filename
				if name == "" {
					name = "gistfile1.txt"
				}
				bundle, err = gistfile.FromReader(name, a.In, opts)
			} else {
				bundle, err = gistfile.Collect(args, opts)
			}
			if err != nil {
				return err
			}
			if len(bundle.Files) == 0 {
				return github.ErrEmptyFileSet
			}

			if !cmd.Flags().Changed("desc") {
				description = bundle.Meta.Description
			}
			if !cmd.Flags().Changed("public") && bundle.Meta.Public != nil {
				public = *bundle.Meta.Public
			}

			gist, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (github.Gist, error) {
				return a.Client.CreateGist(ctx, creds, bundle.Files, description, !public)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, gist.HTMLURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "desc", "d", "", "Gist description")
	cmd.Flags().BoolVarP(&public, "public", "p", false, "Make the gist public (secret by default)")
	cmd.Flags().StringVarP(&filename, "filename", "f", "", "File name for a single file or standard input")
	cmd.Flags().BoolVar(&keepFront, "keep-frontmatter", false, "Upload frontmatter blocks as part of the content")
	return cmd
}

func newGistViewCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "view ID",
		Short: "Show a gist with all its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gist, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (github.Gist, error) {
				return a.Client.Gist(ctx, creds, args[0])
			})
			if err != nil {
				return err
			}
			return a.markdown(render.GistMarkdown(&gist))
		},
	}
}

func newGistDeleteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a gist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := withCredentials(cmd, a, func(ctx context.Context, creds github.Credentials) (struct{}, error) {
				return struct{}{}, a.Client.DeleteGist(ctx, creds, args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Deleted gist %s\n", args[0])
			return nil
		},
	}
}
