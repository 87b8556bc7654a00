package cli

import (
	"ghclient/internal/github"
	"ghclient/internal/mcp"

	"github.com/spf13/cobra"
)

func newMCPCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the GitHub operations as MCP tools over stdio",
		Long: `Run a Model Context Protocol server on standard input and output.

Tools use the stored credentials. Nothing is ever prompted for: standard input
carries the protocol, so run "ghclient login" first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch := github.NewOrchestrator(a.Source, nil, nil, a.Logger)
			return mcp.NewServer(a.Client, orch, a.Logger, Version).Start()
		},
	}
}
