package cli

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"ghclient/internal/github"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	host     string
	noProxy  bool
	noPrompt bool
	plain    bool
	workDir  string
}

// NewRootCommand builds the command tree around app. Missing collaborators
// of app are wired before any command runs.
func NewRootCommand(app *App) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ghclient",
		Short: "ghclient - a GitHub REST API client",
		Long: `ghclient talks to GitHub and GitHub Enterprise through the v3 REST API.

Credentials are kept in the OS keyring. When a call fails for lack of valid
credentials, ghclient asks for new ones once and retries the call.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.wire(*opts); err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().StringVar(&opts.host, "host", "", "GitHub host (default from config, github.com)")
	rootCmd.PersistentFlags().BoolVar(&opts.noProxy, "no-proxy", false, "Connect directly, ignoring proxy settings")
	rootCmd.PersistentFlags().BoolVar(&opts.noPrompt, "no-prompt", false, "Never ask for credentials or certificate trust")
	rootCmd.PersistentFlags().BoolVar(&opts.plain, "plain", false, "Print plain text instead of styled Markdown")
	rootCmd.PersistentFlags().StringVarP(&opts.workDir, "dir", "C", "", "Working copy used to find the repository (default .)")

	rootCmd.AddCommand(newLoginCommand(app))
	rootCmd.AddCommand(newLogoutCommand(app))
	rootCmd.AddCommand(newStatusCommand(app))
	rootCmd.AddCommand(newWhoamiCommand(app))
	rootCmd.AddCommand(newScopesCommand(app))
	rootCmd.AddCommand(newTokenCommand(app))
	rootCmd.AddCommand(newProxyCommand(app))
	rootCmd.AddCommand(newRepoCommand(app))
	rootCmd.AddCommand(newRemoteCommand(app))
	rootCmd.AddCommand(newGistCommand(app))
	rootCmd.AddCommand(newPRCommand(app))
	rootCmd.AddCommand(newIssuesCommand(app))
	rootCmd.AddCommand(newMCPCommand(app))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the command line and returns the process exit code. A prompt
// dismissed by the user ends the run silently with status 1.
func Execute(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(app.In)
	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.ErrOut)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if github.IsCanceled(err) {
		app.Logger.Debug("Canceled by user")
		return 1
	}
	fmt.Fprintf(app.ErrOut, "Error: %v\n", err)
	return 1
}
