package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"ghclient/internal/config"
	"ghclient/internal/github"
	"ghclient/internal/render"

	"github.com/spf13/cobra"
)

// fixedSource hands out one set of credentials.
type fixedSource struct {
	creds github.Credentials
}

func (s fixedSource) Credentials(context.Context) (github.Credentials, error) {
	return s.creds, nil
}

// readSecret reads a single secret from r, e.g. a token piped to stdin.
func readSecret(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("no secret on standard input")
	}
	return secret, nil
}

func newLoginCommand(a *App) *cobra.Command {
	var withToken bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a GitHub host",
		Long: `Ask for a token or a login and password, check them against the server
and store them in the OS keyring.`,
		Example: `  ghclient login
  ghclient login --host github.example.com
  echo "$GITHUB_TOKEN" | ghclient login --with-token`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := github.NewAnonymous(a.Config.Host)
			if withToken {
				token, err := readSecret(a.In)
				if err != nil {
					return err
				}
				start = github.NewToken(a.Config.Host, token)
			} else if a.Prompter == nil {
				return fmt.Errorf("%w, use --with-token", errNoTerminal)
			}

			orch := github.NewOrchestrator(fixedSource{creds: start.WithProxy(a.Config.UseProxy)}, a.Prompter, a.Trust, a.Logger)
			user, creds, err := github.RunAndGetValidCredentials(cmd.Context(), orch, a.Client.CurrentUser)
			if err != nil {
				return err
			}

			if err := a.Store.SaveCredentials(cmd.Context(), creds); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Logged in to %s as %s\n", creds.Host(), user.Login)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withToken, "with-token", false, "Read a token from standard input")
	return cmd
}

func newLogoutCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host := a.Config.Host
			if err := a.Store.Forget(); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Logged out of %s\n", host)
			return nil
		},
	}
}

func newStatusCommand(a *App) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured account and keyring availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists := config.FindConfigFile()
			if !exists {
				path += " (not created yet)"
			}

			var b strings.Builder
			b.WriteString("# Status\n\n")
			fmt.Fprintf(&b, "- **Host:** %s\n", a.Config.Host)
			fmt.Fprintf(&b, "- **API:** %s\n", github.APIURL(a.Config.Host))
			fmt.Fprintf(&b, "- **Auth:** %s\n", a.Config.AuthType)
			if a.Config.Login != "" {
				fmt.Fprintf(&b, "- **Login:** %s\n", a.Config.Login)
			}
			fmt.Fprintf(&b, "- **Proxy:** %s\n", proxyDescription(a.Config))
			fmt.Fprintf(&b, "- **Config:** %s\n", path)

			status := a.Store.Status()
			if available, _ := status["available"].(bool); available {
				b.WriteString("- **Keyring:** available\n")
			} else {
				fmt.Fprintf(&b, "- **Keyring:** unavailable (%v)\n", status["error"])
			}

			if check {
				creds, err := github.ValidCredentialsFromConfig(cmd.Context(), a.Orch, a.Client)
				if err != nil {
					return err
				}
				fmt.Fprintf(&b, "- **Credentials:** valid (%s)\n", creds)
			}
			return a.markdown(b.String())
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Also check the stored credentials against the server")
	return cmd
}

func proxyDescription(cfg *config.Config) string {
	switch {
	case !cfg.UseProxy:
		return "disabled"
	case cfg.Proxy.Host == "":
		return "from environment"
	case cfg.Proxy.Login != "":
		return fmt.Sprintf("%s@%s:%d", cfg.Proxy.Login, cfg.Proxy.Host, cfg.Proxy.Port)
	default:
		return fmt.Sprintf("%s:%d", cfg.Proxy.Host, cfg.Proxy.Port)
	}
}

func newWhoamiCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := withCredentials(cmd, a, a.Client.CurrentUserDetailed)
			if err != nil {
				return err
			}
			return a.markdown(render.UserMarkdown(&user))
		},
	}
}

func newScopesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "List the OAuth scopes of the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := withCredentials(cmd, a, a.Client.TokenScopes)
			if err != nil {
				return err
			}
			return a.markdown(render.ScopesMarkdown(scopes))
		},
	}
}

func newProxyCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Configure an explicit HTTP proxy",
	}

	var (
		login         string
		passwordStdin bool
	)
	setCmd := &cobra.Command{
		Use:   "set HOST[:PORT]",
		Short: "Use an explicit proxy instead of the environment settings",
		Example: `  ghclient proxy set proxy.corp:3128
  echo "$PROXY_PASSWORD" | ghclient proxy set proxy.corp:3128 --login me --password-stdin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, err := parseProxyAddress(args[0])
			if err != nil {
				return err
			}
			a.Config.UseProxy = true
			a.Config.Proxy = config.ProxyConfig{Host: host, Port: port, Login: login}
			if err := a.Config.Validate(); err != nil {
				return err
			}
			if passwordStdin {
				password, err := readSecret(a.In)
				if err != nil {
					return err
				}
				if err := a.Store.StoreProxyPassword(password); err != nil {
					return err
				}
			}
			if err := a.Config.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Proxy set to %s\n", proxyDescription(a.Config))
			return nil
		},
	}
	setCmd.Flags().StringVar(&login, "login", "", "Proxy login")
	setCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the proxy password from standard input")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Go back to the proxy settings from the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Config.Proxy = config.ProxyConfig{}
			if err := a.Config.Save(); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, "Proxy cleared")
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}

const defaultProxyPort = 8080

// parseProxyAddress splits "host[:port]".
func parseProxyAddress(addr string) (string, int, error) {
	addr = strings.TrimSpace(addr)
	if !strings.Contains(addr, ":") {
		if addr == "" {
			return "", 0, fmt.Errorf("empty proxy address")
		}
		return addr, defaultProxyPort, nil
	}
	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid proxy address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid proxy port %q", portText)
	}
	if host == "" {
		return "", 0, fmt.Errorf("empty proxy host in %q", addr)
	}
	return host, port, nil
}
