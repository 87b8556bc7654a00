package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ghclient/internal/github"
	"ghclient/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// Prompter runs the prompts as short-lived Bubble Tea programs. It implements
// github.CredentialPrompter and github.TrustPrompter.
type Prompter struct {
	in     io.Reader
	out    io.Writer
	logger *logging.AppLogger
}

var (
	_ github.CredentialPrompter = (*Prompter)(nil)
	_ github.TrustPrompter      = (*Prompter)(nil)
)

// New creates a prompter reading keys from in and drawing to out. Use stderr
// for out so command output on stdout stays clean.
func New(in io.Reader, out io.Writer, logger *logging.AppLogger) *Prompter {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Prompter{in: in, out: out, logger: logger.WithComponent("prompt")}
}

// PromptCredentials shows the login form. Dismissing it returns
// github.ErrCanceledByUser.
func (p *Prompter) PromptCredentials(ctx context.Context, req github.PromptRequest) (github.Credentials, error) {
	final, err := p.run(ctx, NewLoginModel(req, p.logger))
	if err != nil {
		return github.Credentials{}, err
	}

	m, ok := final.(*LoginModel)
	if !ok {
		return github.Credentials{}, fmt.Errorf("unexpected login model %T", final)
	}
	creds, done := m.Result()
	if m.Canceled() || !done {
		return github.Credentials{}, github.ErrCanceledByUser
	}
	return creds, nil
}

// AskTrust asks whether to accept the certificate of host.
func (p *Prompter) AskTrust(ctx context.Context, host string) (bool, error) {
	final, err := p.run(ctx, NewTrustModel(host, p.logger))
	if err != nil {
		return false, err
	}
	m, ok := final.(*TrustModel)
	if !ok {
		return false, fmt.Errorf("unexpected trust model %T", final)
	}
	return m.Accepted(), nil
}

func (p *Prompter) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return final, nil
}
