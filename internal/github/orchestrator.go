package github

import (
	"context"
	"errors"
	"fmt"

	"ghclient/internal/logging"
)

// CredentialSource provides the currently configured credentials.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// CredentialSaver persists credentials that were entered interactively and
// proved valid.
type CredentialSaver interface {
	SaveCredentials(ctx context.Context, creds Credentials) error
}

// PromptRequest describes what the credential prompt should ask for.
type PromptRequest struct {
	Host      string
	LockHost  bool // the host may not be edited
	BasicOnly bool // only login/password is acceptable
	Reason    string
}

// CredentialPrompter asks the user for fresh credentials. It returns
// ErrCanceledByUser when the user dismisses the prompt.
type CredentialPrompter interface {
	PromptCredentials(ctx context.Context, req PromptRequest) (Credentials, error)
}

// CredentialPromptFunc adapts a function to CredentialPrompter.
type CredentialPromptFunc func(ctx context.Context, req PromptRequest) (Credentials, error)

func (f CredentialPromptFunc) PromptCredentials(ctx context.Context, req PromptRequest) (Credentials, error) {
	return f(ctx, req)
}

// Work is a unit of work that needs valid credentials.
type Work[T any] func(ctx context.Context, creds Credentials) (T, error)

// Orchestrator owns the retry policy for authenticated calls: at most one
// credential prompt and one certificate trust decision per call.
type Orchestrator struct {
	source   CredentialSource
	prompter CredentialPrompter
	trust    *TrustStore
	logger   *logging.AppLogger
}

// NewOrchestrator wires the credential and trust collaborators. prompter and
// trust may be nil, in which case the matching failures are not retried.
func NewOrchestrator(source CredentialSource, prompter CredentialPrompter, trust *TrustStore, logger *logging.AppLogger) *Orchestrator {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Orchestrator{
		source:   source,
		prompter: prompter,
		trust:    trust,
		logger:   logger,
	}
}

type runState int

const (
	stateInitial runState = iota
	stateAttempt
	stateNeedFreshCredentials
	stateNeedTLSDecision
	stateOK
	stateCanceled
	stateDeclined
	stateFailed
)

func (s runState) String() string {
	switch s {
	case stateInitial:
		return "INITIAL"
	case stateAttempt:
		return "ATTEMPT"
	case stateNeedFreshCredentials:
		return "NEED_FRESH_CREDS"
	case stateNeedTLSDecision:
		return "NEED_TLS_DECISION"
	case stateOK:
		return "OK"
	case stateCanceled:
		return "CANCELED"
	case stateDeclined:
		return "DECLINED"
	default:
		return "FAILED"
	}
}

// RunWithValidCredentials runs work with the configured credentials, prompting
// once for new ones on an authentication failure and asking once about an
// untrusted certificate. Stored anonymous credentials trigger the prompt right
// away. A canceled prompt yields ErrCanceledByUser.
func RunWithValidCredentials[T any](ctx context.Context, o *Orchestrator, work Work[T]) (T, error) {
	result, _, err := runAndGet(ctx, o, work)
	return result, err
}

// RunAndGetValidCredentials is RunWithValidCredentials that also returns the
// credentials the work finally succeeded with.
func RunAndGetValidCredentials[T any](ctx context.Context, o *Orchestrator, work Work[T]) (T, Credentials, error) {
	return runAndGet(ctx, o, work)
}

func runAndGet[T any](ctx context.Context, o *Orchestrator, work Work[T]) (T, Credentials, error) {
	creds, err := o.source.Credentials(ctx)
	if err != nil {
		var zero T
		return zero, Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	return run(ctx, o, creds, PromptRequest{Host: creds.Host()}, work, true)
}

// RunWithValidBasicCredentialsForHost runs work with login/password credentials
// for host. Stored credentials are used when they are basic and bound to host;
// otherwise the user is asked, with the host locked.
func RunWithValidBasicCredentialsForHost[T any](ctx context.Context, o *Orchestrator, host string, work Work[T]) (T, error) {
	var zero T
	stored, err := o.source.Credentials(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to load credentials: %w", err)
	}

	creds := NewAnonymous(host).WithProxy(stored.UseProxy())
	if stored.Type() == AuthBasic && ResolveAPIOrigin(stored.Host()) == ResolveAPIOrigin(host) {
		creds = stored
	}

	req := PromptRequest{Host: host, LockHost: true, BasicOnly: true, Reason: "login and password required"}
	result, _, err := run(ctx, o, creds, req, work, false)
	return result, err
}

// ValidCredentialsFromConfig checks the stored credentials against the server
// and returns them, prompting for new ones when they do not work.
func ValidCredentialsFromConfig(ctx context.Context, o *Orchestrator, c *Client) (Credentials, error) {
	_, creds, err := RunAndGetValidCredentials(ctx, o, func(ctx context.Context, creds Credentials) (struct{}, error) {
		return struct{}{}, c.CheckCredentials(ctx, creds)
	})
	return creds, err
}

// run drives the state machine for one logical call.
func run[T any](ctx context.Context, o *Orchestrator, creds Credentials, prompt PromptRequest, work Work[T], save bool) (T, Credentials, error) {
	var (
		zero         T
		state        = stateInitial
		credsRetried bool
		tlsRetried   bool
		lastErr      error
		failingHost  string
	)

	move := func(to runState) {
		o.logger.LogStateTransition("orchestrator", state.String(), to.String())
		state = to
	}

	if creds.IsAnonymous() {
		lastErr = authFailure("authentication required")
		move(stateNeedFreshCredentials)
	} else {
		move(stateAttempt)
	}

	for {
		switch state {
		case stateAttempt:
			value, err := work(ctx, creds)
			if err == nil {
				move(stateOK)
				if credsRetried && save {
					o.save(ctx, creds)
				}
				return value, creds, nil
			}
			lastErr = err

			if IsAuthenticationFailure(err) && !credsRetried {
				move(stateNeedFreshCredentials)
				continue
			}
			if host, ok := certificateFailureHost(err); ok && !tlsRetried && o.trust != nil {
				failingHost = host
				move(stateNeedTLSDecision)
				continue
			}
			move(stateFailed)
			return zero, creds, err

		case stateNeedFreshCredentials:
			credsRetried = true
			if o.prompter == nil {
				move(stateFailed)
				return zero, creds, lastErr
			}

			if prompt.Host == "" {
				prompt.Host = creds.Host()
			}
			o.logger.LogUserAction("credential prompt", prompt.Host)
			fresh, err := o.prompter.PromptCredentials(ctx, prompt)
			if errors.Is(err, ErrCanceledByUser) {
				move(stateCanceled)
				return zero, creds, ErrCanceledByUser
			}
			if err != nil {
				move(stateFailed)
				return zero, creds, fmt.Errorf("credential prompt failed: %w", err)
			}
			if prompt.BasicOnly && fresh.Type() != AuthBasic {
				move(stateFailed)
				return zero, creds, authFailure("login and password required")
			}
			if err := fresh.Validate(); err != nil {
				move(stateFailed)
				return zero, creds, err
			}
			creds = fresh.WithProxy(creds.UseProxy())
			move(stateAttempt)

		case stateNeedTLSDecision:
			tlsRetried = true
			accepted, err := o.trust.Negotiate(ctx, failingHost)
			if err != nil {
				move(stateFailed)
				return zero, creds, err
			}
			if !accepted {
				move(stateDeclined)
				return zero, creds, lastErr
			}
			move(stateAttempt)

		default:
			return zero, creds, lastErr
		}
	}
}

func (o *Orchestrator) save(ctx context.Context, creds Credentials) {
	saver, ok := o.source.(CredentialSaver)
	if !ok {
		return
	}
	if err := saver.SaveCredentials(ctx, creds); err != nil {
		o.logger.Warn("Failed to save credentials", "credentials", creds.String(), "error", err)
	}
}
