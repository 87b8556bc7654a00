package github

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"ghclient/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	creds Credentials
	err   error
	saved []Credentials
}

func (s *stubSource) Credentials(context.Context) (Credentials, error) {
	return s.creds, s.err
}

type savingSource struct {
	*stubSource
}

func (s savingSource) SaveCredentials(_ context.Context, creds Credentials) error {
	s.saved = append(s.saved, creds)
	return nil
}

type stubPrompter struct {
	fresh    Credentials
	err      error
	requests []PromptRequest
}

func (p *stubPrompter) PromptCredentials(_ context.Context, req PromptRequest) (Credentials, error) {
	p.requests = append(p.requests, req)
	return p.fresh, p.err
}

func newTestOrchestrator(source CredentialSource, prompter CredentialPrompter, trust *TrustStore) *Orchestrator {
	logger, _ := logging.NewTestLogger()
	return NewOrchestrator(source, prompter, trust, logger)
}

func certificateFailure(host string) error {
	return &APIError{
		Kind: KindTransport,
		Host: host,
		Err:  &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}},
	}
}

func TestRunWithValidCredentials_RetriesOnceAfterAuthFailure(t *testing.T) {
	stored := NewToken("github.com", "expired")
	fresh := NewToken("github.com", "fresh")
	source := savingSource{&stubSource{creds: stored}}
	prompter := &stubPrompter{fresh: fresh}
	o := newTestOrchestrator(source, prompter, nil)

	var seen []Credentials
	result, err := RunWithValidCredentials(context.Background(), o, func(_ context.Context, creds Credentials) (string, error) {
		seen = append(seen, creds)
		if len(seen) == 1 {
			return "", authFailure("Request response: Unauthorized - Bad credentials")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, []Credentials{stored, fresh}, seen, "work runs exactly twice, second time with fresh credentials")
	assert.Len(t, prompter.requests, 1)
	assert.Equal(t, "github.com", prompter.requests[0].Host)
	assert.Equal(t, []Credentials{fresh}, source.saved)
}

func TestRunWithValidCredentials_FreshCredentialsKeepProxyChoice(t *testing.T) {
	stored := NewToken("github.com", "expired").WithProxy(false)
	source := savingSource{&stubSource{creds: stored}}
	prompter := &stubPrompter{fresh: NewToken("github.com", "fresh")}
	o := newTestOrchestrator(source, prompter, nil)

	var proxied []bool
	_, err := RunWithValidCredentials(context.Background(), o, func(_ context.Context, creds Credentials) (struct{}, error) {
		proxied = append(proxied, creds.UseProxy())
		if len(proxied) == 1 {
			return struct{}{}, authFailure("Request response: Unauthorized - Bad credentials")
		}
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, proxied)
	require.Len(t, source.saved, 1)
	assert.False(t, source.saved[0].UseProxy())
}

func TestRunWithValidCredentials_CancelStopsImmediately(t *testing.T) {
	source := &stubSource{creds: NewToken("github.com", "expired")}
	prompter := &stubPrompter{err: ErrCanceledByUser}
	o := newTestOrchestrator(source, prompter, nil)

	calls := 0
	_, err := RunWithValidCredentials(context.Background(), o, func(context.Context, Credentials) (int, error) {
		calls++
		return 0, authFailure("Request response: Unauthorized")
	})

	assert.ErrorIs(t, err, ErrCanceledByUser)
	assert.True(t, IsCanceled(err))
	assert.Equal(t, 1, calls)
}

func TestRunWithValidCredentials_SecondAuthFailurePropagates(t *testing.T) {
	source := &stubSource{creds: NewToken("github.com", "expired")}
	prompter := &stubPrompter{fresh: NewToken("github.com", "also-bad")}
	o := newTestOrchestrator(source, prompter, nil)

	calls := 0
	_, err := RunWithValidCredentials(context.Background(), o, func(context.Context, Credentials) (int, error) {
		calls++
		return 0, authFailure("Request response: Unauthorized")
	})

	assert.True(t, IsAuthenticationFailure(err))
	assert.Equal(t, 2, calls)
	assert.Len(t, prompter.requests, 1)
}

func TestRunWithValidCredentials_AnonymousPromptsFirst(t *testing.T) {
	source := &stubSource{creds: NewAnonymous("github.com")}
	fresh := NewBasic("github.com", "octocat", "secret")
	prompter := &stubPrompter{fresh: fresh}
	o := newTestOrchestrator(source, prompter, nil)

	var seen []Credentials
	_, err := RunWithValidCredentials(context.Background(), o, func(_ context.Context, creds Credentials) (struct{}, error) {
		seen = append(seen, creds)
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []Credentials{fresh}, seen, "anonymous credentials are never used for authenticated work")
	assert.Len(t, prompter.requests, 1)
}

func TestRunWithValidCredentials_OtherErrorsAreNotRetried(t *testing.T) {
	source := &stubSource{creds: NewToken("github.com", "tok")}
	prompter := &stubPrompter{}
	o := newTestOrchestrator(source, prompter, NewTrustStore(nil, nil))

	want := &APIError{Kind: KindStatus, StatusCode: 404, Message: "404: Not Found"}
	calls := 0
	_, err := RunWithValidCredentials(context.Background(), o, func(context.Context, Credentials) (int, error) {
		calls++
		return 0, want
	})

	assert.Same(t, want, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, prompter.requests)
}

func TestRunWithValidCredentials_TrustAcceptedRetriesWithSameCredentials(t *testing.T) {
	stored := NewToken("ghe.example", "tok")
	source := &stubSource{creds: stored}
	asked := 0
	trust := NewTrustStore(TrustPromptFunc(func(_ context.Context, host string) (bool, error) {
		asked++
		assert.Equal(t, "ghe.example", host)
		return true, nil
	}), nil)
	o := newTestOrchestrator(source, &stubPrompter{}, trust)

	var seen []Credentials
	result, err := RunWithValidCredentials(context.Background(), o, func(_ context.Context, creds Credentials) (string, error) {
		seen = append(seen, creds)
		if !trust.Trusted("ghe.example") {
			return "", certificateFailure("ghe.example")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, []Credentials{stored, stored}, seen)
	assert.Equal(t, 1, asked)
}

func TestRunWithValidCredentials_TrustDeclinedPropagatesOriginalError(t *testing.T) {
	source := &stubSource{creds: NewToken("ghe.example", "tok")}
	trust := NewTrustStore(TrustPromptFunc(func(context.Context, string) (bool, error) {
		return false, nil
	}), nil)
	o := newTestOrchestrator(source, &stubPrompter{}, trust)

	original := certificateFailure("ghe.example")
	calls := 0
	_, err := RunWithValidCredentials(context.Background(), o, func(context.Context, Credentials) (int, error) {
		calls++
		return 0, original
	})

	assert.Same(t, original, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsCertificateError(err))
}

func TestRunWithValidCredentials_AtMostOneTrustRetry(t *testing.T) {
	source := &stubSource{creds: NewToken("ghe.example", "tok")}
	trust := NewTrustStore(TrustPromptFunc(func(context.Context, string) (bool, error) {
		return true, nil
	}), nil)
	o := newTestOrchestrator(source, &stubPrompter{}, trust)

	calls := 0
	_, err := RunWithValidCredentials(context.Background(), o, func(context.Context, Credentials) (int, error) {
		calls++
		return 0, certificateFailure("ghe.example")
	})

	assert.True(t, IsCertificateError(err))
	assert.Equal(t, 2, calls)
}

func TestRunWithValidCredentials_SourceError(t *testing.T) {
	source := &stubSource{err: errors.New("keyring locked")}
	o := newTestOrchestrator(source, &stubPrompter{}, nil)

	_, err := RunWithValidCredentials(context.Background(), o, func(context.Context, Credentials) (int, error) {
		t.Fatal("work must not run")
		return 0, nil
	})

	assert.ErrorContains(t, err, "keyring locked")
}

func TestRunAndGetValidCredentials_ReturnsWorkingCredentials(t *testing.T) {
	fresh := NewToken("github.com", "fresh")
	source := &stubSource{creds: NewToken("github.com", "stale")}
	o := newTestOrchestrator(source, &stubPrompter{fresh: fresh}, nil)

	_, creds, err := RunAndGetValidCredentials(context.Background(), o, func(_ context.Context, creds Credentials) (bool, error) {
		if tok, _ := creds.Token(); tok == "stale" {
			return false, authFailure("bad")
		}
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, fresh, creds)
}

func TestRunWithValidBasicCredentialsForHost(t *testing.T) {
	t.Run("uses stored basic credentials for the same host", func(t *testing.T) {
		stored := NewBasic("https://ghe.example/", "octocat", "pw")
		prompter := &stubPrompter{}
		o := newTestOrchestrator(&stubSource{creds: stored}, prompter, nil)

		got, err := RunWithValidBasicCredentialsForHost(context.Background(), o, "ghe.example", func(_ context.Context, creds Credentials) (Credentials, error) {
			return creds, nil
		})

		require.NoError(t, err)
		assert.Equal(t, stored, got)
		assert.Empty(t, prompter.requests)
	})

	t.Run("prompts with a locked host when stored credentials are a token", func(t *testing.T) {
		fresh := NewBasic("ghe.example", "octocat", "pw")
		prompter := &stubPrompter{fresh: fresh}
		o := newTestOrchestrator(&stubSource{creds: NewToken("ghe.example", "tok")}, prompter, nil)

		got, err := RunWithValidBasicCredentialsForHost(context.Background(), o, "ghe.example", func(_ context.Context, creds Credentials) (Credentials, error) {
			return creds, nil
		})

		require.NoError(t, err)
		assert.Equal(t, fresh, got)
		require.Len(t, prompter.requests, 1)
		assert.True(t, prompter.requests[0].LockHost)
		assert.True(t, prompter.requests[0].BasicOnly)
		assert.Equal(t, "ghe.example", prompter.requests[0].Host)
	})

	t.Run("rejects a token from the prompt", func(t *testing.T) {
		prompter := &stubPrompter{fresh: NewToken("ghe.example", "tok")}
		o := newTestOrchestrator(&stubSource{creds: NewAnonymous("github.com")}, prompter, nil)

		_, err := RunWithValidBasicCredentialsForHost(context.Background(), o, "ghe.example", func(context.Context, Credentials) (int, error) {
			t.Fatal("work must not run")
			return 0, nil
		})

		assert.True(t, IsAuthenticationFailure(err))
	})
}

func TestValidCredentialsFromConfig(t *testing.T) {
	api := newTestAPI(t)
	api.handle("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token good" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
			return
		}
		fmt.Fprint(w, `{"login":"octocat","id":1}`)
	})

	source := &stubSource{creds: NewToken(api.host, "bad")}
	prompter := &stubPrompter{fresh: NewToken(api.host, "good")}
	o := newTestOrchestrator(source, prompter, nil)

	creds, err := ValidCredentialsFromConfig(context.Background(), o, api.client)
	require.NoError(t, err)

	tok, ok := creds.Token()
	assert.True(t, ok)
	assert.Equal(t, "good", tok)
}
