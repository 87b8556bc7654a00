package github

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ghclient/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http/httpproxy"
)

func invokeStatus(t *testing.T, inv Invoker, creds Credentials, req Request) int {
	t.Helper()
	status := 0
	err := inv.Invoke(context.Background(), creds, req, func(resp *RawResponse) error {
		status = resp.StatusCode
		return nil
	})
	require.NoError(t, err)
	return status
}

func TestTransport_TokenHeader(t *testing.T) {
	api := newTestAPI(t)
	api.handle("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token ghp_testtoken", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, 200, invokeStatus(t, api.client.invoker, api.creds, Request{Method: MethodGet, Path: "/user"}))
}

func TestTransport_CallerHeadersOverrideToken(t *testing.T) {
	api := newTestAPI(t)
	api.handle("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token override", r.Header.Get("Authorization"))
		assert.Equal(t, AcceptPreviewSearch.Value, r.Header.Get("Accept"))
	})

	req := Request{
		Method:  MethodGet,
		Path:    "/user",
		Headers: []Header{{Name: "Authorization", Value: "token override"}, AcceptPreviewSearch},
	}
	invokeStatus(t, api.client.invoker, api.creds, req)
}

func TestTransport_BasicAuthIsPreemptive(t *testing.T) {
	api := newTestAPI(t)
	api.handle("/user", func(w http.ResponseWriter, r *http.Request) {
		login, password, ok := r.BasicAuth()
		assert.True(t, ok, "credentials must be on the first request")
		assert.Equal(t, "octocat", login)
		assert.Equal(t, "secret", password)
	})

	invokeStatus(t, api.client.invoker, NewBasic(api.host, "octocat", "secret"), Request{Method: MethodGet, Path: "/user"})
}

func TestTransport_AnonymousSendsNoAuthorization(t *testing.T) {
	api := newTestAPI(t)
	api.handle("/repos/o/r", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	})

	invokeStatus(t, api.client.invoker, NewAnonymous(api.host), Request{Method: MethodGet, Path: "/repos/o/r"})
}

func TestTransport_PostBody(t *testing.T) {
	api := newTestAPI(t)
	api.handle("/gists", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusCreated)
	})

	status := invokeStatus(t, api.client.invoker, api.creds, Request{Method: MethodPost, Path: "/gists", Body: []byte(`{"a":1}`)})
	assert.Equal(t, http.StatusCreated, status)
}

func TestTransport_UntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(server.Close)

	host := strings.TrimPrefix(server.URL, "https://")
	logger, _ := logging.NewTestLogger()
	trust := NewTrustStore(TrustPromptFunc(func(context.Context, string) (bool, error) {
		return true, nil
	}), logger)
	transport := NewTransport(trust, logger, WithEnvironmentProxy(&httpproxy.Config{}))
	creds := NewToken(host, "tok")
	req := Request{Method: MethodGet, Path: "/user"}

	err := transport.Invoke(context.Background(), creds, req, func(*RawResponse) error { return nil })
	require.Error(t, err)
	assert.True(t, IsCertificateError(err))

	failing, ok := certificateFailureHost(err)
	require.True(t, ok)
	assert.Equal(t, host, failing)

	accepted, err := trust.Negotiate(context.Background(), failing)
	require.NoError(t, err)
	require.True(t, accepted)

	assert.Equal(t, 200, invokeStatus(t, transport, creds, req))
}

func selfSignedCertificate(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func TestTransport_AcceptedCertificateIsPinned(t *testing.T) {
	accepted := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(accepted.Close)
	other := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	other.TLS = &tls.Config{Certificates: []tls.Certificate{selfSignedCertificate(t)}}
	other.StartTLS()
	t.Cleanup(other.Close)

	host := strings.TrimPrefix(accepted.URL, "https://")
	logger, _ := logging.NewTestLogger()
	trust := NewTrustStore(TrustPromptFunc(func(context.Context, string) (bool, error) {
		return true, nil
	}), logger)
	transport := NewTransport(trust, logger, WithEnvironmentProxy(&httpproxy.Config{}))
	req := Request{Method: MethodGet, Path: "/user"}

	err := transport.Invoke(context.Background(), NewToken(host, "tok"), req, func(*RawResponse) error { return nil })
	require.True(t, IsCertificateError(err))
	ok, err := trust.Negotiate(context.Background(), host)
	require.NoError(t, err)
	require.True(t, ok)

	fp, pinned := trust.pinned(host)
	require.True(t, pinned)
	assert.Equal(t, sha256.Sum256(accepted.Certificate().Raw), fp)

	// Another certificate under the same trusted name fails verification.
	otherHost := strings.TrimPrefix(other.URL, "https://")
	trust.store(normalizeTrustHost(otherHost), true)
	trust.pins[normalizeTrustHost(otherHost)] = fp
	err = transport.Invoke(context.Background(), NewToken(otherHost, "tok"), req, func(*RawResponse) error { return nil })
	require.Error(t, err)
	assert.True(t, IsCertificateError(err))
	assert.Contains(t, err.Error(), "certificate changed")
}

func TestTransport_TrustedWithoutObservedCertificateStaysStrict(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(server.Close)

	host := strings.TrimPrefix(server.URL, "https://")
	logger, _ := logging.NewTestLogger()
	trust := NewTrustStore(TrustPromptFunc(func(context.Context, string) (bool, error) {
		return true, nil
	}), logger)
	ok, err := trust.Negotiate(context.Background(), host)
	require.NoError(t, err)
	require.True(t, ok)

	transport := NewTransport(trust, logger, WithEnvironmentProxy(&httpproxy.Config{}))
	err = transport.Invoke(context.Background(), NewToken(host, "tok"), Request{Method: MethodGet, Path: "/user"},
		func(*RawResponse) error { return nil })
	assert.True(t, IsCertificateError(err))
}

func TestTransport_ConnectionFailureIsTransport(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	transport := NewTransport(nil, logger, WithEnvironmentProxy(&httpproxy.Config{}))

	// nothing listens on port 1
	err := transport.Invoke(context.Background(), NewToken("127.0.0.1:1", "tok"), Request{Method: MethodGet, Path: "/user"},
		func(*RawResponse) error { return nil })

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.Equal(t, "127.0.0.1:1", apiErr.Host)
	assert.False(t, IsCertificateError(err))
}

func TestTransport_HandlerErrorIsReturned(t *testing.T) {
	api := newTestAPI(t)
	api.handle("/user", func(w http.ResponseWriter, r *http.Request) {})

	want := errors.New("handler failed")
	err := api.client.invoker.Invoke(context.Background(), api.creds, Request{Method: MethodGet, Path: "/user"},
		func(*RawResponse) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestTransport_ProxySelection(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	target, _ := url.Parse("https://ghe.example/api/v3/user")

	t.Run("configured proxy with credentials", func(t *testing.T) {
		transport := NewTransport(nil, logger, WithProxySettings(ProxySettings{
			Host: "proxy.local", Port: 3128, Login: "me", Password: "pw",
		}))
		proxy, err := transport.proxyFunc()(&http.Request{URL: target})
		require.NoError(t, err)
		assert.Equal(t, "proxy.local:3128", proxy.Host)
		assert.Equal(t, "me", proxy.User.Username())
	})

	t.Run("environment proxy", func(t *testing.T) {
		transport := NewTransport(nil, logger, WithEnvironmentProxy(&httpproxy.Config{HTTPSProxy: "http://envproxy:8080"}))
		proxy, err := transport.proxyFunc()(&http.Request{URL: target})
		require.NoError(t, err)
		assert.Equal(t, "envproxy:8080", proxy.Host)
	})

	t.Run("proxy disabled per credentials", func(t *testing.T) {
		transport := NewTransport(nil, logger, WithProxySettings(ProxySettings{Host: "proxy.local"}))
		client := transport.httpClient(NewToken("ghe.example", "tok").WithProxy(false), "ghe.example", "ghe.example")
		assert.Nil(t, client.Transport.(*http.Transport).Proxy)
	})
}
