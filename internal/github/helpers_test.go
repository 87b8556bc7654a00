package github

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ghclient/internal/logging"

	"golang.org/x/net/http/httpproxy"
)

// testAPI is an HTTPS API server whose handlers live under /api/v3, the way an
// enterprise installation serves them.
type testAPI struct {
	server *httptest.Server
	mux    *http.ServeMux
	client *Client
	creds  Credentials
	host   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())

	logger, _ := logging.NewTestLogger()
	transport := NewTransport(NewTrustStore(nil, logger), logger,
		WithRootCAs(pool),
		WithEnvironmentProxy(&httpproxy.Config{}),
	)

	host := strings.TrimPrefix(server.URL, "https://")
	return &testAPI{
		server: server,
		mux:    mux,
		client: NewClient(transport, logger),
		creds:  NewToken(host, "ghp_testtoken"),
		host:   host,
	}
}

// handle registers h for an API path (without the /api/v3 prefix).
func (a *testAPI) handle(path string, h http.HandlerFunc) {
	a.mux.HandleFunc(enterpriseAPISuffix+path, h)
}

// link builds an absolute URL on the test server for a Link header.
func (a *testAPI) link(path string) string {
	return a.server.URL + enterpriseAPISuffix + path
}

// spyInvoker records requests and answers them from respond.
type spyInvoker struct {
	mu      sync.Mutex
	calls   []Request
	creds   []Credentials
	respond func(req Request) *RawResponse
}

func (s *spyInvoker) Invoke(ctx context.Context, creds Credentials, req Request, handle func(*RawResponse) error) error {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.creds = append(s.creds, creds)
	s.mu.Unlock()

	if s.respond == nil {
		return errors.New("unexpected request " + req.Method + " " + req.Path)
	}
	return handle(s.respond(req))
}

func (s *spyInvoker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newSpyClient(respond func(req Request) *RawResponse) (*Client, *spyInvoker) {
	spy := &spyInvoker{respond: respond}
	logger, _ := logging.NewTestLogger()
	return NewClient(spy, logger), spy
}

func jsonResponse(status int, body string) *RawResponse {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	return &RawResponse{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       r,
	}
}
