package github

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ghclient/internal/logging"

	"golang.org/x/net/http/httpproxy"
)

const (
	// connectTimeout bounds how long dialing the remote host may take.
	connectTimeout = 5000 * time.Millisecond
	// readTimeout bounds how long we wait for the response headers once connected.
	readTimeout = 5000 * time.Millisecond
)

// HTTP verbs supported by the API client.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodDelete = http.MethodDelete
	MethodHead   = http.MethodHead
)

// Header is a single request header. Order is preserved.
type Header struct {
	Name  string
	Value string
}

var (
	// AcceptHTMLBodyMarkup asks for rendered HTML bodies next to the raw markdown.
	AcceptHTMLBodyMarkup = Header{Name: "Accept", Value: "application/vnd.github.v3.html+json"}
	// AcceptPreviewSearch opts into the preview search API.
	AcceptPreviewSearch = Header{Name: "Accept", Value: "application/vnd.github.preview"}
)

// Request describes one API call. Requests are built per attempt and never reused.
type Request struct {
	Method  string
	Path    string // path below the API origin, including any query string
	Body    []byte // UTF-8 JSON; nil for no body
	Headers []Header
}

// RawResponse is the uninterpreted answer to a Request. Body is only valid
// inside the handler passed to Invoke.
type RawResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       io.Reader
}

// StatusText returns the reason phrase of the response, e.g. "Not Found".
func (r *RawResponse) StatusText() string {
	if _, text, ok := strings.Cut(r.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(r.StatusCode)
}

// Invoker issues a single authenticated request. The response body is released
// when handle returns, whatever the outcome.
type Invoker interface {
	Invoke(ctx context.Context, creds Credentials, req Request, handle func(*RawResponse) error) error
}

// ProxySettings is an explicitly configured HTTP proxy.
type ProxySettings struct {
	Host     string
	Port     int
	Login    string
	Password string
}

// Enabled reports whether a proxy host is configured.
func (p ProxySettings) Enabled() bool {
	return strings.TrimSpace(p.Host) != ""
}

func (p ProxySettings) url() *url.URL {
	u := &url.URL{Scheme: "http", Host: p.Host}
	if p.Port > 0 {
		u.Host = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	if p.Login != "" {
		u.User = url.UserPassword(p.Login, p.Password)
	}
	return u
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithProxySettings routes proxy-enabled credentials through an explicit proxy
// instead of the one found in the environment.
func WithProxySettings(p ProxySettings) TransportOption {
	return func(t *Transport) { t.proxy = p }
}

// WithRootCAs replaces the system certificate pool.
func WithRootCAs(pool *x509.CertPool) TransportOption {
	return func(t *Transport) { t.rootCAs = pool }
}

// WithEnvironmentProxy overrides how the system proxy is looked up.
func WithEnvironmentProxy(cfg *httpproxy.Config) TransportOption {
	return func(t *Transport) { t.envProxy = cfg }
}

// Transport is the raw request invoker. Each call gets its own http.Client so
// that proxy and certificate decisions always reflect the current credentials
// and trust store.
type Transport struct {
	trust    *TrustStore
	proxy    ProxySettings
	envProxy *httpproxy.Config
	rootCAs  *x509.CertPool
	logger   *logging.AppLogger
}

// NewTransport creates a Transport that consults trust for hosts whose
// certificate the user accepted.
func NewTransport(trust *TrustStore, logger *logging.AppLogger, opts ...TransportOption) *Transport {
	if logger == nil {
		logger = logging.GetDefault()
	}
	t := &Transport{
		trust:  trust,
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.envProxy == nil {
		t.envProxy = httpproxy.FromEnvironment()
	}
	return t
}

// Invoke builds and sends req against the API origin of creds.Host().
//
// Header order: the token Authorization header is added first, then the caller's
// headers, which may override it. Basic credentials are sent preemptively.
// Transport failures come back as *APIError with KindTransport.
func (t *Transport) Invoke(ctx context.Context, creds Credentials, req Request, handle func(*RawResponse) error) error {
	base := APIURL(creds.Host())
	target := base + req.Path
	parsed, err := url.Parse(target)
	if err != nil {
		return &APIError{Kind: KindTransport, Message: "invalid request URL", Host: creds.Host(), Err: err}
	}
	host := parsed.Host

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return &APIError{Kind: KindTransport, Message: "failed to build request", Host: host, Err: err}
	}

	if token, ok := creds.Token(); ok {
		httpReq.Header.Set("Authorization", "token "+token)
	}
	if login, password, ok := creds.Basic(); ok {
		httpReq.SetBasicAuth(login, password)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	for _, h := range req.Headers {
		httpReq.Header.Set(h.Name, h.Value)
	}

	client := t.httpClient(creds, parsed.Hostname(), host)

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		t.logger.LogPerformance(req.Method+" "+req.Path, start)
		t.trust.observe(host, failedCertificate(err))
		return &APIError{Kind: KindTransport, Message: fmt.Sprintf("%s %s failed", req.Method, req.Path), Host: host, Err: err}
	}
	defer resp.Body.Close()

	t.logger.LogRequest(req.Method, req.Path, resp.StatusCode, start)

	return handle(&RawResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
	})
}

func (t *Transport) httpClient(creds Credentials, hostname, hostport string) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}

	tlsConfig := &tls.Config{RootCAs: t.rootCAs}
	pin, ok := t.trust.pinned(hostport)
	if !ok {
		pin, ok = t.trust.pinned(hostname)
	}
	if ok {
		// The chain is not verified; the leaf must be the accepted certificate.
		tlsConfig.InsecureSkipVerify = true
		tlsConfig.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) > 0 && sha256.Sum256(rawCerts[0]) == pin {
				return nil
			}
			t.logger.Warn("Certificate differs from the one accepted", "host", hostport)
			return fmt.Errorf("certificate changed since it was accepted: %w", x509.UnknownAuthorityError{})
		}
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		DisableKeepAlives:     true,
	}
	if creds.UseProxy() {
		transport.Proxy = t.proxyFunc()
	}

	return &http.Client{Transport: transport}
}

func (t *Transport) proxyFunc() func(*http.Request) (*url.URL, error) {
	if t.proxy.Enabled() {
		return http.ProxyURL(t.proxy.url())
	}
	lookup := t.envProxy.ProxyFunc()
	return func(r *http.Request) (*url.URL, error) {
		return lookup(r.URL)
	}
}
