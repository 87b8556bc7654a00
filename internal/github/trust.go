package github

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ghclient/internal/logging"

	"golang.org/x/sync/singleflight"
)

// TrustPrompter asks the user whether to accept an unverifiable certificate for host.
// Implementations block until the user answers.
type TrustPrompter interface {
	AskTrust(ctx context.Context, host string) (bool, error)
}

// TrustPromptFunc adapts a function to TrustPrompter.
type TrustPromptFunc func(ctx context.Context, host string) (bool, error)

func (f TrustPromptFunc) AskTrust(ctx context.Context, host string) (bool, error) {
	return f(ctx, host)
}

// TrustStore remembers, per host, whether the user accepted a self-signed or
// otherwise untrusted certificate. Answers are kept for the lifetime of the
// store, negative ones included, so a host is never asked about twice.
//
// Accepting a host pins the certificate it presented when verification failed;
// a different certificate from the same host is rejected later.
//
// A single TrustStore is meant to be created at startup and shared by every
// transport and orchestrator in the process. It is safe for concurrent use;
// concurrent first failures for the same host share one prompt.
type TrustStore struct {
	prompter TrustPrompter
	logger   *logging.AppLogger

	mu        sync.RWMutex
	decisions map[string]bool
	seen      map[string][sha256.Size]byte
	pins      map[string][sha256.Size]byte
	inflight  singleflight.Group
}

// NewTrustStore creates an empty store. A nil prompter declines every host.
func NewTrustStore(prompter TrustPrompter, logger *logging.AppLogger) *TrustStore {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &TrustStore{
		prompter:  prompter,
		logger:    logger,
		decisions: make(map[string]bool),
		seen:      make(map[string][sha256.Size]byte),
		pins:      make(map[string][sha256.Size]byte),
	}
}

// observe records the certificate host presented in a failed handshake, so
// that accepting the host pins exactly that certificate.
func (s *TrustStore) observe(host string, cert *x509.Certificate) {
	if s == nil || cert == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[normalizeTrustHost(host)] = sha256.Sum256(cert.Raw)
}

// pinned returns the fingerprint of the accepted certificate of host.
func (s *TrustStore) pinned(host string) ([sha256.Size]byte, bool) {
	if s == nil {
		return [sha256.Size]byte{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := normalizeTrustHost(host)
	if !s.decisions[key] {
		return [sha256.Size]byte{}, false
	}
	fp, ok := s.pins[key]
	return fp, ok
}

// Trusted reports whether the user accepted the certificate of host.
func (s *TrustStore) Trusted(host string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decisions[normalizeTrustHost(host)]
}

// Decision returns the cached answer for host, if any.
func (s *TrustStore) Decision(host string) (accepted, known bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accepted, known = s.decisions[normalizeTrustHost(host)]
	return accepted, known
}

// Negotiate returns the user's decision for host, prompting only on the first call.
//
// A prompter error is returned as-is and nothing is cached, so a later failure
// can ask again.
func (s *TrustStore) Negotiate(ctx context.Context, host string) (bool, error) {
	key := normalizeTrustHost(host)
	if accepted, known := s.Decision(key); known {
		s.logger.Debug("Using cached certificate decision", "host", key, "accepted", accepted)
		return accepted, nil
	}

	v, err, _ := s.inflight.Do(key, func() (any, error) {
		// another caller may have finished prompting while we waited
		if accepted, known := s.Decision(key); known {
			return accepted, nil
		}
		if s.prompter == nil {
			s.store(key, false)
			return false, nil
		}

		s.logger.Info("Asking user to trust certificate", "host", key)
		accepted, err := s.prompter.AskTrust(ctx, key)
		if err != nil {
			return false, fmt.Errorf("certificate trust prompt failed: %w", err)
		}
		s.store(key, accepted)
		s.logger.Info("Certificate decision recorded", "host", key, "accepted", accepted)
		return accepted, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *TrustStore) store(host string, accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[host] = accepted
	if fp, ok := s.seen[host]; ok && accepted {
		s.pins[host] = fp
	}
}

func normalizeTrustHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

// IsCertificateError reports whether err was caused by certificate validation.
func IsCertificateError(err error) bool {
	if err == nil {
		return false
	}

	var unknownAuthority x509.UnknownAuthorityError
	var invalid x509.CertificateInvalidError
	var hostname x509.HostnameError
	var verification *tls.CertificateVerificationError

	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalid) ||
		errors.As(err, &hostname) ||
		errors.As(err, &verification)
}

// failedCertificate returns the leaf certificate a verification error refers to.
func failedCertificate(err error) *x509.Certificate {
	var verification *tls.CertificateVerificationError
	if errors.As(err, &verification) && len(verification.UnverifiedCertificates) > 0 {
		return verification.UnverifiedCertificates[0]
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return unknownAuthority.Cert
	}
	var invalid x509.CertificateInvalidError
	if errors.As(err, &invalid) {
		return invalid.Cert
	}
	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return hostname.Certificate
	}
	return nil
}

// certificateFailureHost returns the host of a certificate-flavoured transport failure.
func certificateFailureHost(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindTransport {
		return "", false
	}
	if !IsCertificateError(apiErr.Err) {
		return "", false
	}
	return apiErr.Host, true
}
