// Package credentials keeps account secrets in the OS keyring and the
// non-secret half of the account (host, auth type, login) in the config file.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ghclient/internal/config"
	"ghclient/internal/github"
	"ghclient/internal/logging"

	"github.com/zalando/go-keyring"
)

// Service name for OS credential store
const credentialService = "ghclient"

// Store implements github.CredentialSource and github.CredentialSaver on top of
// the config file and the OS keyring.
type Store struct {
	service string
	cfg     *config.Config
	logger  *logging.AppLogger
}

var (
	_ github.CredentialSource = (*Store)(nil)
	_ github.CredentialSaver  = (*Store)(nil)
)

// NewStore creates a store for the account described by cfg. SaveCredentials
// updates cfg in place and writes it back.
func NewStore(cfg *config.Config, logger *logging.AppLogger) *Store {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Store{
		service: credentialService,
		cfg:     cfg,
		logger:  logger.WithComponent("credentials"),
	}
}

// secretKey names the keyring entry for an account: <auth_type>:<host>[:<login>].
func secretKey(authType github.AuthType, host, login string) string {
	key := authType.String() + ":" + strings.ToLower(github.ResolveAPIOrigin(host))
	if login != "" {
		key += ":" + login
	}
	return key
}

func proxyKey(host, login string) string {
	return fmt.Sprintf("proxy:%s:%s", strings.ToLower(host), login)
}

// Credentials returns the configured account. A configured account whose secret
// is missing from the keyring comes back anonymous, so the caller will ask for
// fresh credentials on first use.
func (s *Store) Credentials(ctx context.Context) (github.Credentials, error) {
	authType, err := github.ParseAuthType(s.cfg.AuthType)
	if err != nil {
		return github.Credentials{}, err
	}
	host := s.cfg.Host

	var creds github.Credentials
	switch authType {
	case github.AuthAnonymous:
		creds = github.NewAnonymous(host)
	case github.AuthToken, github.AuthBasic:
		secret, err := s.get(secretKey(authType, host, s.cfg.Login))
		if errors.Is(err, keyring.ErrNotFound) {
			s.logger.Warn("No secret stored for configured account", "host", host, "auth_type", authType)
			creds = github.NewAnonymous(host)
			break
		}
		if err != nil {
			return github.Credentials{}, err
		}
		if authType == github.AuthToken {
			creds = github.NewToken(host, secret)
		} else {
			creds = github.NewBasic(host, s.cfg.Login, secret)
		}
	}

	s.logger.Debug("Loaded credentials", "credentials", creds.String())
	return creds.WithProxy(s.cfg.UseProxy), nil
}

// SaveCredentials stores the secret of creds in the keyring and records the
// account in the config file. The previous account's secret is removed when it
// lives under a different key.
func (s *Store) SaveCredentials(ctx context.Context, creds github.Credentials) error {
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("refusing to save credentials: %w", err)
	}

	var secret string
	switch creds.Type() {
	case github.AuthToken:
		secret, _ = creds.Token()
		if err := ValidateTokenFormat(secret); err != nil {
			// Enterprise and legacy tokens do not always carry a known prefix.
			s.logger.Warn("Unusual token format", "host", creds.Host(), "error", err)
		}
	case github.AuthBasic:
		_, secret, _ = creds.Basic()
	}

	key := secretKey(creds.Type(), creds.Host(), creds.Login())
	if err := keyring.Set(s.service, key, secret); err != nil {
		return fmt.Errorf("failed to store secret in credential store: %w", err)
	}

	if prev, err := github.ParseAuthType(s.cfg.AuthType); err == nil && prev != github.AuthAnonymous {
		if prevKey := secretKey(prev, s.cfg.Host, s.cfg.Login); prevKey != key {
			if err := s.delete(prevKey); err != nil {
				s.logger.Warn("Failed to remove previous secret", "error", err)
			}
		}
	}

	if err := s.cfg.SetAccount(creds.Host(), creds.Type().String(), creds.Login()); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	s.logger.Info("Saved credentials", "credentials", creds.String(), "secret", logging.Redact(secret))
	return nil
}

// Forget removes the configured account's secret and falls back to anonymous
// access on the same host.
func (s *Store) Forget() error {
	authType, err := github.ParseAuthType(s.cfg.AuthType)
	if err != nil {
		return err
	}
	if authType != github.AuthAnonymous {
		if err := s.delete(secretKey(authType, s.cfg.Host, s.cfg.Login)); err != nil {
			return err
		}
	}
	return s.cfg.SetAccount(s.cfg.Host, config.AuthAnonymous, "")
}

// ProxySettings returns the explicit proxy from the config, with its password
// read from the keyring. The zero value means the environment proxy is used.
func (s *Store) ProxySettings() (github.ProxySettings, error) {
	p := s.cfg.Proxy
	if strings.TrimSpace(p.Host) == "" {
		return github.ProxySettings{}, nil
	}
	settings := github.ProxySettings{Host: p.Host, Port: p.Port, Login: p.Login}
	if p.Login == "" {
		return settings, nil
	}

	password, err := s.get(proxyKey(p.Host, p.Login))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		s.logger.Warn("No password stored for proxy login", "proxy", p.Host, "login", p.Login)
	case err != nil:
		return github.ProxySettings{}, err
	default:
		settings.Password = password
	}
	return settings, nil
}

// StoreProxyPassword saves the password for the configured proxy login.
func (s *Store) StoreProxyPassword(password string) error {
	p := s.cfg.Proxy
	if p.Host == "" || p.Login == "" {
		return fmt.Errorf("no proxy login configured")
	}
	if err := keyring.Set(s.service, proxyKey(p.Host, p.Login), password); err != nil {
		return fmt.Errorf("failed to store proxy password in credential store: %w", err)
	}
	return nil
}

func (s *Store) get(key string) (string, error) {
	secret, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to retrieve secret from credential store: %w", err)
	}
	return secret, nil
}

func (s *Store) delete(key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete secret from credential store: %w", err)
	}
	return nil
}

// ValidateTokenFormat checks that token looks like a GitHub token.
// GitHub tokens carry a prefix depending on their type:
//   - Classic PATs: ghp_*
//   - Fine-grained PATs: github_pat_*
//   - OAuth tokens: gho_*
//   - User-to-server tokens: ghu_*
//   - Server-to-server tokens: ghs_*
func ValidateTokenFormat(token string) error {
	token = strings.TrimSpace(token)

	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}

	validPrefixes := []string{
		"ghp_",
		"github_pat_",
		"gho_",
		"ghu_",
		"ghs_",
	}
	for _, prefix := range validPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}

	return fmt.Errorf("token does not match expected GitHub token format (should start with ghp_ or github_pat_)")
}

// Status reports whether the OS credential store can be used, by writing,
// reading back and deleting a probe entry.
func (s *Store) Status() map[string]any {
	status := make(map[string]any)

	const testKey = "ghclient_probe"
	const testValue = "probe_value"

	if err := keyring.Set(s.service, testKey, testValue); err != nil {
		status["available"] = false
		status["error"] = err.Error()
		return status
	}

	got, err := keyring.Get(s.service, testKey)
	if err != nil || got != testValue {
		status["available"] = false
		if err != nil {
			status["error"] = err.Error()
		} else {
			status["error"] = "credential store corrupted - values don't match"
		}
		_ = keyring.Delete(s.service, testKey)
		return status
	}

	if err := keyring.Delete(s.service, testKey); err != nil {
		status["available"] = true
		status["warning"] = "credential store works but cleanup failed: " + err.Error()
		return status
	}

	status["available"] = true
	status["error"] = nil
	return status
}
