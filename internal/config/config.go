package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ghclient/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "ghclient" // application name used for config directory

const (
	// EnvConfigPath overrides the location of the config file.
	EnvConfigPath = "GHCLIENT_CONFIG_PATH"
	// EnvHost overrides the configured host without touching the file.
	EnvHost = "GHCLIENT_HOST"

	DefaultHost    = "github.com"
	CurrentVersion = "1.0"
)

// Auth types as spelled in the config file.
const (
	AuthAnonymous = "anonymous"
	AuthBasic     = "basic"
	AuthToken     = "token"
)

// ErrNoConfig is returned by Load when no config file exists yet.
var ErrNoConfig = errors.New("no configuration found, run `ghclient login` first")

// ProxyConfig is an explicit HTTP proxy. When Host is empty the system proxy
// settings from the environment are used instead. The proxy password lives in
// the keyring next to the account secret.
type ProxyConfig struct {
	Host  string `yaml:"host,omitempty"`
	Port  int    `yaml:"port,omitempty"`
	Login string `yaml:"login,omitempty"`
}

// Config holds user configuration for ghclient. Secrets are never written here.
type Config struct {
	Host     string      `yaml:"host"`
	AuthType string      `yaml:"auth_type"`
	Login    string      `yaml:"login,omitempty"`
	UseProxy bool        `yaml:"use_proxy"`
	Proxy    ProxyConfig `yaml:"proxy,omitempty"`
	Version  string      `yaml:"version"`   // Track config version
	InitTime int64       `yaml:"init_time"` // Unix timestamp of first setup

	run runOverrides
}

// runOverrides remembers the file values replaced for a single run, so that
// saving the config writes them back instead of the overrides.
type runOverrides struct {
	host         string
	fileHost     string
	hostSet      bool
	noProxy      bool
	fileUseProxy bool
}

// ConfigPath returns the config file location: $GHCLIENT_CONFIG_PATH when set,
// otherwise $XDG_CONFIG_HOME/ghclient/config.yaml.
func ConfigPath() (string, error) {
	if override := os.Getenv(EnvConfigPath); override != "" {
		return override, nil
	}

	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config paths", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location.
// If no config exists, it returns ErrNoConfig.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		return nil, ErrNoConfig
	}

	return LoadFrom(configPath)
}

// LoadOrDefault loads the config, falling back to DefaultConfig on first run.
// The GHCLIENT_HOST override is applied in both cases.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if errors.Is(err, ErrNoConfig) {
		def := DefaultConfig()
		def.applyEnv()
		return &def, nil
	}
	return cfg, err
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	cfg.applyEnv()

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	return primary, false
}

// IsFirstRun checks if this is the first time the application is run
func IsFirstRun() bool {
	_, exists := FindConfigFile()
	return !exists
}

// DefaultConfig returns an anonymous configuration for github.com.
func DefaultConfig() Config {
	return Config{
		Host:     DefaultHost,
		AuthType: AuthAnonymous,
		UseProxy: true,
		Version:  CurrentVersion,
		InitTime: 0, // Will be set during first save
	}
}

// Validate checks the fields that cannot be repaired silently.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.AuthType)) {
	case "", AuthAnonymous, AuthToken:
	case AuthBasic:
		if strings.TrimSpace(c.Login) == "" {
			return fmt.Errorf("auth_type %q requires a login", c.AuthType)
		}
	default:
		return fmt.Errorf("unknown auth_type %q", c.AuthType)
	}
	if c.Proxy.Port < 0 || c.Proxy.Port > 65535 {
		return fmt.Errorf("invalid proxy port %d", c.Proxy.Port)
	}
	return nil
}

func (c *Config) applyEnv() {
	if strings.TrimSpace(c.Host) == "" {
		c.Host = DefaultHost
	}
	if host := strings.TrimSpace(os.Getenv(EnvHost)); host != "" {
		logging.Debug("Host overridden from environment", "host", host)
		c.OverrideHost(host)
	}
}

// OverrideHost uses host for this run only. Save keeps the host from the
// file unless SetAccount records an account for another host.
func (c *Config) OverrideHost(host string) {
	if !c.run.hostSet {
		c.run.fileHost = c.Host
		c.run.hostSet = true
	}
	c.run.host = host
	c.Host = host
}

// DisableProxy turns proxy use off for this run only.
func (c *Config) DisableProxy() {
	if !c.run.noProxy {
		c.run.fileUseProxy = c.UseProxy
		c.run.noProxy = true
	}
	c.UseProxy = false
}

// persisted returns the config as it belongs on disk, with run overrides undone.
func (c *Config) persisted() Config {
	out := *c
	out.run = runOverrides{}
	if c.run.hostSet && c.Host == c.run.host {
		out.Host = c.run.fileHost
	}
	if c.run.noProxy && !c.UseProxy {
		out.UseProxy = c.run.fileUseProxy
	}
	return out
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}
	if c.Version == "" {
		c.Version = CurrentVersion
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c.persisted()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logging.Debug("Config saved", "path", path)
	return nil
}

// SetAccount records which account the keyring holds and saves the config.
// The account's host is written even when it came from a run override, since
// the keyring secret is keyed by it.
func (c *Config) SetAccount(host, authType, login string) error {
	c.run.hostSet = false
	c.Host = host
	c.AuthType = authType
	c.Login = login
	if err := c.Validate(); err != nil {
		return err
	}
	return c.Save()
}
