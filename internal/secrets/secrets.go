// Package secrets resolves backend credentials from the environment, a local
// JSON file or HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// SecretKey names a credential used by coupler's backends.
type SecretKey string

const (
	SecretNeo4jPassword  SecretKey = "neo4j_password"
	SecretTemporalAPIKey SecretKey = "temporal_api_key"
)

// ErrNotFound is returned when no provider holds the secret.
var ErrNotFound = errors.New("secret not found")

// Provider is a read-only secret backend.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Name() string
}

// Config configures the secrets manager.
type Config struct {
	// Provider is "env", "file" or "vault".
	Provider  string      `mapstructure:"provider"`
	EnvPrefix string      `mapstructure:"env_prefix"`
	File      string      `mapstructure:"file"`
	Vault     VaultConfig `mapstructure:"vault"`
}

// DefaultConfig returns the env-backed configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:  "env",
		EnvPrefix: "COUPLER_",
	}
}

// Manager looks secrets up in a primary provider, then the environment.
type Manager struct {
	primary  Provider
	fallback Provider

	cacheMu  sync.RWMutex
	cache    map[string]string
	useCache bool
}

// NewManager creates a manager for cfg.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var primary Provider
	switch cfg.Provider {
	case "env", "":
		primary = NewEnvProvider(cfg.EnvPrefix)
	case "file":
		p, err := NewFileProvider(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("create file provider: %w", err)
		}
		primary = p
	case "vault":
		p, err := NewVaultProvider(&cfg.Vault)
		if err != nil {
			return nil, fmt.Errorf("create vault provider: %w", err)
		}
		primary = p
	default:
		return nil, fmt.Errorf("unknown secrets provider: %s", cfg.Provider)
	}

	return &Manager{
		primary:  primary,
		fallback: NewEnvProvider(cfg.EnvPrefix),
		cache:    make(map[string]string),
		useCache: true,
	}, nil
}

// Get returns the secret for key from the primary provider, falling back
// to the environment.
func (m *Manager) Get(ctx context.Context, key SecretKey) (string, error) {
	k := string(key)
	if m.useCache {
		m.cacheMu.RLock()
		val, ok := m.cache[k]
		m.cacheMu.RUnlock()
		if ok {
			return val, nil
		}
	}

	for _, p := range []Provider{m.primary, m.fallback} {
		if p == nil {
			continue
		}
		if val, err := p.Get(ctx, k); err == nil && val != "" {
			m.cacheSet(k, val)
			return val, nil
		}
	}
	return "", fmt.Errorf("%s: %w", key, ErrNotFound)
}

// Resolve returns configured when set, otherwise the secret for key, or ""
// when neither exists.
func (m *Manager) Resolve(ctx context.Context, configured string, key SecretKey) string {
	if configured != "" {
		return configured
	}
	val, err := m.Get(ctx, key)
	if err != nil {
		return ""
	}
	return val
}

// ClearCache drops cached values.
func (m *Manager) ClearCache() {
	m.cacheMu.Lock()
	m.cache = make(map[string]string)
	m.cacheMu.Unlock()
}

// DisableCache turns caching off.
func (m *Manager) DisableCache() {
	m.useCache = false
}

func (m *Manager) cacheSet(key, value string) {
	if !m.useCache {
		return
	}
	m.cacheMu.Lock()
	m.cache[key] = value
	m.cacheMu.Unlock()
}

// EnvProvider reads secrets from environment variables named
// prefix + upper(key), then upper(key).
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates an environment-based provider.
func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = "COUPLER_"
	}
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Get(_ context.Context, key string) (string, error) {
	envKey := p.prefix + strings.ToUpper(key)
	if val := os.Getenv(envKey); val != "" {
		return val, nil
	}
	if val := os.Getenv(strings.ToUpper(key)); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("env var %s: %w", envKey, ErrNotFound)
}
