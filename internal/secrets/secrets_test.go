package secrets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}
	return path
}

// ==================== EnvProvider Tests ====================

func TestEnvProvider_Get_WithPrefix(t *testing.T) {
	t.Setenv("COUPLER_NEO4J_PASSWORD", "hunter2")

	p := NewEnvProvider("COUPLER_")
	val, err := p.Get(context.Background(), "neo4j_password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "hunter2" {
		t.Fatalf("expected 'hunter2', got %s", val)
	}
}

func TestEnvProvider_Get_WithoutPrefix(t *testing.T) {
	t.Setenv("TEMPORAL_API_KEY", "direct")

	p := NewEnvProvider("COUPLER_")
	val, err := p.Get(context.Background(), "temporal_api_key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "direct" {
		t.Fatalf("expected 'direct', got %s", val)
	}
}

func TestEnvProvider_Get_NotFound(t *testing.T) {
	p := NewEnvProvider("COUPLER_")
	_, err := p.Get(context.Background(), "nonexistent_secret_xyz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnvProvider_DefaultPrefix(t *testing.T) {
	p := NewEnvProvider("")
	if p.prefix != "COUPLER_" {
		t.Fatalf("expected default prefix 'COUPLER_', got %s", p.prefix)
	}
	if p.Name() != "env" {
		t.Fatalf("expected 'env', got %s", p.Name())
	}
}

// ==================== FileProvider Tests ====================

func TestFileProvider_Get(t *testing.T) {
	p, err := NewFileProvider(writeSecrets(t, `{"neo4j_password": "from-file"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "file" {
		t.Fatalf("expected 'file', got %s", p.Name())
	}

	val, err := p.Get(context.Background(), "neo4j_password")
	if err != nil || val != "from-file" {
		t.Fatalf("Get = %q, %v", val, err)
	}
	if _, err := p.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileProvider_MissingFileIsEmpty(t *testing.T) {
	p, err := NewFileProvider(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Get(context.Background(), "neo4j_password"); err == nil {
		t.Fatal("expected error from empty provider")
	}
}

func TestFileProvider_InvalidJSON(t *testing.T) {
	if _, err := NewFileProvider(writeSecrets(t, `not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestFileProvider_Reload(t *testing.T) {
	path := writeSecrets(t, `{"neo4j_password": "v1"}`)
	p, err := NewFileProvider(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"neo4j_password": "v2"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if val, _ := p.Get(context.Background(), "neo4j_password"); val != "v2" {
		t.Fatalf("expected 'v2' after reload, got %s", val)
	}
}

func TestFileProvider_EmptyPath(t *testing.T) {
	if _, err := NewFileProvider(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

// ==================== VaultProvider Tests ====================

func TestVaultProvider_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/coupler" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"data": {"data": {"neo4j_password": "from-vault", "port": 7687}}}`))
	}))
	defer srv.Close()

	p, err := NewVaultProvider(&VaultConfig{Address: srv.URL, Token: "root"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if val, err := p.Get(ctx, "neo4j_password"); err != nil || val != "from-vault" {
		t.Fatalf("Get = %q, %v", val, err)
	}
	if val, err := p.Get(ctx, "port"); err != nil || val != "7687" {
		t.Fatalf("non-string value = %q, %v", val, err)
	}
	if _, err := p.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVaultProvider_RequiresAddressAndToken(t *testing.T) {
	if _, err := NewVaultProvider(&VaultConfig{Token: "t"}); err == nil {
		t.Fatal("expected error without address")
	}
	if _, err := NewVaultProvider(&VaultConfig{Address: "http://localhost:8200"}); err == nil {
		t.Fatal("expected error without token")
	}
}

// ==================== Manager Tests ====================

func TestManager_DefaultConfig(t *testing.T) {
	m, err := NewManager(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.primary.Name() != "env" {
		t.Fatalf("expected env primary, got %s", m.primary.Name())
	}
}

func TestManager_FileWithEnvFallback(t *testing.T) {
	t.Setenv("COUPLER_TEMPORAL_API_KEY", "env-key")
	m, err := NewManager(&Config{
		Provider: "file",
		File:     writeSecrets(t, `{"neo4j_password": "from-file"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if val, _ := m.Get(ctx, SecretNeo4jPassword); val != "from-file" {
		t.Errorf("neo4j password = %q, want from-file", val)
	}
	if val, _ := m.Get(ctx, SecretTemporalAPIKey); val != "env-key" {
		t.Errorf("temporal key = %q, want env-key", val)
	}
}

func TestManager_Resolve(t *testing.T) {
	m, err := NewManager(&Config{
		Provider: "file",
		File:     writeSecrets(t, `{"neo4j_password": "from-file"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if got := m.Resolve(ctx, "explicit", SecretNeo4jPassword); got != "explicit" {
		t.Errorf("configured value should win, got %q", got)
	}
	if got := m.Resolve(ctx, "", SecretNeo4jPassword); got != "from-file" {
		t.Errorf("Resolve = %q, want from-file", got)
	}
	if got := m.Resolve(ctx, "", SecretKey("unset_secret_xyz")); got != "" {
		t.Errorf("missing secret resolved to %q", got)
	}
}

func TestManager_Cache(t *testing.T) {
	t.Setenv("COUPLER_NEO4J_PASSWORD", "cached")
	m, _ := NewManager(nil)
	ctx := context.Background()

	if val, _ := m.Get(ctx, SecretNeo4jPassword); val != "cached" {
		t.Fatalf("expected 'cached', got %s", val)
	}
	os.Setenv("COUPLER_NEO4J_PASSWORD", "changed")
	if val, _ := m.Get(ctx, SecretNeo4jPassword); val != "cached" {
		t.Fatalf("expected cached value, got %s", val)
	}

	m.ClearCache()
	if val, _ := m.Get(ctx, SecretNeo4jPassword); val != "changed" {
		t.Fatalf("expected 'changed' after clear, got %s", val)
	}
}

func TestManager_DisableCache(t *testing.T) {
	t.Setenv("COUPLER_NEO4J_PASSWORD", "first")
	m, _ := NewManager(nil)
	m.DisableCache()
	ctx := context.Background()

	m.Get(ctx, SecretNeo4jPassword)
	os.Setenv("COUPLER_NEO4J_PASSWORD", "second")
	if val, _ := m.Get(ctx, SecretNeo4jPassword); val != "second" {
		t.Fatalf("expected 'second' with cache disabled, got %s", val)
	}
}

func TestManager_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"unknown", &Config{Provider: "kms"}},
		{"vault without address", &Config{Provider: "vault"}},
		{"file without path", &Config{Provider: "file"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewManager(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
