package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fiscalis.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FISCALIS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("FISCALIS_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "file" {
		t.Errorf("Driver = %s, want file", cfg.Database.Driver)
	}
	if time.Duration(cfg.Auth.TokenExpiration) != 8*time.Hour {
		t.Errorf("TokenExpiration = %v, want 8h", time.Duration(cfg.Auth.TokenExpiration))
	}
	if cfg.Seed.Admin.Email != "admin@fiscal.local" {
		t.Errorf("admin seed email = %s", cfg.Seed.Admin.Email)
	}
}

func TestLoadFromFile_YAMLOverridesDefaults(t *testing.T) {
	t.Setenv("FISCALIS_JWT_SECRET", "test-secret")
	path := writeConfig(t, `
server:
  port: 9090
  shutdown_timeout: 5s
database:
  driver: sqlite
  path: /tmp/fiscalis.db
log:
  level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if time.Duration(cfg.Server.ShutdownTimeout) != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", time.Duration(cfg.Server.ShutdownTimeout))
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("FISCALIS_CONFIG_PATH", path)
	t.Setenv("FISCALIS_JWT_SECRET", "test-secret")
	t.Setenv("FISCALIS_PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.AI.GeminiAPIKey != "gem-key" {
		t.Errorf("GeminiAPIKey = %s", cfg.AI.GeminiAPIKey)
	}
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("FISCALIS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("FISCALIS_JWT_SECRET", "")
	t.Setenv("FISCALIS_DEV_MODE", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "FISCALIS_JWT_SECRET") {
		t.Errorf("Load() error = %v, want missing secret failure", err)
	}
}

func TestLoad_DevModeSubstitutesSecret(t *testing.T) {
	t.Setenv("FISCALIS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("FISCALIS_JWT_SECRET", "")
	t.Setenv("FISCALIS_DEV_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Error("dev mode left the secret empty")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: postgres\n")
	t.Setenv("FISCALIS_CONFIG_PATH", path)
	t.Setenv("FISCALIS_JWT_SECRET", "test-secret")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "driver") {
		t.Errorf("Load() error = %v, want unknown driver failure", err)
	}
}

func TestSeedAccounts_OnlyWithPasswords(t *testing.T) {
	t.Setenv("FISCALIS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("FISCALIS_JWT_SECRET", "test-secret")
	t.Setenv("FISCALIS_SEED_ADMIN_PASSWORD", "admin12345")
	t.Setenv("FISCALIS_SEED_ANALYST_PASSWORD", "")
	t.Setenv("FISCALIS_SEED_VIEWER_PASSWORD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	accounts := cfg.SeedAccounts()
	if len(accounts) != 1 || accounts[0].Role != "admin" {
		t.Errorf("SeedAccounts() = %+v, want only admin", accounts)
	}
}
