// Package config loads the service configuration with precedence
// defaults, then the YAML file, then environment variables. Secrets are
// env-only and never read from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Auth        AuthConfig     `yaml:"auth"`
	AI          AIConfig       `yaml:"ai"`
	Worker      WorkerConfig   `yaml:"worker"`
	Log         LogConfig      `yaml:"log"`
	Environment string         `yaml:"environment"`
	Seed        SeedConfig     `yaml:"seed"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects and locates the document store backend.
// Driver is "file" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// AuthConfig contains token settings. The signing secret is env-only.
type AuthConfig struct {
	JWTSecret       string   `yaml:"-"` // env-only, never in YAML
	TokenExpiration Duration `yaml:"token_expiration"`
}

// AIConfig selects the generative provider. Keys are env-only; whichever
// key is present decides the provider, Gemini first.
type AIConfig struct {
	GeminiAPIKey string `yaml:"-"` // env-only, never in YAML
	GeminiModel  string `yaml:"gemini_model"`
	OpenAIAPIKey string `yaml:"-"` // env-only, never in YAML
	OpenAIModel  string `yaml:"openai_model"`
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	BackupEnabled  bool     `yaml:"backup_enabled"`
	BackupDir      string   `yaml:"backup_dir"`
	BackupInterval Duration `yaml:"backup_interval"`
	BackupKeep     int      `yaml:"backup_keep"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SeedAccount describes one bootstrap login. Passwords are env-only.
type SeedAccount struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Password string `yaml:"-"` // env-only, never in YAML
}

// SeedConfig lists the accounts created on first boot.
type SeedConfig struct {
	Admin   SeedAccount `yaml:"admin"`
	Analyst SeedAccount `yaml:"analyst"`
	Viewer  SeedAccount `yaml:"viewer"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("FISCALIS_CONFIG_PATH", "config/fiscalis.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Driver: "file",
			Path:   "data/fiscalis.json",
		},
		Auth: AuthConfig{
			TokenExpiration: Duration(8 * time.Hour),
		},
		AI: AIConfig{
			GeminiModel: "gemini-2.0-flash",
			OpenAIModel: "gpt-4o-mini",
		},
		Worker: WorkerConfig{
			BackupEnabled:  true,
			BackupDir:      "data/backups",
			BackupInterval: Duration(1 * time.Hour),
			BackupKeep:     24,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Environment: "development",
		Seed: SeedConfig{
			Admin:   SeedAccount{Email: "admin@fiscal.local", Name: "Administrador", Role: "admin"},
			Analyst: SeedAccount{Email: "analista@fiscal.local", Name: "Analista Fiscal", Role: "analyst"},
			Viewer:  SeedAccount{Email: "leitor@fiscal.local", Name: "Leitor", Role: "viewer"},
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("FISCALIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FISCALIS_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("FISCALIS_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("FISCALIS_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("FISCALIS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("FISCALIS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Auth
	if v := os.Getenv("FISCALIS_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("FISCALIS_TOKEN_EXPIRATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenExpiration = Duration(d)
		}
	}

	// AI providers (key names follow each vendor's convention)
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.GeminiAPIKey = v
	}
	if v := os.Getenv("FISCALIS_GEMINI_MODEL"); v != "" {
		cfg.AI.GeminiModel = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.OpenAIAPIKey = v
	}
	if v := os.Getenv("FISCALIS_OPENAI_MODEL"); v != "" {
		cfg.AI.OpenAIModel = v
	}

	// Worker
	if v := os.Getenv("FISCALIS_BACKUP_ENABLED"); v != "" {
		cfg.Worker.BackupEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("FISCALIS_BACKUP_DIR"); v != "" {
		cfg.Worker.BackupDir = v
	}
	if v := os.Getenv("FISCALIS_BACKUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Worker.BackupInterval = Duration(d)
		}
	}
	if v := os.Getenv("FISCALIS_BACKUP_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.BackupKeep = n
		}
	}

	// Log
	if v := os.Getenv("FISCALIS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FISCALIS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv("FISCALIS_ENV"); v != "" {
		cfg.Environment = v
	}

	// Seed passwords
	if v := os.Getenv("FISCALIS_SEED_ADMIN_PASSWORD"); v != "" {
		cfg.Seed.Admin.Password = v
	}
	if v := os.Getenv("FISCALIS_SEED_ANALYST_PASSWORD"); v != "" {
		cfg.Seed.Analyst.Password = v
	}
	if v := os.Getenv("FISCALIS_SEED_VIEWER_PASSWORD"); v != "" {
		cfg.Seed.Viewer.Password = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (FISCALIS_DEV_MODE=true), a built-in insecure secret is
// substituted so the server can start without any environment.
func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if os.Getenv("FISCALIS_DEV_MODE") == "true" {
			c.Auth.JWTSecret = "dev-only-insecure-secret-do-not-deploy"
		} else {
			return errors.New("FISCALIS_JWT_SECRET is required")
		}
	}
	if c.Database.Driver != "file" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}

// SeedAccounts returns the seed entries that have a password configured.
func (c *Config) SeedAccounts() []SeedAccount {
	var out []SeedAccount
	for _, account := range []SeedAccount{c.Seed.Admin, c.Seed.Analyst, c.Seed.Viewer} {
		if account.Password != "" {
			out = append(out, account)
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
