package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TALLY_LLM_MODEL.
const EnvPrefix = "TALLY"

// Config is the fully resolved application configuration. It is built once
// at startup and passed to the components that need it.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	LLM        LLMConfig
	Logging    LoggingConfig
	Categories model.CategorySet
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr          string
	CORSOrigin    string
	AuthRateLimit int
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string // sqlite or postgres
	Path   string // sqlite file
	URL    string // postgres DSN
}

// AuthConfig configures token issuance.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// LLMConfig configures the text-generation provider used for classification.
type LLMConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	RateLimit int
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.auth_rate_limit", 10)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "$HOME/.local/share/tally/tally.db")
	v.SetDefault("auth.token_ttl", 30*time.Minute)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", 15*time.Second)
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("categories", model.DefaultCategories)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv wires TALLY_* environment variables into v. Nested keys use
// underscores: llm.api_key becomes TALLY_LLM_API_KEY.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already present in the environment.
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load resolves a Config from v. Defaults must already be registered.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:          v.GetString("server.addr"),
			CORSOrigin:    v.GetString("server.cors_origin"),
			AuthRateLimit: v.GetInt("server.auth_rate_limit"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   ExpandPath(v.GetString("database.path")),
			URL:    v.GetString("database.url"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		LLM: LLMConfig{
			Provider:  strings.ToLower(v.GetString("llm.provider")),
			APIKey:    v.GetString("llm.api_key"),
			Model:     v.GetString("llm.model"),
			BaseURL:   v.GetString("llm.base_url"),
			Timeout:   v.GetDuration("llm.timeout"),
			RateLimit: v.GetInt("llm.rate_limit"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	categories, err := model.NewCategorySet(categoryNames(v.GetStringSlice("categories")))
	if err != nil {
		return nil, fmt.Errorf("%w: categories: %w", common.ErrInvalidConfig, err)
	}
	cfg.Categories = categories

	// Provider-specific credential fallbacks.
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// categoryNames accepts both a YAML list and a single comma-separated value
// as supplied through TALLY_CATEGORIES.
func categoryNames(raw []string) []string {
	names := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, name := range strings.Split(entry, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// Validate checks structural consistency. Credentials are not required here:
// a missing LLM key surfaces on the first classification call, and the JWT
// secret is checked by commands that issue tokens.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", common.ErrMissingConfig)
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for postgres", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported database driver %q", common.ErrInvalidConfig, c.Database.Driver)
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("%w: llm.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("%w: llm.rate_limit cannot be negative", common.ErrInvalidConfig)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive", common.ErrInvalidConfig)
	}

	return nil
}

// RequireJWTSecret reports an error when no signing secret is configured.
func (c *Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("%w: auth.jwt_secret (or TALLY_AUTH_JWT_SECRET) must be set", common.ErrMissingConfig)
	}
	return nil
}
