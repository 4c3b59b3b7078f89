// Package config loads application configuration from environment variables and an optional
// YAML file. All variables use the QUIZ_ prefix, e.g. QUIZ_DATABASE_URL or QUIZ_AI_GOOGLE_API_KEY.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "QUIZ"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	AI       AIConfig       `mapstructure:"ai"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// CacheConfig holds Redis connection settings. An empty URL selects the in-memory cache.
type CacheConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	Google       ProviderConfig `mapstructure:"google"`
	OpenAI       ProviderConfig `mapstructure:"openai"`
	DeepSeek     ProviderConfig `mapstructure:"deepseek"`
	OpenRouter   ProviderConfig `mapstructure:"openrouter"`
	Ollama       OllamaConfig   `mapstructure:"ollama"`
	Model        string         `mapstructure:"model"`
	Timeout      time.Duration  `mapstructure:"timeout"`
	CacheTTL     time.Duration  `mapstructure:"cache_ttl"`
	DailyTokens  int64          `mapstructure:"daily_tokens"`
	MaxQuestions int            `mapstructure:"max_questions"`
}

// ProviderConfig holds a hosted provider's API key.
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SeedConfig points at the YAML dataset applied at startup.
type SeedConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			CORSOrigins:    []string{"http://localhost:3000"},
			RequestTimeout: 90 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns: 25,
			MinConns: 2,
		},
		Cache: CacheConfig{
			Prefix: "pai-quiz",
		},
		AI: AIConfig{
			Ollama:       OllamaConfig{URL: "http://localhost:11434"},
			Timeout:      60 * time.Second,
			CacheTTL:     24 * time.Hour,
			DailyTokens:  500_000,
			MaxQuestions: 20,
		},
		Auth: AuthConfig{
			JWTSecret:      "change-me-in-production",
			AccessTokenTTL: 12 * time.Hour,
			BcryptCost:     10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from QUIZ_ environment variables, layered over the YAML file named by
// QUIZ_CONFIG_FILE when set, layered over Default().
func Load() (*Config, error) {
	v := viper.New()

	defaults := make(map[string]any)
	if err := mapstructure.Decode(Default(), &defaults); err != nil {
		return nil, fmt.Errorf("mapstructure: %w", err)
	}
	setDefaults(v, "", defaults)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv(EnvPrefix + "_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config from file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	return &cfg, nil
}

// setDefaults registers every leaf of m so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, val)
	}
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("QUIZ_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("QUIZ_AUTH_JWT_SECRET is required")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("QUIZ_AUTH_ACCESS_TOKEN_TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("QUIZ_AUTH_BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("QUIZ_AI_TIMEOUT must be positive")
	}
	if c.AI.MaxQuestions < 1 {
		return fmt.Errorf("QUIZ_AI_MAX_QUESTIONS must be at least 1")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("QUIZ_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Google.APIKey != "" ||
		c.AI.OpenAI.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}
