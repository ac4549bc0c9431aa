package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/vadimtrunov/moviedeck/internal/core"
)

// Defaults applied by Validate when a field is left empty.
const (
	DefaultPath       = "configs/moviedeck.yaml"
	DefaultBaseURL    = "https://api.themoviedb.org/3"
	DefaultLanguage   = "en-US"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 40
	DefaultBurst      = 20
	DefaultLogLevel   = "info"
	DefaultServerPort = 8080
)

// Config represents the main application configuration
type Config struct {
	// Catalog provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Frontends
	Server   *ServerConfig   `yaml:"server,omitempty"`
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty"`
	Language  string        `yaml:"language,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	RateLimit float64       `yaml:"rate_limit,omitempty"` // requests per second, 0 uses the default
	Burst     int           `yaml:"burst,omitempty"`
}

// ServerConfig holds the HTTP/WebSocket frontend configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
}

// Load loads configuration from a YAML file with .env and environment variable overrides
func Load(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parse(data)
}

// LoadOptional behaves like Load but treats a missing file as an empty
// configuration, so the environment alone can supply the credential.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return parse(nil)
	}
	return Load(path)
}

func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	return nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// .env never overrides variables already set in the process.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	// TMDb
	if v := os.Getenv("MOVIEDECK_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	} else if v := os.Getenv("TMDB_API_KEY"); v != "" && c.TMDb.APIKey == "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("MOVIEDECK_TMDB_BASE_URL"); v != "" {
		c.TMDb.BaseURL = v
	}

	// Server
	if v := os.Getenv("MOVIEDECK_SERVER_PORT"); v != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		port, err := strconv.Atoi(v)
		if err != nil {
			port = -1 // rejected by Validate
		}
		c.Server.Port = port
	}

	// Telegram
	if v := os.Getenv("MOVIEDECK_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}

	// App
	if v := os.Getenv("MOVIEDECK_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
}

// setDefaults fills in zero values. Negative values are left for Validate to reject.
func (c *Config) setDefaults() {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = DefaultBaseURL
	}
	if c.TMDb.Language == "" {
		c.TMDb.Language = DefaultLanguage
	}
	if c.TMDb.Timeout == 0 {
		c.TMDb.Timeout = DefaultTimeout
	}
	if c.TMDb.RateLimit == 0 {
		c.TMDb.RateLimit = DefaultRateLimit
	}
	if c.TMDb.Burst == 0 {
		c.TMDb.Burst = DefaultBurst
	}
	if c.Server != nil && c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = DefaultLogLevel
	}
}

// Validate fills in defaults and checks the configuration.
// Failures are reported as *core.ConfigError.
func (c *Config) Validate() error {
	c.setDefaults()

	if strings.TrimSpace(c.TMDb.APIKey) == "" {
		return &core.ConfigError{Field: "tmdb.api_key", Reason: "is required"}
	}
	if err := validateURL(c.TMDb.BaseURL, "tmdb.base_url"); err != nil {
		return err
	}
	if c.TMDb.Language != DefaultLanguage {
		return &core.ConfigError{Field: "tmdb.language", Reason: "must be " + DefaultLanguage}
	}
	if c.TMDb.Timeout < 0 {
		return &core.ConfigError{Field: "tmdb.timeout", Reason: "must not be negative"}
	}
	if c.TMDb.RateLimit < 0 {
		return &core.ConfigError{Field: "tmdb.rate_limit", Reason: "must not be negative"}
	}
	if c.TMDb.Burst < 0 {
		return &core.ConfigError{Field: "tmdb.burst", Reason: "must not be negative"}
	}

	if c.Server != nil && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return &core.ConfigError{Field: "server.port", Reason: "must be between 1 and 65535"}
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return &core.ConfigError{Field: "telegram.bot_token", Reason: "is required"}
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &core.ConfigError{Field: "app.log_level", Reason: "must be one of debug, info, warn, error"}
	}

	return nil
}

// ServerPort returns the configured port, or the default when the server section is absent.
func (c *Config) ServerPort() int {
	if c.Server == nil || c.Server.Port == 0 {
		return DefaultServerPort
	}
	return c.Server.Port
}

func validateURL(rawURL, field string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &core.ConfigError{Field: field, Reason: "is not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &core.ConfigError{Field: field, Reason: "must use http or https"}
	}
	if u.Host == "" {
		return &core.ConfigError{Field: field, Reason: "is missing host"}
	}
	return nil
}
