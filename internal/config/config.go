package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// MaxPerPage is the largest page size the hh.ru API accepts
	MaxPerPage = 100
	// MaxPages is the hh.ru depth limit: per_page * pages never exceeds 2000
	MaxPages = 20
)

// DefaultEmployers are searched when the config file names none
var DefaultEmployers = []string{
	"Сбер для экспертов",
	"Яндекс",
	"VK",
	"Ozon",
	"Ланит",
	"Лаборатория Касперского",
	"МедРокет",
	"X5 Tech",
	"Тензор",
	"Альфа-Банк",
}

// Config holds the application configuration
type Config struct {
	API      APIConfig      `yaml:"api" json:"api"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Mirror   MirrorConfig   `yaml:"mirror" json:"mirror"`
	Loader   LoaderConfig   `yaml:"loader" json:"loader"`
}

// APIConfig holds the hh.ru client configuration
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	PerPage        int           `yaml:"per_page" json:"per_page"`
	MaxPages       int           `yaml:"max_pages" json:"max_pages"`
	RateLimit      int           `yaml:"rate_limit" json:"rate_limit"` // requests per minute, 0 = unlimited
	Employers      []string      `yaml:"employers" json:"employers"`
}

// DatabaseConfig holds PostgreSQL connection parameters
type DatabaseConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Name     string `yaml:"name" json:"name"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MirrorConfig holds the optional Supabase mirror configuration
type MirrorConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	SupabaseURL string `yaml:"supabase_url" json:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key" json:"supabase_key"`
}

// LoaderConfig holds the background loader configuration
type LoaderConfig struct {
	// RefreshInterval of zero loads once and exits
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://api.hh.ru",
			UserAgent:      "db-vacancy-manager",
			RequestTimeout: 10 * time.Second,
			PerPage:        MaxPerPage,
			MaxPages:       MaxPages,
			RateLimit:      0,
			Employers:      append([]string(nil), DefaultEmployers...),
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "hh_vacancies",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "logs/main.log",
		},
		Mirror: MirrorConfig{
			Enabled: false,
		},
		Loader: LoaderConfig{
			RefreshInterval: 0,
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment overrides.
// A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overrides fields from environment variables, typically loaded from .env
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("DATABASE_HOST", &c.Database.Host)
	setString("DATABASE_USER", &c.Database.User)
	setString("DATABASE_PASSWORD", &c.Database.Password)
	setString("DATABASE_NAME", &c.Database.Name)
	setString("DATABASE_SSLMODE", &c.Database.SSLMode)
	setString("SUPABASE_URL", &c.Mirror.SupabaseURL)
	setString("SUPABASE_KEY", &c.Mirror.SupabaseKey)
	setString("LOG_LEVEL", &c.Logging.Level)

	if v := os.Getenv("DATABASE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_PORT %q: %w", v, err)
		}
		c.Database.Port = port
	}
	return nil
}

// SaveConfig writes the configuration as YAML
func (c *Config) SaveConfig(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base URL is required")
	}

	if c.API.PerPage < 1 || c.API.PerPage > MaxPerPage {
		return fmt.Errorf("per_page must be between 1 and %d", MaxPerPage)
	}

	if c.API.MaxPages < 1 || c.API.MaxPages > MaxPages {
		return fmt.Errorf("max_pages must be between 1 and %d", MaxPages)
	}

	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}

	hasEmployer := false
	for _, name := range c.API.Employers {
		if strings.TrimSpace(name) != "" {
			hasEmployer = true
			break
		}
	}
	if !hasEmployer {
		return fmt.Errorf("at least one employer name is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
		return fmt.Errorf("database host, user and name are required")
	}

	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database port %d is out of range", c.Database.Port)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if c.Loader.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval cannot be negative")
	}

	if c.Mirror.Enabled {
		if c.Mirror.SupabaseURL == "" {
			return fmt.Errorf("supabase URL is required when the mirror is enabled")
		}
		if c.Mirror.SupabaseKey == "" {
			return fmt.Errorf("supabase key is required when the mirror is enabled")
		}
	}

	return nil
}

// DSN returns the PostgreSQL connection URL
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}
