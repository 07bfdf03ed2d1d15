package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitgenie/gitgenie/pkg/logger"
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// Initialize package-level logging configuration
func init() {
	logger.GetLogger().ConfigureFromEnv()
}

type Config struct {
	General GeneralConfig `yaml:"General"`
	Http    HttpConfig    `yaml:"Http"`
	Github  GithubConfig  `yaml:"Github"`
	Session SessionConfig `yaml:"Session"`
}

type GeneralConfig struct {
	StorageDir string `yaml:"storageDir"`
	LogLevel   string `yaml:"logLevel"`
}

type HttpConfig struct {
	Port   string `yaml:"port"`
	Domain string `yaml:"domain"`
	Https  bool   `yaml:"https"`
}

type GithubConfig struct {
	ClientID     string `yaml:"clientID"`
	ClientSecret string `yaml:"clientSecret"`
}

type SessionConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttlHours"`
}

const defaultConfigFile = "gitgenie.yml"

// Defaults
var (
	defaultPort     = "8080"
	defaultDomain   = "localhost"
	defaultLogLevel = "info"
	defaultTTLHours = 24
)

// LoadConfig reads the yaml config file if present, applies environment
// variable overrides and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		General: GeneralConfig{
			StorageDir: defaultStorageDir(),
			LogLevel:   defaultLogLevel,
		},
		Http: HttpConfig{
			Port:   defaultPort,
			Domain: defaultDomain,
		},
		Session: SessionConfig{
			TTLHours: defaultTTLHours,
		},
	}

	path := os.Getenv("GITGENIE_CONFIG")
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		logger.Debug("Loaded config file", "path", path)
	case os.IsNotExist(err):
		logger.Debug("No config file found, using defaults and environment", "path", path)
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	loadConfigFromEnv(cfg)

	if cfg.General.LogLevel != "" {
		logger.GetLogger().SetLogLevel(cfg.General.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFromEnv loads configuration from environment variables
func loadConfigFromEnv(cfg *Config) {
	if val := os.Getenv("GITGENIE_STORAGE_DIR"); val != "" {
		cfg.General.StorageDir = val
	}
	if val := os.Getenv("GITGENIE_LOG_LEVEL"); val != "" {
		cfg.General.LogLevel = val
	}
	if val := os.Getenv("GITGENIE_HTTP_PORT"); val != "" {
		cfg.Http.Port = val
	}
	if val := os.Getenv("GITGENIE_HTTP_DOMAIN"); val != "" {
		cfg.Http.Domain = val
	}
	if val := os.Getenv("GITGENIE_HTTP_HTTPS"); val == "true" || val == "1" {
		cfg.Http.Https = true
	}
	if val := os.Getenv("GITGENIE_GITHUB_CLIENT_ID"); val != "" {
		cfg.Github.ClientID = val
	}
	if val := os.Getenv("GITGENIE_GITHUB_CLIENT_SECRET"); val != "" {
		cfg.Github.ClientSecret = val
	}
	if val := os.Getenv("GITGENIE_SESSION_SECRET"); val != "" {
		cfg.Session.Secret = val
	}
}

// Validate checks that the startup-required values are present.
func (c *Config) Validate() error {
	if c.Github.ClientID == "" || c.Github.ClientSecret == "" {
		logger.Error("Missing GitHub OAuth configuration",
			"client_id_set", c.Github.ClientID != "",
			"client_secret_set", c.Github.ClientSecret != "")
		return fmt.Errorf("github clientID and clientSecret are required")
	}
	if c.Session.Secret == "" {
		logger.Error("Missing session secret configuration")
		return fmt.Errorf("session secret is required")
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = defaultTTLHours
	}
	return nil
}

// PublicURL returns the externally reachable base URL of the application.
func (c *Config) PublicURL() string {
	scheme := "http"
	if c.Http.Https {
		scheme = "https"
	}
	if c.Http.Port == "80" || c.Http.Port == "443" {
		return fmt.Sprintf("%s://%s", scheme, c.Http.Domain)
	}
	return fmt.Sprintf("%s://%s:%s", scheme, c.Http.Domain, c.Http.Port)
}

// OauthCallbackURL returns the redirect URL registered with GitHub.
func (c *Config) OauthCallbackURL() string {
	return c.PublicURL() + "/oauth/callback"
}

func defaultStorageDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gitgenie")
	}
	return "./data"
}
