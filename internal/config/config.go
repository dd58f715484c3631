package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration. Values come from an optional
// YAML file, then the environment (loaded from .env when present);
// environment variables win.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	PageContext PageContextConfig `yaml:"page_context"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Login       LoginConfig       `yaml:"login"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LLMConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// PageContextConfig gates the optional page snapshot fetch that enriches
// the analysis prompt. Disabled by default: the analyzer works on the
// URL string alone.
type PageContextConfig struct {
	Enabled      bool          `yaml:"enabled"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoginConfig configures the demo login panel. PasswordHash is a bcrypt
// hash; when empty the serve command hashes DefaultDemoPassword at startup.
type LoginConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultDemoPassword is used for the login demo when no hash is configured.
const DefaultDemoPassword = "guardview-demo"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads configuration from the optional YAML file at path, then
// applies environment overrides. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in defaults before file and env overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Model: "googleai/gemini-2.5-flash",
		},
		PageContext: PageContextConfig{
			FetchTimeout: 10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             3,
		},
		Login: LoginConfig{
			Username: "admin",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

func (c *Config) applyEnv() {
	c.Server.ListenAddr = getEnvOrDefault("LISTEN_ADDR", c.Server.ListenAddr)
	c.LLM.Model = getEnvOrDefault("LLM_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnvOrDefault("API_KEY", c.LLM.APIKey)
	c.Login.Username = getEnvOrDefault("DEMO_USERNAME", c.Login.Username)
	c.Login.PasswordHash = getEnvOrDefault("DEMO_PASSWORD_HASH", c.Login.PasswordHash)
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("PAGE_CONTEXT_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.PageContext.Enabled = enabled
		}
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("API_KEY environment variable is required but not set")
	}
	if c.LLM.Model == "" {
		return errors.New("llm model must not be empty")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return errors.New("rate limit requests_per_second must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		return errors.New("rate limit burst must be positive")
	}
	if c.PageContext.Enabled && c.PageContext.FetchTimeout <= 0 {
		return errors.New("page context fetch_timeout must be positive")
	}
	return nil
}
