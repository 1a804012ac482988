// Package config handles NutriOffShore configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/nutrioffshore/config.yaml,
// /etc/nutrioffshore/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "nutrioffshore", "config.yaml"))
	}

	paths = append(paths, "/etc/nutrioffshore/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all NutriOffShore configuration.
type Config struct {
	Listen     ListenConfig     `yaml:"listen"`
	Database   DatabaseConfig   `yaml:"database"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Agent      AgentConfig      `yaml:"agent"`
	Auth       AuthConfig       `yaml:"auth"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"` // "json" or "text"
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// DatabaseConfig defines the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OpenRouterConfig defines the OpenRouter API settings.
// OpenRouter speaks the OpenAI chat-completions wire format.
type OpenRouterConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // Per-call deadline (default 60)
}

// AgentConfig tunes the orchestration loop.
type AgentConfig struct {
	// MaxToolRounds caps the number of tool-calling rounds per turn.
	MaxToolRounds int `yaml:"max_tool_rounds"`
	// HistoryTokenBudget is the approximate token budget for trimmed history.
	HistoryTokenBudget int `yaml:"history_token_budget"`
	// MaxTokens is the completion token cap for blocking calls.
	MaxTokens int `yaml:"max_tokens"`
	// StreamMaxTokens is the completion token cap for streaming calls.
	StreamMaxTokens int `yaml:"stream_max_tokens"`
}

// AuthConfig defines authentication settings.
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	JWTSecret          string `yaml:"jwt_secret"`
	TokenExpiryMinutes int    `yaml:"token_expiry_minutes"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen:   ListenConfig{Port: 8080},
		Database: DatabaseConfig{Path: "nutrioffshore.db"},
		OpenRouter: OpenRouterConfig{
			Model:          "google/gemma-3-27b-it:free",
			BaseURL:        "https://openrouter.ai/api/v1",
			TimeoutSeconds: 60,
		},
		Agent: AgentConfig{
			MaxToolRounds:      8,
			HistoryTokenBudget: 12000,
			MaxTokens:          8192,
			StreamMaxTokens:    4096,
		},
		Auth: AuthConfig{
			TokenExpiryMinutes: 480,
		},
		LogFormat: "json",
	}
}

// insecureSecrets are placeholder values that must not reach production.
var insecureSecrets = map[string]bool{
	"":                 true,
	"changeme":         true,
	"secret":           true,
	"your-secret-here": true,
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter.api_key is required")
	}
	if c.Auth.Enabled && insecureSecrets[c.Auth.JWTSecret] {
		return fmt.Errorf("auth.jwt_secret must be set to a strong value when auth is enabled")
	}
	if c.Agent.MaxToolRounds <= 0 {
		return fmt.Errorf("agent.max_tool_rounds must be positive")
	}
	if c.Agent.HistoryTokenBudget <= 0 {
		return fmt.Errorf("agent.history_token_budget must be positive")
	}
	return nil
}
