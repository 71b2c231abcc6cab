package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`

	// Slack
	SlackBotToken string `envconfig:"AGENT_SLACK_BOT_TOKEN"`
	SlackAppToken string `envconfig:"AGENT_SLACK_APP_TOKEN"` // xapp- token for Socket Mode

	// Rate limiting (per Slack user)
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"20"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// GitHub — either a personal access token (dev) or a GitHub App installation
	GitHubOwner          string `envconfig:"GITHUB_OWNER"`
	GitHubRepo           string `envconfig:"GITHUB_REPO"`
	GitHubToken          string `envconfig:"GITHUB_TOKEN"`
	GitHubAppID          int64  `envconfig:"GITHUB_APP_ID"`
	GitHubInstallationID int64  `envconfig:"GITHUB_INSTALLATION_ID"`
	GitHubPrivateKeyPath string `envconfig:"GITHUB_PRIVATE_KEY_PATH"`

	// Model provider
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	ModelID         string `envconfig:"MODEL_ID"`
	ModelMaxTokens  int    `envconfig:"MODEL_MAX_TOKENS" default:"4096"`

	// Persona roster (optional YAML file; built-in team used when empty)
	PersonasFile string `envconfig:"PERSONAS_FILE"`

	// Routing: "lenient" consults the mediator when a message carries no
	// resolvable mention; "strict" ignores such messages.
	RoutingMode string `envconfig:"ROUTING_MODE" default:"lenient"`

	// Management API
	MgmtListenAddr string `envconfig:"MGMT_LISTEN_ADDR" default:":8090"`
	MgmtAPIKey     string `envconfig:"MGMT_API_KEY"`
}

// SlackEnabled returns true if Slack tokens are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

// GitHubEnabled returns true if GitHub credentials are configured.
func (c *Config) GitHubEnabled() bool {
	if c.GitHubOwner == "" || c.GitHubRepo == "" {
		return false
	}
	return c.GitHubToken != "" || c.GitHubAppEnabled()
}

// GitHubAppEnabled returns true if GitHub App credentials are configured.
func (c *Config) GitHubAppEnabled() bool {
	return c.GitHubAppID > 0 && c.GitHubInstallationID > 0 && c.GitHubPrivateKeyPath != ""
}

// ModelEnabled returns true if a model provider key is configured.
func (c *Config) ModelEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// LenientRouting returns true when unmentioned messages should fall back to
// mediator routing.
func (c *Config) LenientRouting() bool {
	return c.RoutingMode != "strict"
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	if c.RoutingMode != "strict" && c.RoutingMode != "lenient" {
		return fmt.Errorf("invalid ROUTING_MODE %q, expected strict or lenient", c.RoutingMode)
	}
	if c.GitHubToken != "" && c.GitHubAppEnabled() {
		return fmt.Errorf("GITHUB_TOKEN and GitHub App credentials are mutually exclusive")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
