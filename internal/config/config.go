package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings. The three credentials the
// process cannot run without are validated in Load so startup fails fast.
type Config struct {
	Addr string `envconfig:"ADDR" default:":8080"`

	// LLM providers
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	RelayBaseURL string `envconfig:"RELAY_BASE_URL"`
	RelayAPIKey  string `envconfig:"RELAY_API_KEY"`

	// Browser provisioning
	BrowserlessAPIKey  string `envconfig:"BROWSERLESS_API_KEY"`
	BrowserlessBaseURL string `envconfig:"BROWSERLESS_BASE_URL" default:"https://production-sfo.browserless.io"`
	ProvisionBackend   string `envconfig:"PROVISION_BACKEND" default:"cloud"` // "cloud" or "local"
	SessionTTL         int    `envconfig:"SESSION_TTL" default:"300"`         // seconds
	Stealth            bool   `envconfig:"STEALTH" default:"true"`

	// Persistence
	DatabasePath string `envconfig:"DATABASE_PATH"`

	// Human-facing viewer
	VNCURL string `envconfig:"VNC_URL" default:"http://localhost:6080/vnc.html"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("DATABASE_PATH is required")
	}
	if cfg.ProvisionBackend == "cloud" && cfg.BrowserlessAPIKey == "" {
		return nil, fmt.Errorf("BROWSERLESS_API_KEY is required for the cloud backend")
	}
	if cfg.ProvisionBackend != "cloud" && cfg.ProvisionBackend != "local" {
		return nil, fmt.Errorf("unknown provision backend: %s", cfg.ProvisionBackend)
	}

	return &cfg, nil
}
