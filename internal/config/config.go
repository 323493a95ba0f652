package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	JWT      JWTConfig      `yaml:"jwt"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/openbanking.yaml"
	}

	// Ensure absolute path
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations missing mandatory aggregator settings.
// A missing credential is a fatal startup error, never a runtime-recoverable one.
func (c *Config) Validate() error {
	agg := c.Service.Aggregator
	required := []struct {
		name  string
		value string
	}{
		{"service.aggregator.base_url", agg.BaseURL},
		{"service.aggregator.partner_id", agg.PartnerID},
		{"service.aggregator.partner_secret", agg.PartnerSecret},
		{"service.aggregator.app_key", agg.AppKey},
		{"service.aggregator.redirect_uri", agg.RedirectURI},
		{"service.aggregator.webhook_url", agg.WebhookURL},
		{"service.aggregator.webhook_public_key", agg.WebhookPublicKey},
	}

	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("missing required config: %s", field.name)
		}
	}

	return nil
}
