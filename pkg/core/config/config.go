// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFailureMessage is the uniform text returned to end users when a
// turn cannot be completed, regardless of the internal cause.
const DefaultFailureMessage = "We are facing an issue at this moment, please try after sometime."

// Config represents the main configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
	Store     StoreConfig     `yaml:"store"`
	Amadeus   AmadeusConfig   `yaml:"amadeus"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// AssistantConfig contains the remote execution engine configuration
type AssistantConfig struct {
	APIKey         string        `yaml:"api_key"`
	AssistantID    string        `yaml:"assistant_id"`
	BaseURL        string        `yaml:"base_url"`        // optional, for compatible backends
	PollInterval   time.Duration `yaml:"poll_interval"`   // run status poll cadence
	MaxWait        time.Duration `yaml:"max_wait"`        // budget for one turn's polling
	FailureMessage string        `yaml:"failure_message"` // user-facing text on any failure
}

// StoreConfig selects the conversation store backend
type StoreConfig struct {
	Type string `yaml:"type"` // "memory" (default), "sqlite" or "postgres"
	Path string `yaml:"path"` // sqlite database file
	DSN  string `yaml:"dsn"`  // postgres connection string
}

// AmadeusConfig contains the flight search API credentials
type AmadeusConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	BaseURL      string `yaml:"base_url"` // e.g. "https://test.api.amadeus.com"
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	// A .env file beside the binary is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns default configuration
func Default() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 60 * time.Second,
		},
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := os.Getenv("ASSISTANT_ID"); v != "" {
		cfg.Assistant.AssistantID = v
	}
	if v := os.Getenv("OPENAI_API_ENDPOINT"); v != "" {
		cfg.Assistant.BaseURL = v
	}
	if v := os.Getenv("AMADEUS_CLIENT_ID"); v != "" {
		cfg.Amadeus.ClientID = v
	}
	if v := os.Getenv("AMADEUS_CLIENT_SECRET"); v != "" {
		cfg.Amadeus.ClientSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
		cfg.Store.Type = "postgres"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 60 * time.Second
	}
	if cfg.Assistant.PollInterval == 0 {
		cfg.Assistant.PollInterval = time.Second
	}
	if cfg.Assistant.MaxWait == 0 {
		cfg.Assistant.MaxWait = 2 * time.Minute
	}
	if cfg.Assistant.FailureMessage == "" {
		cfg.Assistant.FailureMessage = DefaultFailureMessage
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "remmie.db"
	}
	if cfg.Amadeus.BaseURL == "" {
		cfg.Amadeus.BaseURL = "https://test.api.amadeus.com"
	}
}
