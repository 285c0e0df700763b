// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090
assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"
  poll_interval: 500ms
  max_wait: 30s
store:
  type: sqlite
  path: /tmp/test.db
amadeus:
  client_id: "am-id"
  client_secret: "am-secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Assistant.AssistantID != "asst_123" {
		t.Errorf("unexpected assistant id: %q", cfg.Assistant.AssistantID)
	}
	if cfg.Assistant.PollInterval != 500*time.Millisecond {
		t.Errorf("unexpected poll interval: %v", cfg.Assistant.PollInterval)
	}
	if cfg.Assistant.MaxWait != 30*time.Second {
		t.Errorf("unexpected max wait: %v", cfg.Assistant.MaxWait)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != "/tmp/test.db" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Amadeus.ClientID != "am-id" {
		t.Errorf("unexpected amadeus config: %+v", cfg.Amadeus)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
assistant:
  api_key: "sk-test"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Assistant.PollInterval != time.Second {
		t.Errorf("expected default poll interval 1s, got %v", cfg.Assistant.PollInterval)
	}
	if cfg.Assistant.MaxWait != 2*time.Minute {
		t.Errorf("expected default max wait 2m, got %v", cfg.Assistant.MaxWait)
	}
	if cfg.Assistant.FailureMessage != DefaultFailureMessage {
		t.Errorf("expected default failure message, got %q", cfg.Assistant.FailureMessage)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("expected default store type memory, got %q", cfg.Store.Type)
	}
	if cfg.Amadeus.BaseURL != "https://test.api.amadeus.com" {
		t.Errorf("expected default amadeus base URL, got %q", cfg.Amadeus.BaseURL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ASSISTANT_ID", "asst_env")
	t.Setenv("DATABASE_URL", "postgres://localhost/remmie")

	path := writeConfig(t, `
assistant:
  api_key: "sk-file"
  assistant_id: "asst_file"
store:
  type: sqlite
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assistant.APIKey != "sk-env" {
		t.Errorf("expected env API key to win, got %q", cfg.Assistant.APIKey)
	}
	if cfg.Assistant.AssistantID != "asst_env" {
		t.Errorf("expected env assistant id to win, got %q", cfg.Assistant.AssistantID)
	}
	if cfg.Store.Type != "postgres" || cfg.Store.DSN != "postgres://localhost/remmie" {
		t.Errorf("expected DATABASE_URL to select postgres, got %+v", cfg.Store)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Assistant.FailureMessage != DefaultFailureMessage {
		t.Errorf("expected default failure message, got %q", cfg.Assistant.FailureMessage)
	}
}
