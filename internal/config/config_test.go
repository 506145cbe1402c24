package config

import (
	"strings"
	"testing"
)

// memBackend is an in-memory ConfigBackend for tests.
type memBackend struct {
	data map[string]any
}

func (m *memBackend) GetString(key string) (string, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (m *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	i, _ := v.(int)
	return i, true, nil
}

func (m *memBackend) SetString(key, val string) error { m.data[key] = val; return nil }
func (m *memBackend) SetInt(key string, val int) error { m.data[key] = val; return nil }
func (m *memBackend) Delete(key string) error          { delete(m.data, key); return nil }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		if s.env != "" {
			t.Setenv(s.env, "")
		}
	}
}

// TestDefaults verifies default values survive an empty backend.
func TestDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURA_OPENROUTER_API_KEY", "test-key")

	cfg, err := loadWith(&memBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4800 {
		t.Errorf("Server.Port = %d, want 4800", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4801 {
		t.Errorf("Server.MCPPort = %d, want 4801", cfg.Server.MCPPort)
	}
	if cfg.Assistant.Name != "Aura" {
		t.Errorf("Assistant.Name = %q, want Aura", cfg.Assistant.Name)
	}
	if !cfg.Speech.Enabled {
		t.Error("Speech.Enabled should default to true")
	}
	if cfg.Listener.PollIntervalMS != 100 {
		t.Errorf("Listener.PollIntervalMS = %d, want 100", cfg.Listener.PollIntervalMS)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

// TestBackendValues verifies backend values override defaults.
func TestBackendValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURA_OPENROUTER_API_KEY", "test-key")

	b := &memBackend{data: map[string]any{
		"server.port":               5000,
		"llm.chat_model":            "custom/model",
		"assistant.name":            "Jarvis",
		"speech.enabled":            "false",
		"listener.poll_interval_ms": 250,
	}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.LLM.ChatModel != "custom/model" {
		t.Errorf("LLM.ChatModel = %q", cfg.LLM.ChatModel)
	}
	if cfg.Assistant.Name != "Jarvis" {
		t.Errorf("Assistant.Name = %q", cfg.Assistant.Name)
	}
	if cfg.Speech.Enabled {
		t.Error("Speech.Enabled not overridden to false")
	}
	if cfg.Listener.PollIntervalMS != 250 {
		t.Errorf("Listener.PollIntervalMS = %d, want 250", cfg.Listener.PollIntervalMS)
	}
}

// TestEnvOverride verifies environment variables beat backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURA_OPENROUTER_API_KEY", "env-key")
	t.Setenv("AURA_CHAT_MODEL", "env/model")

	b := &memBackend{data: map[string]any{
		"llm.chat_model": "backend/model",
	}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.ChatModel != "env/model" {
		t.Errorf("LLM.ChatModel = %q, want env/model", cfg.LLM.ChatModel)
	}
	if cfg.LLM.OpenRouterAPIKey != "env-key" {
		t.Errorf("OpenRouterAPIKey = %q, want env-key", cfg.LLM.OpenRouterAPIKey)
	}
}

// TestMissingRequiredField verifies a clear error when the API key is absent.
func TestMissingRequiredField(t *testing.T) {
	clearEnv(t)

	_, err := loadWith(&memBackend{data: map[string]any{}})
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q", err)
	}
}

// TestSecretsNeverReadFromBackend verifies secret keys are only taken from
// the environment, not the config file.
func TestSecretsNeverReadFromBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURA_OPENROUTER_API_KEY", "env-key")

	b := &memBackend{data: map[string]any{
		"llm.openrouter_api_key": "file-key",
	}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.OpenRouterAPIKey != "env-key" {
		t.Errorf("OpenRouterAPIKey = %q, secrets must come from env", cfg.LLM.OpenRouterAPIKey)
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.LLM.OpenRouterAPIKey = "super-secret"

	for _, info := range ShowAll(cfg) {
		if info.Value == "super-secret" {
			t.Errorf("secret leaked via ShowAll: %+v", info)
		}
	}
}

func TestValidKeysExcludeSecrets(t *testing.T) {
	for _, key := range ValidKeys() {
		if strings.Contains(key, "api_key") {
			t.Errorf("secret key %q listed as settable", key)
		}
	}
}
