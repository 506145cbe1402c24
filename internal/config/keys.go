package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "AURA_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "AURA_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "llm.openrouter_api_key", typ: kString, env: "AURA_OPENROUTER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.LLM.OpenRouterAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.OpenRouterAPIKey },
	},
	{
		key: "llm.chat_model", typ: kString, env: "AURA_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.LLM.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.ChatModel },
	},
	{
		key: "llm.classifier_model", typ: kString, env: "AURA_CLASSIFIER_MODEL",
		apply:   func(cfg *Config, v any) { cfg.LLM.ClassifierModel = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.ClassifierModel },
	},
	{
		key: "search.serpapi_key", typ: kString, env: "AURA_SERPAPI_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Search.SerpAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Search.SerpAPIKey },
	},
	{
		key: "image.hf_api_key", typ: kString, env: "AURA_HF_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Image.HFAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Image.HFAPIKey },
	},
	{
		key: "storage.data_dir", typ: kString, env: "AURA_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "assistant.name", typ: kString, env: "AURA_ASSISTANT_NAME",
		apply:   func(cfg *Config, v any) { cfg.Assistant.Name = v.(string) },
		extract: func(cfg Config) any { return cfg.Assistant.Name },
	},
	{
		key: "assistant.user_name", typ: kString, env: "AURA_USER_NAME",
		apply:   func(cfg *Config, v any) { cfg.Assistant.UserName = v.(string) },
		extract: func(cfg Config) any { return cfg.Assistant.UserName },
	},
	{
		key: "speech.enabled", typ: kBool, env: "AURA_SPEECH_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Speech.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Speech.Enabled },
	},
	{
		key: "speech.command", typ: kString, env: "AURA_SPEECH_COMMAND",
		apply:   func(cfg *Config, v any) { cfg.Speech.Command = v.(string) },
		extract: func(cfg Config) any { return cfg.Speech.Command },
	},
	{
		key: "listener.transcribe_command", typ: kString, env: "AURA_TRANSCRIBE_COMMAND",
		apply:   func(cfg *Config, v any) { cfg.Listener.TranscribeCommand = v.(string) },
		extract: func(cfg Config) any { return cfg.Listener.TranscribeCommand },
	},
	{
		key: "listener.poll_interval_ms", typ: kInt, env: "AURA_LISTENER_POLL_INTERVAL_MS",
		apply:   func(cfg *Config, v any) { cfg.Listener.PollIntervalMS = v.(int) },
		extract: func(cfg Config) any { return cfg.Listener.PollIntervalMS },
	},
	{
		key: "log.level", typ: kString, env: "AURA_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
