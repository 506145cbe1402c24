package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Search    SearchConfig
	Image     ImageConfig
	Storage   StorageConfig
	Assistant AssistantConfig
	Speech    SpeechConfig
	Listener  ListenerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type LLMConfig struct {
	OpenRouterAPIKey string
	ChatModel        string
	ClassifierModel  string
}

type SearchConfig struct {
	SerpAPIKey string
}

type ImageConfig struct {
	HFAPIKey string
}

type StorageConfig struct {
	DataDir string
}

type AssistantConfig struct {
	Name     string
	UserName string
}

type SpeechConfig struct {
	Enabled bool
	Command string
}

type ListenerConfig struct {
	TranscribeCommand string
	PollIntervalMS    int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4800,
			MCPPort: 4801,
		},
		LLM: LLMConfig{
			ChatModel:       "mistralai/mixtral-8x7b-instruct",
			ClassifierModel: "cohere/command-r",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Assistant: AssistantConfig{
			Name:     "Aura",
			UserName: "there",
		},
		Speech: SpeechConfig{
			Enabled: true,
			Command: "espeak-ng",
		},
		Listener: ListenerConfig{
			TranscribeCommand: "",
			PollIntervalMS:    100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration in ascending precedence: built-in defaults, a
// .env file in the working directory, the JSON file backend at
// $XDG_CONFIG_HOME/aura/config.json, then AURA_* environment variables.
func Load() (Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.LLM.OpenRouterAPIKey == "" {
		return Config{}, fmt.Errorf("missing required config: OpenRouter API key. " +
			"Set it via environment variable AURA_OPENROUTER_API_KEY or a .env file")
	}

	return cfg, nil
}
