package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all companion configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Recall   RecallConfig   `yaml:"recall"`
	Logging  LoggingConfig  `yaml:"logging"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Bind           string   `yaml:"bind"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // empty resolves to store.DefaultDBPath()
}

type LLMConfig struct {
	Provider     string  `yaml:"provider"` // "openai", "anthropic", "ollama"
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	OpenAIKey    string  `yaml:"openai_key"`
	OpenAIURL    string  `yaml:"openai_url"` // optional OpenAI-compatible base URL
	AnthropicKey string  `yaml:"anthropic_key"`
	OllamaURL    string  `yaml:"ollama_url"`
	OllamaModel  string  `yaml:"ollama_model"`
}

// RecallConfig covers both sides of the recall service: URL is where the
// companion sends /remember and /recall, Bind and Port are where
// `companion recall` listens.
type RecallConfig struct {
	URL            string        `yaml:"url"`
	Timeout        time.Duration `yaml:"timeout"`
	TopK           int           `yaml:"top_k"`
	Bind           string        `yaml:"bind"`
	Port           int           `yaml:"port"`
	EmbeddingModel string        `yaml:"embedding_model"`
	OllamaURL      string        `yaml:"ollama_url"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type WorkerConfig struct {
	Count   int           `yaml:"count"`
	Queue   int           `yaml:"queue"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:           "127.0.0.1",
			Port:           37778,
			AllowedOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1024,
			OllamaURL:   "http://localhost:11434",
			OllamaModel: "llama3.2",
		},
		Recall: RecallConfig{
			URL:            "http://127.0.0.1:8000",
			Timeout:        5 * time.Second,
			TopK:           5,
			Bind:           "127.0.0.1",
			Port:           8000,
			EmbeddingModel: "nomic-embed-text",
			OllamaURL:      "http://localhost:11434",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Worker: WorkerConfig{
			Count:   2,
			Queue:   64,
			Timeout: 2 * time.Minute,
		},
	}
}

// DefaultPath returns the default config file path: ~/.companion/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".companion", "config.yaml"), nil
}

// Load builds a Config from defaults, the YAML file at path (skipped if it
// does not exist), a .env file in the working directory, and environment
// overrides, in that order of increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.AnthropicKey = key
	}
	if v := os.Getenv("COMPANION_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("COMPANION_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("COMPANION_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("COMPANION_RECALL_URL"); v != "" {
		c.Recall.URL = v
	}
	if v := os.Getenv("COMPANION_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// RecallListenAddr returns the address the recall service listens on.
func (c *Config) RecallListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Recall.Bind, c.Recall.Port)
}
