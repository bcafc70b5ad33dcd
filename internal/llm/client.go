package llm

import (
	"cmp"
	"context"
	"fmt"

	"github.com/lazypower/companion/internal/config"
)

// Client completes a single-turn prompt. Implementations must be safe for
// concurrent use: the reply path and background extraction share one.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Response, error)
}

// Response holds the result of an LLM completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-haiku-4-5"
	defaultOllamaURL      = "http://localhost:11434"
	defaultOllamaModel    = "llama3.2"
)

// NewClient builds the client named by cfg.Provider. An empty provider means
// OpenAI.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY or llm.openai_key")
		}
		model := cmp.Or(cfg.Model, defaultOpenAIModel)
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIURL, model, cfg.Temperature, cfg.MaxTokens), nil

	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or llm.anthropic_key")
		}
		// The shipped default model is an OpenAI one; don't send it to Anthropic.
		model := cfg.Model
		if model == defaultOpenAIModel {
			model = ""
		}
		return NewAnthropic(cfg.AnthropicKey, cmp.Or(model, defaultAnthropicModel), cfg.Temperature, cfg.MaxTokens), nil

	case "ollama":
		url := cmp.Or(cfg.OllamaURL, defaultOllamaURL)
		return NewOllama(url, cmp.Or(cfg.OllamaModel, defaultOllamaModel), cfg.Temperature), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai, anthropic or ollama)", cfg.Provider)
	}
}
