package llm

import "strings"

// NewOllama creates a client for a local Ollama instance through its
// OpenAI-compatible endpoint.
func NewOllama(url, model string, temperature float64) *OpenAI {
	o := NewOpenAI("ollama", strings.TrimRight(url, "/")+"/v1", model, temperature, 0)
	o.provider = "ollama"
	return o
}
