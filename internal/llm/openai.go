package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI calls the Chat Completions API, or any server that speaks it.
type OpenAI struct {
	client      openai.Client
	provider    string
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAI creates a new OpenAI client. An empty baseURL uses the public API.
func NewOpenAI(apiKey, baseURL, model string, temperature float64, maxTokens int) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		provider:    "openai",
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Complete sends the prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.temperature),
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s api: %w", o.provider, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s api: no completion choices", o.provider)
	}

	return &Response{
		Content:    completion.Choices[0].Message.Content,
		Provider:   o.provider,
		TokensUsed: int(completion.Usage.TotalTokens),
	}, nil
}
