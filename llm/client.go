package llm

import (
	"context"

	"github.com/m4xw311/podium/chat"
	"github.com/m4xw311/podium/config"
	"github.com/m4xw311/podium/errors"
	"github.com/m4xw311/podium/tools"
)

// Options carries per-debater sampling parameters and, for OpenAI-compatible
// providers, an endpoint override.
type Options struct {
	Temperature float64
	MaxTokens   int
	BaseURL     string
}

// LLMClient is the interface for interacting with a Large Language Model.
// The returned message is either plain text or carries one or more tool call
// requests; any error is a provider failure (auth, network, rate limit) and
// is fatal to the caller's turn.
type LLMClient interface {
	Chat(ctx context.Context, messages []chat.Message, availableTools []tools.Tool) (*chat.Message, error)
}

// New constructs the client for a configured provider.
func New(ctx context.Context, provider, model string, opts Options) (LLMClient, error) {
	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAILLMClient(ctx, model, opts)
	case config.ProviderOpenRouter:
		return NewOpenRouterLLMClient(ctx, model, opts)
	case config.ProviderAnthropic:
		return NewAnthropicLLMClient(ctx, model, opts)
	case config.ProviderGemini:
		return NewGeminiLLMClient(ctx, model, opts)
	case config.ProviderBedrock:
		return NewBedrockLLMClient(ctx, model, opts)
	case config.ProviderMock:
		return &MockLLMClient{}, nil
	default:
		return nil, errors.New("unknown LLM provider '%s'", provider)
	}
}
