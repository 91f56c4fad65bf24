package llm

import (
	"context"
	"fmt"

	"github.com/m4xw311/podium/chat"
	"github.com/m4xw311/podium/tools"
)

// MockLLMClient is a deterministic offline client, useful for dry runs and
// for exercising the orchestration without API keys.
type MockLLMClient struct{}

func (m *MockLLMClient) Chat(ctx context.Context, messages []chat.Message, availableTools []tools.Tool) (*chat.Message, error) {
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	if len(last) > 80 {
		last = last[:80] + "..."
	}
	return &chat.Message{
		Role:    "assistant",
		Content: fmt.Sprintf("I hear your point that \"%s\", but I remain unconvinced.", last),
	}, nil
}
