package chat

import "time"

// Message is one entry in a debater's conversation history.
// Role is one of "system", "user", "assistant" or "tool". A debater's own
// turns are stored as "assistant", the opponent's as "user"; "tool" messages
// carry the result of a single tool call back to the model.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Timestamp time.Time  `json:"timestamp,omitempty"`
}

// ToolCall is a model-requested tool invocation. For "tool" role messages the
// single entry identifies which call the content is the result of.
type ToolCall struct {
	ToolCallID string                 `json:"tool_call_id"`
	Name       string                 `json:"name"`
	Args       map[string]interface{} `json:"args"`
}
