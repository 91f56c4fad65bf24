package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/m4xw311/podium/chat"
	"github.com/m4xw311/podium/errors"
	"github.com/m4xw311/podium/tools"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenRouterBaseURL is the default endpoint for the openrouter provider.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAILLMClient is a client for the OpenAI Chat Completion API and any
// OpenAI-compatible endpoint.
type OpenAILLMClient struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAILLMClient creates a new OpenAILLMClient. It requires the
// OPENAI_API_KEY environment variable to be set. Options.BaseURL or
// OPENAI_BASE_URL select a custom endpoint.
func NewOpenAILLMClient(ctx context.Context, modelName string, opts Options) (*OpenAILLMClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return newOpenAICompatible(apiKey, baseURL, modelName, opts), nil
}

// NewOpenRouterLLMClient creates a client for OpenRouter, which speaks the
// OpenAI wire protocol. It requires the OPENROUTER_API_KEY environment
// variable to be set; Options.BaseURL overrides the default endpoint.
func NewOpenRouterLLMClient(ctx context.Context, modelName string, opts Options) (*OpenAILLMClient, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY environment variable not set")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = OpenRouterBaseURL
	}
	return newOpenAICompatible(apiKey, baseURL, modelName, opts), nil
}

func newOpenAICompatible(apiKey, baseURL, modelName string, opts Options) *OpenAILLMClient {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	c := openai.NewClient(options...)
	// The &c is required, do not replace and just use c
	return &OpenAILLMClient{
		client:      &c,
		model:       modelName,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

// Chat sends a chat request and converts the response into our internal chat.Message format.
func (o *OpenAILLMClient) Chat(ctx context.Context, messages []chat.Message, availableTools []tools.Tool) (*chat.Message, error) {
	chatMessages := convertMessagesToOpenaiContent(messages)

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    chatMessages,
		Tools:       convertToolsToOpenAITools(availableTools),
		Temperature: openai.Float(o.temperature),
		MaxTokens:   openai.Int(int64(o.maxTokens)),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to OpenAI-compatible endpoint")
	}

	return processOpenaiResponse(resp)
}

// processOpenaiResponse converts an OpenAI API response into our internal chat.Message format.
func processOpenaiResponse(resp *openai.ChatCompletion) (*chat.Message, error) {
	if len(resp.Choices) == 0 {
		return &chat.Message{Role: "assistant", Content: ""}, nil
	}

	choice := resp.Choices[0].Message

	if len(choice.ToolCalls) > 0 {
		var toolCalls []chat.ToolCall
		for _, tc := range choice.ToolCalls {
			var toolArgs map[string]interface{}
			// Arguments are a JSON string; we expect it to be a flat map of arguments.
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &toolArgs); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal function call arguments")
			}
			toolCalls = append(toolCalls, chat.ToolCall{
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
				Args:       toolArgs,
			})
		}
		return &chat.Message{
			Role:      "assistant",
			Content:   choice.Content,
			ToolCalls: toolCalls,
		}, nil
	}

	return &chat.Message{Role: "assistant", Content: choice.Content}, nil
}

// convertMessagesToOpenaiContent converts our internal message format to OpenAI's.
func convertMessagesToOpenaiContent(messages []chat.Message) []openai.ChatCompletionMessageParamUnion {
	var chatMessages []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			chatMessages = append(chatMessages, openai.SystemMessage(msg.Content))
		case "assistant":
			assistantMessage := openai.ChatCompletionMessage{
				Role:    "assistant",
				Content: msg.Content,
			}
			if len(msg.ToolCalls) > 0 {
				var toolCalls []openai.ChatCompletionMessageToolCallUnion
				for _, tc := range msg.ToolCalls {
					argsBytes, err := json.Marshal(tc.Args)
					if err != nil {
						fmt.Fprintf(os.Stderr, "Warning: could not marshal tool call arguments for %s: %v. Skipping function call in history.\n", tc.Name, err)
						continue
					}
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnion{
						ID:   tc.ToolCallID,
						Type: "function",
						Function: openai.ChatCompletionMessageFunctionToolCallFunction{
							Name:      tc.Name,
							Arguments: string(argsBytes),
						},
					})
				}
				assistantMessage.ToolCalls = toolCalls
			}
			chatMessages = append(chatMessages, assistantMessage.ToParam())
		case "tool":
			// A "tool" role message needs exactly one ToolCall to identify
			// which call the content answers.
			if len(msg.ToolCalls) != 1 {
				fmt.Fprintf(os.Stderr, "Warning: tool message is malformed; expected exactly one ToolCall, found %d. Skipping.\n", len(msg.ToolCalls))
				continue
			}
			chatMessages = append(chatMessages, openai.ToolMessage(msg.Content, msg.ToolCalls[0].ToolCallID))
		case "user":
			fallthrough
		default:
			chatMessages = append(chatMessages, openai.UserMessage(msg.Content))
		}
	}
	return chatMessages
}

// convertToolsToOpenAITools converts our Tool interface to the OpenAI Tool format.
func convertToolsToOpenAITools(ts []tools.Tool) []openai.ChatCompletionToolUnionParam {
	if len(ts) == 0 {
		return nil
	}
	var openAITools []openai.ChatCompletionToolUnionParam
	for _, t := range ts {
		params := openai.FunctionParameters(t.Schema())

		toolParam := openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(t.Description()),
			Parameters:  params,
		})
		openAITools = append(openAITools, toolParam)
	}
	return openAITools
}
