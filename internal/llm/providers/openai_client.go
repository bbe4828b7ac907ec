// File path: internal/llm/providers/openai_client.go
package providers

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v2"

	"github.com/openassess/asset-history/internal/common"
)

// OpenAIProvider sends chat completions to the OpenAI API.
type OpenAIProvider struct {
	client    openai.Client
	chatModel string
	maxTokens int
}

// NewOpenAIProvider wraps a configured client. maxTokens bounds every
// completion; values below 1 fall back to 80.
func NewOpenAIProvider(client openai.Client, chatModel string, maxTokens int) *OpenAIProvider {
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	if maxTokens < 1 {
		maxTokens = 80
	}
	common.Logger().Info("llm: OpenAI provider configured", "chat_model", chatModel, "max_tokens", maxTokens)
	return &OpenAIProvider{client: client, chatModel: chatModel, maxTokens: maxTokens}
}

func (o *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: sending chat completion request", "model", o.chatModel, "messages", len(messages))
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(o.chatModel),
		MaxTokens: openai.Int(int64(o.maxTokens)),
	}
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: chat completion succeeded")
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}
