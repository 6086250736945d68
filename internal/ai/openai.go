package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Provider = (*OpenAI)(nil)

// ChatService defines the interface for making chat completion calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI is the alternate provider for deployments without a Gemini key.
// Chat completions carry no grounding metadata, so results have no sources.
type OpenAI struct {
	chat  ChatService
	model string
}

// NewOpenAI creates an OpenAI-backed provider.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		chat:  client.Chat.Completions,
		model: model,
	}
}

// Name identifies this provider in results and logs.
func (o *OpenAI) Name() string { return "openai" }

// Generate performs one chat completion call.
func (o *OpenAI) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstruction))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(openai.ChatModel(o.model)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: chat completion failed: no choices returned")
	}

	return &GenerateResult{Text: resp.Choices[0].Message.Content}, nil
}
