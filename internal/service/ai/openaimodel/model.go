// Package openaimodel exposes an OpenAI chat completion client as an eino
// chat model so it can sit in the same chain as the Ark model.
package openaimodel

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"
)

var ErrToolsUnsupported = errors.New("openaimodel: tool calling is not supported")

// Config holds request defaults. Nil pointers leave the API defaults in place.
type Config struct {
	Model       string
	MaxTokens   *int
	Temperature *float32
	TopP        *float32
}

// ChatModel implements model.ChatModel on top of go-openai.
type ChatModel struct {
	client *openai.Client
	cfg    Config
}

// New wraps client with request defaults from cfg.
func New(client *openai.Client, cfg Config) *ChatModel {
	return &ChatModel{client: client, cfg: cfg}
}

var _ model.ChatModel = (*ChatModel)(nil)

// Generate runs a blocking chat completion.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req := m.buildRequest(input, opts)

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion returned no choices")
	}

	msg := schema.AssistantMessage(resp.Choices[0].Message.Content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	return msg, nil
}

// Stream runs a streaming chat completion; each delta becomes one chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.buildRequest(input, opts)
	req.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion stream: %w", err)
	}

	reader, writer := schema.Pipe[*schema.Message](8)
	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			resp, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				return
			}
			if recvErr != nil {
				writer.Send(nil, recvErr)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if closed := writer.Send(schema.AssistantMessage(resp.Choices[0].Delta.Content, nil), nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

// BindTools is not supported; the onboarding assistant never calls tools.
func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return ErrToolsUnsupported
}

func (m *ChatModel) buildRequest(input []*schema.Message, opts []model.Option) openai.ChatCompletionRequest {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.cfg.Model,
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
	}, opts...)

	req := openai.ChatCompletionRequest{
		Messages: toOpenAIMessages(input),
	}
	if options.Model != nil {
		req.Model = *options.Model
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.TopP != nil {
		req.TopP = *options.TopP
	}
	if len(options.Stop) > 0 {
		req.Stop = options.Stop
	}
	return req
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
