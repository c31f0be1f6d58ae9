// Package adapter wraps the OpenAI-compatible chat completion endpoint.
package adapter

import (
	"context"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"nebula/pkg/errors"
	"nebula/pkg/logger"
)

const (
	completionTemperature = 0.7
	completionMaxTokens   = 2000
)

// Message is one prompt turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// Tool declares a function the model may call.
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a callable function and its parameters.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall is a function invocation requested by the model. Arguments
// stay as raw JSON; they are decoded and validated at the dispatcher
// boundary, not here.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Response is the model's reply: text, tool calls, or both.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// New creates a client. baseURL is optional and supports alternate
// OpenAI-compatible endpoints (LiteLLM, proxies).
func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.Get(),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one chat completion request. history must already be in
// chronological order and include the new user turn as its last element.
// Failures are surfaced once to the caller; there is no retry.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []Message, tools []Tool) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	}
	if len(tools) > 0 {
		openaiTools := make([]openai.Tool, 0, len(tools))
		for _, tool := range tools {
			fn := tool.Function
			openaiTools = append(openaiTools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        fn.Name,
					Description: fn.Description,
					Parameters:  fn.Parameters,
				},
			})
		}
		req.Tools = openaiTools
		// ToolChoice defaults to "auto" when tools are provided.
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("Chat completion request failed",
			zap.String("model", c.model),
			zap.Error(err),
		)
		return nil, errors.NewLLMRequestFailed(c.model, err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.ErrLLMNoResponse
	}

	choice := resp.Choices[0]
	response := &Response{Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.logger.Debug("Chat completion succeeded",
		zap.String("model", c.model),
		zap.Int("tool_calls", len(response.ToolCalls)),
		zap.Bool("has_content", response.Content != ""),
	)
	return response, nil
}
