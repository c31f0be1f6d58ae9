// Package agent drives one conversation turn: prompt assembly, the
// model call, tool dispatch and history bookkeeping.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nebula/internal/adapter"
	"nebula/internal/memory"
	"nebula/internal/store"
	"nebula/internal/tools"
	"nebula/pkg/logger"
)

// Conversation is the memory surface the orchestrator needs.
type Conversation interface {
	RecordTurn(ctx context.Context, guildID, channelID, userID, displayName, role, content string) error
	GetContext(ctx context.Context, guildID, channelID string, maxTurns int) ([]memory.Message, error)
}

// LLM is the language model collaborator.
type LLM interface {
	Complete(ctx context.Context, systemPrompt string, history []adapter.Message, tools []adapter.Tool) (*adapter.Response, error)
}

// Dispatcher routes model-issued tool calls to handlers.
type Dispatcher interface {
	Dispatch(ctx context.Context, execCtx *tools.ExecutionContext, call adapter.ToolCall) string
}

// Sender delivers text to a channel, chunking as needed.
type Sender interface {
	SendMessage(channelID, text string) error
}

// Inbound is one user message with the context the turn loop needs.
type Inbound struct {
	GuildID     string
	ChannelID   string
	AuthorID    string
	DisplayName string
	Content     string // mention token already stripped

	// Quoted context when the message replies to another message.
	ReplyAuthor  string
	ReplyContent string

	ImageCount int
	IsAdmin    bool
}

// Orchestrator runs the conversation turn loop. All collaborators are
// injected at construction; nothing is looked up at call time.
type Orchestrator struct {
	memory       Conversation
	llm          LLM
	dispatcher   Dispatcher
	sender       Sender
	systemPrompt string
	logger       *zap.Logger
}

// NewOrchestrator creates a turn-loop orchestrator.
func NewOrchestrator(mem Conversation, llm LLM, dispatcher Dispatcher, sender Sender, systemPrompt string) *Orchestrator {
	return &Orchestrator{
		memory:       mem,
		llm:          llm,
		dispatcher:   dispatcher,
		sender:       sender,
		systemPrompt: systemPrompt,
		logger:       logger.Get(),
	}
}

// RunTurn processes one inbound message end to end: it builds the
// prompt from history plus the new turn, calls the model once, streams
// any tool results to the channel in the order received, persists the
// exchange, and sends the model's text. Tool results are not fed back
// into a second model call; the model's same-response text is sent
// as-is.
func (o *Orchestrator) RunTurn(ctx context.Context, in *Inbound) error {
	userContent := o.composeUserContent(in)

	history, err := o.memory.GetContext(ctx, in.GuildID, in.ChannelID, memory.DefaultMaxTurns)
	if err != nil {
		return fmt.Errorf("load conversation context: %w", err)
	}

	prompt := make([]adapter.Message, 0, len(history)+1)
	for _, m := range history {
		prompt = append(prompt, adapter.Message{Role: m.Role, Content: m.Content})
	}
	prompt = append(prompt, adapter.Message{
		Role:    store.RoleUser,
		Content: memory.FormatUserContent(in.DisplayName, userContent),
	})

	available := tools.AvailableTools(in.IsAdmin)

	resp, err := o.llm.Complete(ctx, o.systemPrompt, prompt, available)
	if err != nil {
		return fmt.Errorf("model invocation: %w", err)
	}

	// The user's turn is part of history regardless of what the model
	// produced.
	if err := o.memory.RecordTurn(ctx, in.GuildID, in.ChannelID, in.AuthorID, in.DisplayName, store.RoleUser, userContent); err != nil {
		o.logger.Warn("Failed to record user turn", zap.Error(err))
	}

	if len(resp.ToolCalls) > 0 {
		execCtx := &tools.ExecutionContext{
			GuildID:   in.GuildID,
			ChannelID: in.ChannelID,
			ActorID:   in.AuthorID,
			ActorName: in.DisplayName,
			IsAdmin:   in.IsAdmin,
		}
		// Execute in the order received and surface each result
		// immediately; users read the channel sequentially.
		for _, call := range resp.ToolCalls {
			result := o.dispatcher.Dispatch(ctx, execCtx, call)
			if result == "" {
				continue
			}
			if err := o.sender.SendMessage(in.ChannelID, result); err != nil {
				o.logger.Error("Failed to send tool result",
					zap.String("tool", call.Name),
					zap.Error(err),
				)
			}
		}
	}

	if resp.Content != "" {
		if err := o.memory.RecordTurn(ctx, in.GuildID, in.ChannelID, in.AuthorID, in.DisplayName, store.RoleAssistant, resp.Content); err != nil {
			o.logger.Warn("Failed to record assistant turn", zap.Error(err))
		}
		if err := o.sender.SendMessage(in.ChannelID, resp.Content); err != nil {
			return fmt.Errorf("send response: %w", err)
		}
	}

	return nil
}

// composeUserContent builds the turn text: quoted-context preamble when
// replying, the message itself, and a note for image attachments (no
// image content is sent to the model).
func (o *Orchestrator) composeUserContent(in *Inbound) string {
	content := in.Content
	if in.ReplyContent != "" {
		content = fmt.Sprintf("[Context - replying to message from %s]: %q\n\n%s", in.ReplyAuthor, in.ReplyContent, content)
	}
	if in.ImageCount > 0 {
		content += fmt.Sprintf("\n\n[User attached %d image(s)]", in.ImageCount)
	}
	return content
}
