// Package tools declares the callable tools, dispatches model-issued
// tool calls to handlers, and implements the handlers themselves.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"nebula/internal/adapter"
	"nebula/internal/store"
	"nebula/pkg/logger"
)

// ExecutionContext identifies the caller of a tool invocation.
type ExecutionContext struct {
	GuildID   string
	ChannelID string
	ActorID   string
	ActorName string
	IsAdmin   bool
}

// AuditStore is the slice of the persistent store the handlers need.
type AuditStore interface {
	LogAdminAction(ctx context.Context, action store.AdminAction) error
	GetUserActivity(ctx context.Context, userID, guildID string) (*store.UserActivity, error)
}

// Executor routes tool calls to handlers and turns every outcome,
// including failures, into a result string. A bad or hallucinated tool
// call never aborts the conversation turn.
type Executor struct {
	discord Discord
	audit   AuditStore
	search  *SearchClient
	logger  *zap.Logger
}

// NewExecutor creates a tool executor wired to its collaborators.
func NewExecutor(discord Discord, audit AuditStore, search *SearchClient) *Executor {
	return &Executor{
		discord: discord,
		audit:   audit,
		search:  search,
		logger:  logger.Get(),
	}
}

// Per-tool argument payloads, decoded and validated at this boundary so
// handlers never crash on missing keys.

type kickArgs struct {
	UserMention string `json:"user_mention"`
	Reason      string `json:"reason"`
}

type banArgs struct {
	UserMention string `json:"user_mention"`
	Reason      string `json:"reason"`
}

type createChannelArgs struct {
	ChannelName  string `json:"channel_name"`
	CategoryName string `json:"category_name"`
	ChannelType  string `json:"channel_type"`
}

type activityArgs struct {
	UserMention string `json:"user_mention"`
}

type searchArgs struct {
	Query string `json:"query"`
}

// Dispatch executes one tool call and returns its result text. Unknown
// tools, malformed arguments and handler panics all degrade to an
// informative string.
func (e *Executor) Dispatch(ctx context.Context, execCtx *ExecutionContext, call adapter.ToolCall) (result string) {
	e.logger.Debug("Dispatching tool call",
		zap.String("tool", call.Name),
		zap.String("actor_id", execCtx.ActorID),
		zap.String("guild_id", execCtx.GuildID),
	)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Tool handler panicked",
				zap.String("tool", call.Name),
				zap.Any("cause", r),
			)
			result = fmt.Sprintf("❌ Error executing tool '%s': %v", call.Name, r)
		}
	}()

	switch call.Name {
	case ToolSearch:
		var args searchArgs
		if msg := decodeArgs(call, &args); msg != "" {
			return msg
		}
		if args.Query == "" {
			return argumentError(call.Name, "query is required")
		}
		return e.search.Search(ctx, args.Query, DefaultSearchResults)

	case ToolKickUser:
		var args kickArgs
		if msg := decodeArgs(call, &args); msg != "" {
			return msg
		}
		if args.UserMention == "" || args.Reason == "" {
			return argumentError(call.Name, "user_mention and reason are required")
		}
		return e.kickUser(ctx, execCtx, args)

	case ToolBanUser:
		var args banArgs
		if msg := decodeArgs(call, &args); msg != "" {
			return msg
		}
		if args.UserMention == "" || args.Reason == "" {
			return argumentError(call.Name, "user_mention and reason are required")
		}
		return e.banUser(ctx, execCtx, args)

	case ToolCreateChannel:
		var args createChannelArgs
		if msg := decodeArgs(call, &args); msg != "" {
			return msg
		}
		if args.ChannelName == "" || args.ChannelType == "" {
			return argumentError(call.Name, "channel_name and channel_type are required")
		}
		return e.createChannel(ctx, execCtx, args)

	case ToolUserActivity:
		var args activityArgs
		if msg := decodeArgs(call, &args); msg != "" {
			return msg
		}
		if args.UserMention == "" {
			return argumentError(call.Name, "user_mention is required")
		}
		return e.userActivity(ctx, execCtx, args)

	default:
		e.logger.Warn("Model requested unknown tool", zap.String("tool", call.Name))
		return fmt.Sprintf("Tool '%s' not available or not implemented.", call.Name)
	}
}

// decodeArgs unmarshals the raw argument JSON, returning a user-facing
// error string when the payload is malformed.
func decodeArgs(call adapter.ToolCall, v interface{}) string {
	raw := call.Arguments
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Sprintf("❌ Tool '%s' received malformed arguments: %v", call.Name, err)
	}
	return ""
}

func argumentError(toolName, reason string) string {
	return fmt.Sprintf("❌ Tool '%s' called with invalid arguments: %s", toolName, reason)
}
