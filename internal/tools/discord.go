package tools

import (
	"context"
	"errors"
)

// ErrPermissionDenied marks a platform-level permission failure (the bot
// itself lacks the Discord permission for the action).
var ErrPermissionDenied = errors.New("permission denied by platform")

// ErrCategoryNotFound marks a channel category that could not be resolved.
var ErrCategoryNotFound = errors.New("category not found")

// Member is a resolved guild member with its authority rank (the highest
// role position the member holds).
type Member struct {
	ID          string
	DisplayName string
	RoleRank    int
}

// Discord is the narrow platform surface the tool handlers act through.
type Discord interface {
	// FetchMember resolves a member of a guild by user id.
	FetchMember(ctx context.Context, guildID, userID string) (*Member, error)
	// BotRank returns the bot's own authority rank in the guild.
	BotRank(ctx context.Context, guildID string) (int, error)
	// Kick removes a member from the guild.
	Kick(ctx context.Context, guildID, userID, reason string) error
	// Ban bans a member from the guild.
	Ban(ctx context.Context, guildID, userID, reason string) error
	// CreateChannel creates a text or voice channel, optionally inside a
	// named category, and returns a display reference for the channel.
	CreateChannel(ctx context.Context, guildID, name, categoryName, kind string) (string, error)
}
