package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"nebula/internal/tools"
	"nebula/pkg/logger"
)

// SessionAdapter implements tools.Discord over a discordgo session,
// mapping platform 403s to tools.ErrPermissionDenied.
type SessionAdapter struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewSessionAdapter creates the platform adapter used by tool handlers.
func NewSessionAdapter(session *discordgo.Session) *SessionAdapter {
	return &SessionAdapter{
		session: session,
		logger:  logger.Get(),
	}
}

// FetchMember resolves a guild member and computes its authority rank.
func (a *SessionAdapter) FetchMember(ctx context.Context, guildID, userID string) (*tools.Member, error) {
	member, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapPlatformErr(err)
	}

	roles, err := a.guildRoles(ctx, guildID)
	if err != nil {
		return nil, wrapPlatformErr(err)
	}

	return &tools.Member{
		ID:          member.User.ID,
		DisplayName: memberDisplayName(member),
		RoleRank:    rankOf(roles, member.Roles),
	}, nil
}

// BotRank returns the bot's own authority rank in the guild.
func (a *SessionAdapter) BotRank(ctx context.Context, guildID string) (int, error) {
	botID := a.session.State.User.ID

	member, err := a.session.State.Member(guildID, botID)
	if err != nil {
		member, err = a.session.GuildMember(guildID, botID, discordgo.WithContext(ctx))
		if err != nil {
			return 0, wrapPlatformErr(err)
		}
	}

	roles, err := a.guildRoles(ctx, guildID)
	if err != nil {
		return 0, wrapPlatformErr(err)
	}
	return rankOf(roles, member.Roles), nil
}

// Kick removes a member from the guild.
func (a *SessionAdapter) Kick(ctx context.Context, guildID, userID, reason string) error {
	err := a.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
	return wrapPlatformErr(err)
}

// Ban bans a member from the guild without deleting message history.
func (a *SessionAdapter) Ban(ctx context.Context, guildID, userID, reason string) error {
	err := a.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
	return wrapPlatformErr(err)
}

// CreateChannel creates a text or voice channel, optionally inside a
// named category, and returns a display reference for it.
func (a *SessionAdapter) CreateChannel(ctx context.Context, guildID, name, categoryName, kind string) (string, error) {
	var parentID string
	if categoryName != "" {
		channels, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return "", wrapPlatformErr(err)
		}
		for _, ch := range channels {
			if ch.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(ch.Name, categoryName) {
				parentID = ch.ID
				break
			}
		}
		if parentID == "" {
			return "", fmt.Errorf("%w: %s", tools.ErrCategoryNotFound, categoryName)
		}
	}

	chType := discordgo.ChannelTypeGuildText
	if kind == "voice" {
		chType = discordgo.ChannelTypeGuildVoice
	}

	ch, err := a.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     chType,
		ParentID: parentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrapPlatformErr(err)
	}

	a.logger.Info("Created channel",
		zap.String("guild_id", guildID),
		zap.String("channel_id", ch.ID),
		zap.String("name", ch.Name),
	)

	if chType == discordgo.ChannelTypeGuildText {
		return ch.Mention(), nil
	}
	return ch.Name, nil
}

func (a *SessionAdapter) guildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	if g, err := a.session.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		return g.Roles, nil
	}
	return a.session.GuildRoles(guildID, discordgo.WithContext(ctx))
}

// rankOf returns the highest role position among the member's roles.
// Members with no roles rank at zero, below any positioned role.
func rankOf(roles []*discordgo.Role, memberRoles []string) int {
	rank := 0
	for _, id := range memberRoles {
		for _, r := range roles {
			if r.ID == id && r.Position > rank {
				rank = r.Position
			}
		}
	}
	return rank
}

func memberDisplayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		if m.User.GlobalName != "" {
			return m.User.GlobalName
		}
		return m.User.Username
	}
	return ""
}

// wrapPlatformErr marks HTTP 403 responses as permission denials so
// handlers can produce the specific "I lack permission" message.
func wrapPlatformErr(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %v", tools.ErrPermissionDenied, err)
	}
	return err
}
