package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"nebula/internal/agent"
)

// turnTimeout bounds one full conversation turn, including the model
// call and any tool calls.
const turnTimeout = 2 * time.Minute

// Handler turns Discord message events into agent turns.
type Handler struct {
	orch   *agent.Orchestrator
	sender *Sender
	logger *zap.Logger
}

// NewHandler creates a Discord message handler.
func NewHandler(orch *agent.Orchestrator, sender *Sender, logger *zap.Logger) *Handler {
	return &Handler{
		orch:   orch,
		sender: sender,
		logger: logger,
	}
}

// HandleMessage processes one message event. It only reacts to guild
// messages that mention the bot, and it never lets a failure escape:
// the worst outcome of a turn is an apology message.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore the bot's own messages
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	// Guild channels only; DMs are ignored
	if m.GuildID == "" {
		return
	}
	if !isMentioned(m.Message, s.State.User.ID) {
		return
	}

	content := stripBotMention(m.Content, s.State.User.ID)
	if content == "" {
		return
	}

	name := authorDisplayName(m)

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic while processing message",
				zap.String("user_id", m.Author.ID),
				zap.String("channel_id", m.ChannelID),
				zap.Any("cause", r),
			)
			h.sendApology(m.ChannelID, name)
		}
	}()

	h.logger.Info("Processing message",
		zap.String("user_id", m.Author.ID),
		zap.String("guild_id", m.GuildID),
		zap.String("channel_id", m.ChannelID),
	)

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	in := &agent.Inbound{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		AuthorID:    m.Author.ID,
		DisplayName: name,
		Content:     content,
		ImageCount:  countImageAttachments(m.Attachments),
		IsAdmin:     h.isAdmin(s, m),
	}

	if replied := h.repliedToMessage(ctx, s, m); replied != nil {
		in.ReplyAuthor = replied.Author.Username
		if replied.Member != nil && replied.Member.Nick != "" {
			in.ReplyAuthor = replied.Member.Nick
		}
		in.ReplyContent = replied.Content
	}

	if err := h.orch.RunTurn(ctx, in); err != nil {
		h.logger.Error("Failed to process message",
			zap.String("user_id", m.Author.ID),
			zap.String("channel_id", m.ChannelID),
			zap.Error(err),
		)
		h.sendApology(m.ChannelID, name)
	}
}

func (h *Handler) sendApology(channelID, name string) {
	msg := fmt.Sprintf("Sorry %s, I encountered an error processing your message. Please try again.", name)
	if err := h.sender.SendMessage(channelID, msg); err != nil {
		h.logger.Error("Failed to send apology message", zap.Error(err))
	}
}

// repliedToMessage returns the quoted message when the event is a
// reply. Resolution failure is not an error; the turn proceeds without
// quoted context.
func (h *Handler) repliedToMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) *discordgo.Message {
	if m.ReferencedMessage != nil {
		return m.ReferencedMessage
	}
	if m.MessageReference == nil || m.MessageReference.MessageID == "" {
		return nil
	}
	replied, err := s.ChannelMessage(m.ChannelID, m.MessageReference.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		h.logger.Debug("Failed to fetch replied-to message",
			zap.String("message_id", m.MessageReference.MessageID),
			zap.Error(err),
		)
		return nil
	}
	return replied
}

// isAdmin reports whether the author holds administrator permission in
// the channel. Resolution failure means not privileged.
func (h *Handler) isAdmin(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	perms, err := s.State.MessagePermissions(m.Message)
	if err != nil {
		perms, err = s.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			h.logger.Debug("Failed to resolve author permissions",
				zap.String("user_id", m.Author.ID),
				zap.Error(err),
			)
			return false
		}
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// isMentioned reports whether the bot is mentioned in the message.
func isMentioned(m *discordgo.Message, botID string) bool {
	for _, mention := range m.Mentions {
		if mention.ID == botID {
			return true
		}
	}
	return strings.Contains(m.Content, "<@"+botID+">") || strings.Contains(m.Content, "<@!"+botID+">")
}

// stripBotMention removes the bot's mention tokens from the message text.
func stripBotMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}

// countImageAttachments counts attachments with an image content type.
func countImageAttachments(attachments []*discordgo.MessageAttachment) int {
	n := 0
	for _, att := range attachments {
		if strings.HasPrefix(att.ContentType, "image/") {
			n++
		}
	}
	return n
}

func authorDisplayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
