// Package memory maintains the bounded per-channel conversation history.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"nebula/internal/store"
	"nebula/internal/tokens"
	"nebula/pkg/logger"
)

// DefaultMaxTurns bounds how much history is handed to the model.
const DefaultMaxTurns = 50

// Message is one model-ready turn of conversation context.
type Message struct {
	Role    string
	Content string
}

// ConversationStore is the slice of the persistent store that memory needs.
type ConversationStore interface {
	AddMessage(ctx context.Context, guildID, channelID, userID, displayName, role, content string, tokenCount int) error
	GetConversationHistory(ctx context.Context, guildID, channelID string, limit int) ([]store.Turn, error)
	GetTotalTokens(ctx context.Context, guildID, channelID string) (int, error)
	ResetConversation(ctx context.Context, guildID, channelID string) error
	UpsertUserProfile(ctx context.Context, userID, displayName, guildID string) error
}

// Memory records turns and assembles ordered history for the model.
type Memory struct {
	store      ConversationStore
	accountant *tokens.Accountant
	logger     *zap.Logger

	// Serializes the check-wipe-insert sequence per (guild, channel).
	// Two concurrent turns in the same channel would otherwise race on
	// the ceiling check.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a conversation memory over the given store and accountant.
func New(s ConversationStore, accountant *tokens.Accountant) *Memory {
	return &Memory{
		store:      s,
		accountant: accountant,
		logger:     logger.Get(),
		locks:      make(map[string]*sync.Mutex),
	}
}

func (m *Memory) channelLock(guildID, channelID string) *sync.Mutex {
	key := guildID + ":" + channelID
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// RecordTurn stores one turn. When the channel's running total plus the
// new turn would exceed the ceiling, the entire channel history is wiped
// first. The eviction check uses the pre-insert total, so after any call
// the stored sum never exceeds the ceiling (assuming single turns fit).
func (m *Memory) RecordTurn(ctx context.Context, guildID, channelID, userID, displayName, role, content string) error {
	lock := m.channelLock(guildID, channelID)
	lock.Lock()
	defer lock.Unlock()

	count := m.accountant.Count(content)

	total, err := m.store.GetTotalTokens(ctx, guildID, channelID)
	if err != nil {
		return fmt.Errorf("read channel token total: %w", err)
	}

	if total+count > m.accountant.Ceiling() {
		m.logger.Info("Token ceiling reached, resetting channel history",
			zap.String("guild_id", guildID),
			zap.String("channel_id", channelID),
			zap.Int("total", total+count),
			zap.Int("ceiling", m.accountant.Ceiling()),
		)
		if err := m.store.ResetConversation(ctx, guildID, channelID); err != nil {
			return fmt.Errorf("reset channel history: %w", err)
		}
	}

	if err := m.store.AddMessage(ctx, guildID, channelID, userID, displayName, role, content, count); err != nil {
		return fmt.Errorf("store turn: %w", err)
	}

	if role == store.RoleUser {
		if err := m.store.UpsertUserProfile(ctx, userID, displayName, guildID); err != nil {
			// Profile upkeep must not fail the turn.
			m.logger.Warn("Failed to upsert user profile",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// GetContext returns up to maxTurns turns in chronological order,
// formatted for the model. User turns carry the author's display name
// so the model can distinguish speakers in a shared channel; assistant
// turns pass through unprefixed.
func (m *Memory) GetContext(ctx context.Context, guildID, channelID string, maxTurns int) ([]Message, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	turns, err := m.store.GetConversationHistory(ctx, guildID, channelID, maxTurns)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	// The store returns newest first; the model wants oldest first.
	messages := make([]Message, 0, len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		content := t.Content
		if t.Role == store.RoleUser {
			content = FormatUserContent(t.DisplayName, t.Content)
		}
		messages = append(messages, Message{Role: t.Role, Content: content})
	}
	return messages, nil
}

// FormatUserContent prefixes a user turn with the author's display name.
func FormatUserContent(displayName, content string) string {
	return fmt.Sprintf("[%s]: %s", displayName, content)
}
