// Package store provides the persistent tables for conversation history,
// user profiles and the admin action audit log, backed by an embedded
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Message roles stored in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one stored message in a channel's conversation history.
type Turn struct {
	ID          int64
	GuildID     string
	ChannelID   string
	UserID      string
	DisplayName string
	Role        string
	Content     string
	TokenCount  int
	Timestamp   time.Time
}

// UserActivity summarizes a user's profile plus recent message volume.
type UserActivity struct {
	UserID         string
	DisplayName    string
	FirstSeen      time.Time
	LastSeen       time.Time
	TotalMessages  int
	RecentMessages int // messages in the last 7 days
}

// AdminAction is one append-only audit entry.
type AdminAction struct {
	ID         string
	GuildID    string
	AdminID    string
	AdminName  string
	ActionType string
	TargetID   string
	TargetName string
	Details    string
	Timestamp  time.Time
}

// Store manages the SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; serialize access at the pool level.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversation_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			token_count INTEGER NOT NULL DEFAULT 0,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_channel
			ON conversation_history(guild_id, channel_id, id);
		CREATE INDEX IF NOT EXISTS idx_history_user
			ON conversation_history(guild_id, user_id, timestamp);

		CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, guild_id)
		);

		CREATE TABLE IF NOT EXISTS server_settings (
			guild_id TEXT PRIMARY KEY,
			settings TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS admin_actions_log (
			id TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			admin_id TEXT NOT NULL,
			admin_name TEXT NOT NULL,
			action_type TEXT NOT NULL,
			target_id TEXT,
			target_name TEXT,
			details TEXT,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_admin_log_guild
			ON admin_actions_log(guild_id, timestamp DESC);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddMessage appends a turn to a channel's conversation history.
func (s *Store) AddMessage(ctx context.Context, guildID, channelID, userID, displayName, role, content string, tokenCount int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_history
			(guild_id, channel_id, user_id, display_name, role, content, token_count, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, guildID, channelID, userID, displayName, role, content, tokenCount, now)
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// GetConversationHistory returns the most recent turns for a channel,
// newest first. Callers wanting chronological order must reverse.
func (s *Store) GetConversationHistory(ctx context.Context, guildID, channelID string, limit int) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, user_id, display_name, role, content, token_count, timestamp
		FROM conversation_history
		WHERE guild_id = ? AND channel_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, guildID, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("get conversation history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts string
		if err := rows.Scan(&t.ID, &t.GuildID, &t.ChannelID, &t.UserID, &t.DisplayName, &t.Role, &t.Content, &t.TokenCount, &ts); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Timestamp, _ = time.Parse(time.RFC3339, ts)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// GetTotalTokens returns the running token total for a channel.
// An empty channel sums to zero.
func (s *Store) GetTotalTokens(ctx context.Context, guildID, channelID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(token_count), 0)
		FROM conversation_history
		WHERE guild_id = ? AND channel_id = ?
	`, guildID, channelID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("get total tokens: %w", err)
	}
	return total, nil
}

// ResetConversation deletes a channel's entire conversation history.
func (s *Store) ResetConversation(ctx context.Context, guildID, channelID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM conversation_history
		WHERE guild_id = ? AND channel_id = ?
	`, guildID, channelID)
	if err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}
	return nil
}

// UpsertUserProfile creates or updates the profile for (user, guild).
// The display name is last-write-wins and the message count only grows.
func (s *Store) UpsertUserProfile(ctx context.Context, userID, displayName, guildID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, guild_id, display_name, first_seen, last_seen, message_count)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(user_id, guild_id) DO UPDATE SET
			display_name = excluded.display_name,
			last_seen = excluded.last_seen,
			message_count = message_count + 1
	`, userID, guildID, displayName, now, now)
	if err != nil {
		return fmt.Errorf("upsert user profile: %w", err)
	}
	return nil
}

// GetUserActivity returns a user's profile with a 7-day message count,
// or nil when no profile exists.
func (s *Store) GetUserActivity(ctx context.Context, userID, guildID string) (*UserActivity, error) {
	var a UserActivity
	var firstSeen, lastSeen string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, first_seen, last_seen, message_count
		FROM user_profiles
		WHERE user_id = ? AND guild_id = ?
	`, userID, guildID).Scan(&a.UserID, &a.DisplayName, &firstSeen, &lastSeen, &a.TotalMessages)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user activity: %w", err)
	}
	a.FirstSeen, _ = time.Parse(time.RFC3339, firstSeen)
	a.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)

	cutoff := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM conversation_history
		WHERE user_id = ? AND guild_id = ? AND timestamp > ?
	`, userID, guildID, cutoff).Scan(&a.RecentMessages)
	if err != nil {
		return nil, fmt.Errorf("count recent messages: %w", err)
	}
	return &a, nil
}

// LogAdminAction appends an audit entry. The ID and timestamp are
// assigned here; entries are never updated or deleted.
func (s *Store) LogAdminAction(ctx context.Context, action AdminAction) error {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_actions_log
			(id, guild_id, admin_id, admin_name, action_type, target_id, target_name, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, action.ID, action.GuildID, action.AdminID, action.AdminName, action.ActionType,
		action.TargetID, action.TargetName, action.Details, now)
	if err != nil {
		return fmt.Errorf("log admin action: %w", err)
	}
	return nil
}

// GetAdminLogs returns the most recent audit entries for a guild.
func (s *Store) GetAdminLogs(ctx context.Context, guildID string, limit int) ([]AdminAction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, admin_id, admin_name, action_type, target_id, target_name, details, timestamp
		FROM admin_actions_log
		WHERE guild_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("get admin logs: %w", err)
	}
	defer rows.Close()

	var logs []AdminAction
	for rows.Next() {
		var a AdminAction
		var ts string
		var targetID, targetName, details sql.NullString
		if err := rows.Scan(&a.ID, &a.GuildID, &a.AdminID, &a.AdminName, &a.ActionType, &targetID, &targetName, &details, &ts); err != nil {
			return nil, fmt.Errorf("scan admin log: %w", err)
		}
		a.TargetID = targetID.String
		a.TargetName = targetName.String
		a.Details = details.String
		a.Timestamp, _ = time.Parse(time.RFC3339, ts)
		logs = append(logs, a)
	}
	return logs, rows.Err()
}

// GetServerSettings returns the raw settings blob for a guild, or ""
// when none has been stored. The table is reserved for per-guild
// configuration and is not consulted by the conversation pipeline.
func (s *Store) GetServerSettings(ctx context.Context, guildID string) (string, error) {
	var settings sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT settings FROM server_settings WHERE guild_id = ?
	`, guildID).Scan(&settings)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get server settings: %w", err)
	}
	return settings.String, nil
}

// SetServerSettings stores the raw settings blob for a guild.
func (s *Store) SetServerSettings(ctx context.Context, guildID, settings string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO server_settings (guild_id, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			settings = excluded.settings,
			updated_at = excluded.updated_at
	`, guildID, settings, now, now)
	if err != nil {
		return fmt.Errorf("set server settings: %w", err)
	}
	return nil
}
