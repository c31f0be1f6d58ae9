package memory

import (
	"context"
	"strings"
	"testing"

	"nebula/internal/store"
	"nebula/internal/tokens"
)

// fakeStore keeps conversation history in memory with the same ordering
// contract as the persistent store: newest first on read.
type fakeStore struct {
	turns    []store.Turn
	profiles map[string]int
	resets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]int)}
}

func (f *fakeStore) AddMessage(ctx context.Context, guildID, channelID, userID, displayName, role, content string, tokenCount int) error {
	f.turns = append(f.turns, store.Turn{
		GuildID:     guildID,
		ChannelID:   channelID,
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
		Content:     content,
		TokenCount:  tokenCount,
	})
	return nil
}

func (f *fakeStore) GetConversationHistory(ctx context.Context, guildID, channelID string, limit int) ([]store.Turn, error) {
	var out []store.Turn
	for i := len(f.turns) - 1; i >= 0 && len(out) < limit; i-- {
		t := f.turns[i]
		if t.GuildID == guildID && t.ChannelID == channelID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTotalTokens(ctx context.Context, guildID, channelID string) (int, error) {
	total := 0
	for _, t := range f.turns {
		if t.GuildID == guildID && t.ChannelID == channelID {
			total += t.TokenCount
		}
	}
	return total, nil
}

func (f *fakeStore) ResetConversation(ctx context.Context, guildID, channelID string) error {
	f.resets++
	kept := f.turns[:0]
	for _, t := range f.turns {
		if t.GuildID != guildID || t.ChannelID != channelID {
			kept = append(kept, t)
		}
	}
	f.turns = kept
	return nil
}

func (f *fakeStore) UpsertUserProfile(ctx context.Context, userID, displayName, guildID string) error {
	f.profiles[userID+":"+guildID]++
	return nil
}

func TestRecordTurnStoresMessage(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	m := New(fs, tokens.NewEstimator(fs, 1000))

	if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleUser, "hello there"); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}

	if len(fs.turns) != 1 {
		t.Fatalf("expected 1 stored turn, got %d", len(fs.turns))
	}
	if fs.turns[0].Content != "hello there" {
		t.Errorf("stored content = %q", fs.turns[0].Content)
	}
	if fs.turns[0].TokenCount != len("hello there")/4 {
		t.Errorf("stored token count = %d, want %d", fs.turns[0].TokenCount, len("hello there")/4)
	}
}

func TestRecordTurnUpdatesProfileForUserOnly(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	m := New(fs, tokens.NewEstimator(fs, 1000))

	if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleUser, "hi"); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}
	if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleAssistant, "hello Alice"); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}

	if got := fs.profiles["u1:g1"]; got != 1 {
		t.Errorf("profile upserts = %d, want 1 (user turns only)", got)
	}
}

func TestRecordTurnWipesAtCeiling(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	// Ceiling of 100 tokens; each message is 48 tokens under the
	// length/4 estimate, so the third insert must trigger a wipe.
	m := New(fs, tokens.NewEstimator(fs, 100))

	msg := strings.Repeat("hello hello ", 16) // 192 chars, 48 tokens

	for i := 0; i < 5; i++ {
		if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleUser, msg); err != nil {
			t.Fatalf("RecordTurn %d failed: %v", i, err)
		}
		total, _ := fs.GetTotalTokens(ctx, "g1", "c1")
		if total > 100 {
			t.Fatalf("after turn %d: stored total %d exceeds ceiling 100", i, total)
		}
	}

	if fs.resets == 0 {
		t.Error("expected at least one history wipe")
	}
	// The wipe clears everything; the triggering turn is still stored.
	if len(fs.turns) == 0 {
		t.Error("triggering turn should survive the wipe")
	}
}

func TestRecordTurnWipeIsPerChannel(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	m := New(fs, tokens.NewEstimator(fs, 100))

	big := strings.Repeat("word ", 48) // 240 chars, 60 tokens

	if err := m.RecordTurn(ctx, "g1", "other", "u1", "Alice", store.RoleUser, "small"); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}
	if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleUser, big); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}
	if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleUser, big); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}

	// c1 wiped, other channel untouched
	otherTotal, _ := fs.GetTotalTokens(ctx, "g1", "other")
	if otherTotal == 0 {
		t.Error("wipe in one channel must not clear another channel")
	}
}

func TestGetContextOrderAndFormatting(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	m := New(fs, tokens.NewEstimator(fs, 1000))

	if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleUser, "hi"); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}
	if err := m.RecordTurn(ctx, "g1", "c1", "bot", "Nebula", store.RoleAssistant, "hello Alice"); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}
	if err := m.RecordTurn(ctx, "g1", "c1", "u2", "Bob", store.RoleUser, "hey"); err != nil {
		t.Fatalf("RecordTurn failed: %v", err)
	}

	msgs, err := m.GetContext(ctx, "g1", "c1", DefaultMaxTurns)
	if err != nil {
		t.Fatalf("GetContext failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	// Chronological order, user turns name-prefixed, assistant turns as-is
	if msgs[0].Content != "[Alice]: hi" {
		t.Errorf("msgs[0] = %q, want %q", msgs[0].Content, "[Alice]: hi")
	}
	if msgs[1].Role != store.RoleAssistant || msgs[1].Content != "hello Alice" {
		t.Errorf("msgs[1] = %+v, want unprefixed assistant turn", msgs[1])
	}
	if msgs[2].Content != "[Bob]: hey" {
		t.Errorf("msgs[2] = %q, want %q", msgs[2].Content, "[Bob]: hey")
	}
}

func TestGetContextBoundsTurns(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	m := New(fs, tokens.NewEstimator(fs, 100000))

	for i := 0; i < 10; i++ {
		if err := m.RecordTurn(ctx, "g1", "c1", "u1", "Alice", store.RoleUser, "message"); err != nil {
			t.Fatalf("RecordTurn failed: %v", err)
		}
	}

	msgs, err := m.GetContext(ctx, "g1", "c1", 4)
	if err != nil {
		t.Fatalf("GetContext failed: %v", err)
	}
	if len(msgs) != 4 {
		t.Errorf("expected 4 messages, got %d", len(msgs))
	}
}
