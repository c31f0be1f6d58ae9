package tokens

import (
	"context"
	"strings"
	"testing"
)

type fakeTotals struct {
	total int
	err   error
}

func (f *fakeTotals) GetTotalTokens(ctx context.Context, guildID, channelID string) (int, error) {
	return f.total, f.err
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{strings.Repeat("a", 400), 100},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestEstimatorCountUsesLengthHeuristic(t *testing.T) {
	a := NewEstimator(&fakeTotals{}, 1000)

	text := strings.Repeat("hello ", 20) // 120 chars
	if got := a.Count(text); got != 30 {
		t.Errorf("Count = %d, want 30", got)
	}
}

func TestCountNeverNegative(t *testing.T) {
	a := NewAccountant(&fakeTotals{}, 1000)

	for _, text := range []string{"", "hi", "a longer message with several words", "日本語テキスト"} {
		if got := a.Count(text); got < 0 {
			t.Errorf("Count(%q) = %d, want >= 0", text, got)
		}
	}
}

func TestCeilingDefaults(t *testing.T) {
	if got := NewEstimator(&fakeTotals{}, 0).Ceiling(); got != DefaultCeiling {
		t.Errorf("Ceiling = %d, want default %d", got, DefaultCeiling)
	}
	if got := NewEstimator(&fakeTotals{}, -5).Ceiling(); got != DefaultCeiling {
		t.Errorf("Ceiling = %d, want default %d", got, DefaultCeiling)
	}
	if got := NewEstimator(&fakeTotals{}, 123).Ceiling(); got != 123 {
		t.Errorf("Ceiling = %d, want 123", got)
	}
}

func TestRemainingBudget(t *testing.T) {
	a := NewEstimator(&fakeTotals{total: 300}, 1000)

	remaining, err := a.RemainingBudget(context.Background(), "g1", "c1")
	if err != nil {
		t.Fatalf("RemainingBudget failed: %v", err)
	}
	if remaining != 700 {
		t.Errorf("RemainingBudget = %d, want 700", remaining)
	}
}
