package discord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortTextUnchanged(t *testing.T) {
	chunks := SplitMessage("hello world", MaxMessageLength)
	require.Equal(t, []string{"hello world"}, chunks)
}

func TestSplitMessageExactLimitUnchanged(t *testing.T) {
	text := strings.Repeat("a", MaxMessageLength)
	chunks := SplitMessage(text, MaxMessageLength)
	require.Equal(t, []string{text}, chunks)
}

func TestSplitMessageRespectsLimitAndMarkers(t *testing.T) {
	var lines []string
	for i := 0; i < 90; i++ {
		lines = append(lines, strings.Repeat("x", 50))
	}
	text := strings.Join(lines, "\n") // 4590 chars

	chunks := SplitMessage(text, MaxMessageLength)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), MaxMessageLength, "chunk %d over limit", i)
		if i > 0 {
			require.True(t, strings.HasPrefix(chunk, ContinuationMarker+"\n"), "chunk %d missing marker", i)
		}
	}
}

func TestSplitMessageRoundTrip(t *testing.T) {
	var lines []string
	for i := 0; i < 90; i++ {
		lines = append(lines, strings.Repeat("y", 45))
	}
	// Include empty lines and short lines to exercise joining
	lines = append(lines, "", "last line")
	text := strings.Join(lines, "\n")

	chunks := SplitMessage(text, MaxMessageLength)

	bodies := make([]string, len(chunks))
	for i, chunk := range chunks {
		if i == 0 {
			bodies[i] = chunk
		} else {
			bodies[i] = strings.TrimPrefix(chunk, ContinuationMarker+"\n")
		}
	}
	require.Equal(t, text, strings.Join(bodies, "\n"), "joined chunk bodies must reproduce the input")
}

func TestSplitMessageBreaksAtLineBoundaries(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, "line content here")
	}
	text := strings.Join(lines, "\n")

	for _, chunk := range SplitMessage(text, MaxMessageLength) {
		body := strings.TrimPrefix(chunk, ContinuationMarker+"\n")
		for _, line := range strings.Split(body, "\n") {
			require.Contains(t, []string{"line content here", ""}, line)
		}
	}
}

func TestSplitMessageHardSplitsOversizedLine(t *testing.T) {
	text := strings.Repeat("z", 5000) // single line, no break points

	chunks := SplitMessage(text, MaxMessageLength)
	require.Greater(t, len(chunks), 1)

	var rebuilt strings.Builder
	for i, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), MaxMessageLength, "chunk %d over limit", i)
		if i == 0 {
			rebuilt.WriteString(chunk)
		} else {
			rebuilt.WriteString(strings.TrimPrefix(chunk, ContinuationMarker+"\n"))
		}
	}
	require.Equal(t, text, rebuilt.String())
}
