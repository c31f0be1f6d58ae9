package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"nebula/pkg/logger"
)

const (
	// MaxMessageLength is Discord's character limit per message.
	MaxMessageLength = 2000

	// ContinuationMarker prefixes every chunk after the first.
	ContinuationMarker = "*(continued)*"
)

// Sender delivers text to Discord channels, splitting messages that
// exceed the platform limit.
type Sender struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewSender creates a sender over a Discord session.
func NewSender(session *discordgo.Session) *Sender {
	return &Sender{
		session: session,
		logger:  logger.Get(),
	}
}

// SendMessage sends text to a channel, chunked when needed. Chunks are
// sent in order; a failed chunk stops the sequence.
func (s *Sender) SendMessage(channelID, text string) error {
	chunks := SplitMessage(text, MaxMessageLength)
	for i, chunk := range chunks {
		if _, err := s.session.ChannelMessageSend(channelID, chunk); err != nil {
			s.logger.Error("Failed to send message chunk",
				zap.String("channel_id", channelID),
				zap.Int("chunk", i+1),
				zap.Int("total_chunks", len(chunks)),
				zap.Error(err),
			)
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
		// Brief pause between chunks to stay under rate limits.
		if i < len(chunks)-1 {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return nil
}

// SplitMessage splits text into chunks of at most limit characters,
// breaking only at line boundaries. Every chunk after the first is
// prefixed with the continuation marker. Joining the chunk bodies
// (markers removed) with newlines reproduces the input exactly, except
// when a single line exceeds a whole chunk and has to be cut.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	contBudget := limit - len(ContinuationMarker) - 1

	var bodies []string
	var curLines []string
	curLen := 0
	budget := limit // first chunk carries no marker

	flush := func() {
		bodies = append(bodies, strings.Join(curLines, "\n"))
		curLines = nil
		curLen = 0
		budget = contBudget
	}

	for _, line := range strings.Split(text, "\n") {
		if len(curLines) > 0 && curLen+1+len(line) > budget {
			flush()
		}
		// A line longer than a whole chunk cannot be split at a line
		// boundary; cut it as a last resort.
		for len(line) > budget {
			bodies = append(bodies, line[:budget])
			line = line[budget:]
			budget = contBudget
		}
		curLines = append(curLines, line)
		if len(curLines) == 1 {
			curLen = len(line)
		} else {
			curLen += 1 + len(line)
		}
	}
	if len(curLines) > 0 {
		flush()
	}

	chunks := make([]string, len(bodies))
	for i, body := range bodies {
		if i == 0 {
			chunks[i] = body
		} else {
			chunks[i] = ContinuationMarker + "\n" + body
		}
	}
	return chunks
}
