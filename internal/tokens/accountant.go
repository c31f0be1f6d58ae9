// Package tokens provides token counting and the per-channel budget.
package tokens

import (
	"context"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"nebula/pkg/logger"
)

// DefaultCeiling is the default maximum cumulative token count
// retained per channel before a full history wipe.
const DefaultCeiling = 400000

// encodingName matches the tokenization used by current GPT-4 class models.
const encodingName = "cl100k_base"

// TotalsReader reads the running token total for a channel.
type TotalsReader interface {
	GetTotalTokens(ctx context.Context, guildID, channelID string) (int, error)
}

// Accountant counts tokens per message and tracks the per-channel budget.
type Accountant struct {
	enc     *tiktoken.Tiktoken
	totals  TotalsReader
	ceiling int
	logger  *zap.Logger
}

// NewAccountant creates an accountant using the tiktoken encoder.
// If the encoder cannot be initialized (e.g. no cached BPE data), the
// accountant degrades to the length/4 estimate instead of failing.
func NewAccountant(totals TotalsReader, ceiling int) *Accountant {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	log := logger.Get()

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		log.Warn("Tokenizer unavailable, falling back to length estimate",
			zap.String("encoding", encodingName),
			zap.Error(err),
		)
		enc = nil
	}

	return &Accountant{
		enc:     enc,
		totals:  totals,
		ceiling: ceiling,
		logger:  log,
	}
}

// NewEstimator creates an accountant that always uses the length/4
// estimate. Useful where deterministic counts matter more than accuracy.
func NewEstimator(totals TotalsReader, ceiling int) *Accountant {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Accountant{
		totals:  totals,
		ceiling: ceiling,
		logger:  logger.Get(),
	}
}

// Ceiling returns the configured token ceiling.
func (a *Accountant) Ceiling() int {
	return a.ceiling
}

// Count returns the token count for text. It never fails: any encoder
// problem degrades to EstimateTokens.
func (a *Accountant) Count(text string) (n int) {
	if a.enc == nil {
		return EstimateTokens(text)
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("Tokenizer panicked, using length estimate", zap.Any("cause", r))
			n = EstimateTokens(text)
		}
	}()
	return len(a.enc.Encode(text, nil, nil))
}

// RemainingBudget returns ceiling minus the channel's running total.
func (a *Accountant) RemainingBudget(ctx context.Context, guildID, channelID string) (int, error) {
	total, err := a.totals.GetTotalTokens(ctx, guildID, channelID)
	if err != nil {
		return 0, err
	}
	return a.ceiling - total, nil
}

// EstimateTokens estimates token count using the ~4 chars/token
// heuristic. Good enough for budget comparison, not billing-accurate.
func EstimateTokens(text string) int {
	return len(text) / 4
}
