package judge

import (
	"context"
	"fmt"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// Chain tries providers in order and returns the first successful verdict.
// A provider error is an availability problem, not a data problem, so the
// next provider gets the same batch untouched.
type Chain struct {
	log       *logger.Logger
	providers []Judge
}

func NewChain(baseLog *logger.Logger, providers ...Judge) *Chain {
	return &Chain{
		log:       baseLog.With("component", "JudgeChain"),
		providers: providers,
	}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Evaluate(ctx context.Context, batch Batch) ([]*types.CorrectionSuggestion, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("no judge providers configured")
	}
	var lastErr error
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		suggestions, err := provider.Evaluate(ctx, batch)
		if err == nil {
			return suggestions, nil
		}
		lastErr = err
		c.log.Warn("Judge provider failed, trying next",
			"provider", provider.Name(),
			"error", err)
	}
	return nil, fmt.Errorf("all judge providers failed: %w", lastErr)
}
