package corrections

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// KnowledgeApplier commits accepted suggestions to the knowledge store.
// Satisfied by knowledge.Writer.
type KnowledgeApplier interface {
	ApplyBatch(ctx context.Context, verticalID uuid.UUID, suggestions []*types.CorrectionSuggestion, reviewer string) ([]*types.KnowledgeRecord, error)
}

// EvidenceFunc resolves the source text a suggestion was judged against,
// keyed by the suggestion's target reference. Returning "" fails the
// evidence containment check and routes the suggestion to review.
type EvidenceFunc func(targetRef string) string

// Outcome summarizes one processing pass.
type Outcome struct {
	AutoApplied   int
	PendingReview int
}

type EngineConfig struct {
	// BatchSize bounds one knowledge-store transaction. Cancellation is
	// honored between batches, never inside one.
	BatchSize int
	// Retention is how long unresolved suggestions stay actionable before
	// the expiry sweep closes them.
	Retention time.Duration
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BatchSize: 25,
		Retention: 14 * 24 * time.Hour,
	}
}

// Engine routes judge suggestions through the confidence gate: clear the bar
// and commit to the knowledge store, or park in pending_review for a human.
type Engine struct {
	log         *logger.Logger
	policy      *Policy
	suggestions repos.SuggestionRepo
	writer      KnowledgeApplier
	cfg         EngineConfig
}

func NewEngine(baseLog *logger.Logger, policy *Policy, suggestions repos.SuggestionRepo, writer KnowledgeApplier, cfg EngineConfig) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEngineConfig().BatchSize
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultEngineConfig().Retention
	}
	return &Engine{
		log:         baseLog.With("component", "CorrectionEngine"),
		policy:      policy,
		suggestions: suggestions,
		writer:      writer,
		cfg:         cfg,
	}
}

// Process persists the run's suggestions and drives each through the state
// machine. Auto-applies are committed in bounded transactional batches; a
// failed batch degrades to pending_review rather than failing the run.
// Cancellation between batches leaves the remainder proposed, to be picked
// up when the run is reclaimed.
func (e *Engine) Process(ctx context.Context, runID, verticalID uuid.UUID, suggestions []*types.CorrectionSuggestion, evidence EvidenceFunc) (Outcome, error) {
	var out Outcome
	if len(suggestions) == 0 {
		return out, nil
	}
	for _, s := range suggestions {
		s.RunID = runID
		s.VerticalID = verticalID
		s.State = types.SuggestionProposed
	}
	if _, err := e.suggestions.CreateBatch(ctx, nil, suggestions); err != nil {
		return out, fmt.Errorf("persist suggestions: %w", err)
	}

	var auto, review []*types.CorrectionSuggestion
	for _, s := range suggestions {
		sourceText := ""
		if evidence != nil {
			sourceText = evidence(s.TargetRef)
		}
		if e.policy.AutoApplicable(s, sourceText) {
			auto = append(auto, s)
		} else {
			review = append(review, s)
		}
	}

	for _, s := range review {
		if err := e.suggestions.UpdateState(ctx, nil, s.ID, types.SuggestionPendingReview, ""); err != nil {
			return out, fmt.Errorf("route to review: %w", err)
		}
		s.State = types.SuggestionPendingReview
		out.PendingReview++
	}

	for start := 0; start < len(auto); start += e.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			e.log.Warn("Processing cancelled between batches",
				"run_id", runID,
				"applied", out.AutoApplied,
				"remaining", len(auto)-start)
			return out, err
		}
		end := start + e.cfg.BatchSize
		if end > len(auto) {
			end = len(auto)
		}
		batch := auto[start:end]
		if _, err := e.writer.ApplyBatch(ctx, verticalID, batch, reviewerOf(batch[0])); err != nil {
			e.log.Error("Knowledge batch failed, routing batch to review",
				"run_id", runID,
				"batch_size", len(batch),
				"error", err)
			for _, s := range batch {
				if uerr := e.suggestions.UpdateState(ctx, nil, s.ID, types.SuggestionPendingReview, ""); uerr != nil {
					return out, fmt.Errorf("route failed batch to review: %w", uerr)
				}
				s.State = types.SuggestionPendingReview
				out.PendingReview++
			}
			continue
		}
		for _, s := range batch {
			if err := e.suggestions.UpdateState(ctx, nil, s.ID, types.SuggestionAutoApplied, reviewerOf(s)); err != nil {
				return out, fmt.Errorf("mark auto-applied: %w", err)
			}
			s.State = types.SuggestionAutoApplied
			out.AutoApplied++
		}
	}

	e.log.Info("Suggestions processed",
		"run_id", runID,
		"total", len(suggestions),
		"auto_applied", out.AutoApplied,
		"pending_review", out.PendingReview)
	return out, nil
}

// reviewerOf attributes an auto-apply to the judge model that proposed the
// suggestion. Suggestions that arrive unattributed fall back to "system".
func reviewerOf(s *types.CorrectionSuggestion) string {
	if s.Reviewer != "" {
		return s.Reviewer
	}
	return "system"
}

// ExpireStale closes suggestions that sat unresolved past the retention
// window. Expired suggestions stay queryable for audit.
func (e *Engine) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-e.cfg.Retention)
	n, err := e.suggestions.ExpireOlderThan(ctx, nil, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Info("Expired stale suggestions", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
