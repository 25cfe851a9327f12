package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/marketlens/brandscope-backend/internal/config"
	"github.com/marketlens/brandscope-backend/internal/consolidate"
	"github.com/marketlens/brandscope-backend/internal/corrections"
	"github.com/marketlens/brandscope-backend/internal/crosslingual"
	"github.com/marketlens/brandscope-backend/internal/gate"
	"github.com/marketlens/brandscope-backend/internal/judge"
	"github.com/marketlens/brandscope-backend/internal/knowledge"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/normalize"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// ConsolidationService runs the end-of-job pipeline for one sealed run:
// snapshot, merge, cross-lingual audit, relevance gate, judge audit,
// confidence-gated corrections. One run is processed by one worker at a
// time; the claim protocol in the run repo guarantees it.
type ConsolidationService struct {
	log        *logger.Logger
	cal        *config.Calibration
	runs       repos.ConsolidationRunRepo
	candidates repos.CandidateRepo
	entities   repos.CanonicalEntityRepo
	rejected   repos.RejectedEntityRepo
	loader     *knowledge.Loader
	embedder   consolidate.Embedder
	auditor    judge.Judge
	engine     *corrections.Engine
}

func NewConsolidationService(
	baseLog *logger.Logger,
	cal *config.Calibration,
	runs repos.ConsolidationRunRepo,
	candidates repos.CandidateRepo,
	entities repos.CanonicalEntityRepo,
	rejected repos.RejectedEntityRepo,
	loader *knowledge.Loader,
	embedder consolidate.Embedder,
	auditor judge.Judge,
	engine *corrections.Engine,
) *ConsolidationService {
	return &ConsolidationService{
		log:        baseLog.With("service", "ConsolidationService"),
		cal:        cal,
		runs:       runs,
		candidates: candidates,
		entities:   entities,
		rejected:   rejected,
		loader:     loader,
		embedder:   embedder,
		auditor:    auditor,
		engine:     engine,
	}
}

// ProcessRun executes the full pipeline for a claimed run. Judge outage is
// survivable: the run still completes with consolidated entities and zero
// corrections. Everything before the judge is mandatory.
func (s *ConsolidationService) ProcessRun(ctx context.Context, run *types.ConsolidationRun) error {
	log := s.log.With("run_id", run.ID, "vertical", run.VerticalName)

	candidates, err := s.candidates.ListByRun(ctx, nil, run.ID)
	if err != nil {
		return s.fail(ctx, run, fmt.Errorf("list candidates: %w", err))
	}
	run.CandidateCount = len(candidates)

	snapshot, err := s.loader.Load(ctx, run.VerticalID, s.cal.Knowledge.ExemplarLimit)
	if err != nil {
		return s.fail(ctx, run, fmt.Errorf("load knowledge snapshot: %w", err))
	}

	canonCfg := consolidate.Config{
		EmbedSimilarityThreshold: s.cal.Consolidate.EmbedSimilarityThreshold,
		EmbedTimeout:             s.cal.EmbedTimeout(),
		EmbedConcurrency:         s.cal.Consolidate.EmbedConcurrency,
		MaxEmbedPairs:            s.cal.Consolidate.MaxEmbedPairs,
	}
	canonicalizer := consolidate.NewCanonicalizer(s.log, snapshot, s.embedder, canonCfg)
	merged, err := canonicalizer.Consolidate(ctx, candidates)
	if err != nil {
		return s.fail(ctx, run, fmt.Errorf("consolidate: %w", err))
	}
	run.EntityCount = len(merged)

	crosslingual.NewChecker(s.log, snapshot).Check(merged)

	g := gate.New(s.log, snapshot, gate.Config{
		ProximityWindow: s.cal.Gate.ProximityWindow,
		SeedKeywords:    s.cal.SeedKeywords(run.VerticalName),
	})
	decisions := g.Evaluate(merged)
	accepted := make(map[*consolidate.Entity]bool, len(decisions))
	for _, d := range decisions {
		accepted[d.Entity] = d.Accepted
		if d.Accepted {
			run.AcceptedCount++
			continue
		}
		if err := s.recordRejection(ctx, run, d); err != nil {
			log.Warn("Failed to record rejection", "label", d.Entity.Label, "error", err)
		}
	}

	if err := s.persistEntities(ctx, run, merged, accepted); err != nil {
		return s.fail(ctx, run, fmt.Errorf("persist entities: %w", err))
	}

	if err := s.audit(ctx, run, snapshot, merged, accepted); err != nil {
		if ctx.Err() != nil {
			return s.fail(ctx, run, err)
		}
		// Degraded completion: entities stand, corrections wait for the
		// next run over this vertical.
		log.Warn("Judge audit unavailable, completing without corrections", "error", err)
	}

	if err := s.runs.SaveCounts(ctx, nil, run); err != nil {
		log.Warn("Failed to save run counts", "error", err)
	}
	if err := s.runs.SetStatus(ctx, nil, run.ID, types.RunStatusCompleted, ""); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	log.Info("Run completed",
		"candidates", run.CandidateCount,
		"entities", run.EntityCount,
		"accepted", run.AcceptedCount,
		"auto_applied", run.AutoAppliedCount,
		"pending_review", run.PendingReviewCnt)
	return nil
}

func (s *ConsolidationService) fail(ctx context.Context, run *types.ConsolidationRun, err error) error {
	if serr := s.runs.SetStatus(ctx, nil, run.ID, types.RunStatusFailed, err.Error()); serr != nil {
		s.log.Error("Failed to mark run failed", "run_id", run.ID, "error", serr)
	}
	return err
}

func (s *ConsolidationService) recordRejection(ctx context.Context, run *types.ConsolidationRun, d gate.Decision) error {
	return s.rejected.CreateIfAbsent(ctx, nil, &types.RejectedEntity{
		VerticalID:      run.VerticalID,
		EntityType:      d.Entity.EntityType,
		Name:            d.Entity.Label,
		RejectionReason: d.Reason,
		ExampleContext:  joinEvidence(d.Entity),
	})
}

// persistEntities replaces the run's entity rows wholesale so a reclaimed
// run never duplicates output.
func (s *ConsolidationService) persistEntities(ctx context.Context, run *types.ConsolidationRun, merged []*consolidate.Entity, accepted map[*consolidate.Entity]bool) error {
	if err := s.entities.DeleteByRun(ctx, nil, run.ID); err != nil {
		return err
	}
	rows := make([]*types.CanonicalEntity, 0, len(merged))
	for _, e := range merged {
		aliases, err := json.Marshal(e.Aliases)
		if err != nil {
			return err
		}
		memberIDs := make([]uuid.UUID, 0, len(e.Members))
		for _, m := range e.Members {
			memberIDs = append(memberIDs, m.ID)
		}
		members, err := json.Marshal(memberIDs)
		if err != nil {
			return err
		}
		rows = append(rows, &types.CanonicalEntity{
			RunID:              run.ID,
			VerticalID:         run.VerticalID,
			CanonicalLabel:     e.Label,
			EnglishLabel:       e.EnglishLabel,
			ChineseLabel:       e.ChineseLabel,
			EntityType:         e.EntityType,
			Aliases:            datatypes.JSON(aliases),
			MemberCandidateIDs: datatypes.JSON(members),
			RelevanceAccepted:  accepted[e],
			ReviewFlag:         e.ReviewFlag,
			MergeConfidence:    e.MergeConfidence,
		})
	}
	_, err := s.entities.CreateBatch(ctx, nil, rows)
	return err
}

func (s *ConsolidationService) audit(ctx context.Context, run *types.ConsolidationRun, snapshot *knowledge.Snapshot, merged []*consolidate.Entity, accepted map[*consolidate.Entity]bool) error {
	if s.auditor == nil {
		return nil
	}
	evidenceByRef := map[string]string{}
	batch := judge.Batch{
		VerticalID:   run.VerticalID,
		VerticalName: run.VerticalName,
		Exemplars:    snapshot.Exemplars(),
	}
	for _, e := range merged {
		if !accepted[e] {
			continue
		}
		ref := targetRef(e)
		evidence := joinEvidence(e)
		evidenceByRef[ref] = evidence
		batch.Entities = append(batch.Entities, judge.EntityReview{
			TargetRef:  ref,
			Label:      e.Label,
			EntityType: e.EntityType,
			Aliases:    e.Aliases,
			Evidence:   evidence,
		})
	}
	if len(batch.Entities) == 0 {
		return nil
	}

	suggestions, err := s.auditor.Evaluate(ctx, batch)
	if err != nil {
		return fmt.Errorf("judge: %w", err)
	}
	outcome, err := s.engine.Process(ctx, run.ID, run.VerticalID, suggestions, func(ref string) string {
		return evidenceByRef[ref]
	})
	run.AutoAppliedCount = outcome.AutoApplied
	run.PendingReviewCnt = outcome.PendingReview
	if err != nil {
		return fmt.Errorf("corrections: %w", err)
	}
	return nil
}

func targetRef(e *consolidate.Entity) string {
	return string(e.EntityType) + ":" + normalize.Key(e.Label)
}

func joinEvidence(e *consolidate.Entity) string {
	var parts []string
	seen := map[string]struct{}{}
	for _, m := range e.Members {
		snippet := strings.TrimSpace(m.EvidenceSnippet)
		if snippet == "" {
			continue
		}
		if _, ok := seen[snippet]; ok {
			continue
		}
		seen[snippet] = struct{}{}
		parts = append(parts, snippet)
	}
	return strings.Join(parts, "\n")
}
