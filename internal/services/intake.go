package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// IntakeService receives raw candidates from the extraction passes. A run
// accumulates candidates from any number of passes until it is sealed; a
// sealed run accepts no more and becomes claimable by the worker.
type IntakeService struct {
	log        *logger.Logger
	runs       repos.ConsolidationRunRepo
	candidates repos.CandidateRepo
}

func NewIntakeService(baseLog *logger.Logger, runs repos.ConsolidationRunRepo, candidates repos.CandidateRepo) *IntakeService {
	return &IntakeService{
		log:        baseLog.With("service", "IntakeService"),
		runs:       runs,
		candidates: candidates,
	}
}

func (s *IntakeService) CreateRun(ctx context.Context, verticalID uuid.UUID, verticalName string) (*types.ConsolidationRun, error) {
	if verticalID == uuid.Nil {
		return nil, fmt.Errorf("vertical_id required")
	}
	if verticalName == "" {
		return nil, fmt.Errorf("vertical_name required")
	}
	run, err := s.runs.Create(ctx, nil, &types.ConsolidationRun{
		VerticalID:   verticalID,
		VerticalName: verticalName,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Run created", "run_id", run.ID, "vertical", verticalName)
	return run, nil
}

// AddCandidates appends one extraction pass's output. Sealed runs refuse.
func (s *IntakeService) AddCandidates(ctx context.Context, runID uuid.UUID, candidates []*types.Candidate) ([]*types.Candidate, error) {
	run, err := s.runs.GetByID(ctx, nil, runID)
	if err != nil {
		return nil, err
	}
	if run.CandidatesSealed {
		return nil, fmt.Errorf("run %s is sealed", runID)
	}
	for _, c := range candidates {
		c.RunID = runID
		if c.EntityType != types.EntityTypeBrand && c.EntityType != types.EntityTypeProduct {
			return nil, fmt.Errorf("invalid entity_type %q", c.EntityType)
		}
	}
	created, err := s.candidates.CreateBatch(ctx, nil, candidates)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Candidates added", "run_id", runID, "count", len(created))
	return created, nil
}

// Seal closes intake. Consolidation starts only after this barrier so a
// slow extraction pass can never race the merge.
func (s *IntakeService) Seal(ctx context.Context, runID uuid.UUID) (*types.ConsolidationRun, error) {
	run, err := s.runs.GetByID(ctx, nil, runID)
	if err != nil {
		return nil, err
	}
	if !run.CandidatesSealed {
		if err := s.runs.SealCandidates(ctx, nil, runID); err != nil {
			return nil, err
		}
		run.CandidatesSealed = true
		s.log.Info("Run sealed", "run_id", runID)
	}
	return run, nil
}

// Cancel withdraws a run the worker has not claimed yet. Once a run is
// running or finished it can no longer be cancelled.
func (s *IntakeService) Cancel(ctx context.Context, runID uuid.UUID) (*types.ConsolidationRun, error) {
	if err := s.runs.Cancel(ctx, nil, runID); err != nil {
		return nil, err
	}
	s.log.Info("Run cancelled", "run_id", runID)
	return s.runs.GetByID(ctx, nil, runID)
}

func (s *IntakeService) GetRun(ctx context.Context, runID uuid.UUID) (*types.ConsolidationRun, error) {
	return s.runs.GetByID(ctx, nil, runID)
}
