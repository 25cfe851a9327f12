package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/marketlens/brandscope-backend/internal/corrections"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/services"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type WorkerConfig struct {
	PollInterval time.Duration
	// StaleRunning is how long a running run may hold its lock before
	// another worker may reclaim it (crashed-worker recovery).
	StaleRunning time.Duration
	// ExpireInterval paces the suggestion retention sweep.
	ExpireInterval time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:   2 * time.Second,
		StaleRunning:   10 * time.Minute,
		ExpireInterval: 1 * time.Hour,
	}
}

// Worker claims sealed runs and drives them through the consolidation
// service, one at a time per worker. Multiple workers coexist safely via
// the claim protocol.
type Worker struct {
	log     *logger.Logger
	runs    repos.ConsolidationRunRepo
	service *services.ConsolidationService
	engine  *corrections.Engine
	cfg     WorkerConfig
}

func NewWorker(baseLog *logger.Logger, runs repos.ConsolidationRunRepo, service *services.ConsolidationService, engine *corrections.Engine, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultWorkerConfig().PollInterval
	}
	if cfg.StaleRunning <= 0 {
		cfg.StaleRunning = DefaultWorkerConfig().StaleRunning
	}
	if cfg.ExpireInterval <= 0 {
		cfg.ExpireInterval = DefaultWorkerConfig().ExpireInterval
	}
	return &Worker{
		log:     baseLog.With("component", "ConsolidationWorker"),
		runs:    runs,
		service: service,
		engine:  engine,
		cfg:     cfg,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go w.claimLoop(ctx)
	go w.expireLoop(ctx)
}

func (w *Worker) claimLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run, err := w.runs.ClaimNextRunnable(ctx, nil, w.cfg.StaleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "error", err)
				continue
			}
			if run == nil {
				continue
			}
			w.process(ctx, run)
		}
	}
}

func (w *Worker) process(ctx context.Context, run *types.ConsolidationRun) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Run processing panic", "run_id", run.ID, "panic", r)
			_ = w.runs.SetStatus(ctx, nil, run.ID, types.RunStatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()
	if err := w.service.ProcessRun(ctx, run); err != nil {
		w.log.Error("Run processing failed", "run_id", run.ID, "error", err)
	}
}

func (w *Worker) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ExpireInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.engine.ExpireStale(ctx); err != nil {
				w.log.Warn("Suggestion expiry sweep failed", "error", err)
			}
		}
	}
}
