// Package worker provides background workers for the pipeline.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// HistoryPruner deletes aged history rows.
type HistoryPruner interface {
	PruneHistory(ctx context.Context, retentionDays int) (int64, error)
}

// RetentionWorkerConfig holds configuration for the retention worker.
type RetentionWorkerConfig struct {
	// Interval between retention passes.
	Interval time.Duration

	// RetentionDays is the age past which cleared alarms are deleted.
	RetentionDays int
}

// DefaultRetentionWorkerConfig returns sensible defaults.
func DefaultRetentionWorkerConfig() RetentionWorkerConfig {
	return RetentionWorkerConfig{
		Interval:      24 * time.Hour,
		RetentionDays: 90,
	}
}

// RetentionWorker prunes alarm history past the retention window.
type RetentionWorker struct {
	pruner HistoryPruner
	config RetentionWorkerConfig
	logger *slog.Logger
	stopCh chan struct{}
}

// NewRetentionWorker creates a new retention worker.
func NewRetentionWorker(pruner HistoryPruner, config RetentionWorkerConfig, logger *slog.Logger) *RetentionWorker {
	return &RetentionWorker{
		pruner: pruner,
		config: config,
		logger: logger.With("component", "retention_worker"),
		stopCh: make(chan struct{}),
	}
}

// Start begins the worker in a goroutine.
func (w *RetentionWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the worker to stop.
func (w *RetentionWorker) Stop() {
	close(w.stopCh)
}

func (w *RetentionWorker) run(ctx context.Context) {
	w.logger.Info("retention worker started",
		"interval", w.config.Interval,
		"retention_days", w.config.RetentionDays,
	)

	// Run immediately on start so restarts do not postpone cleanup
	w.runOnce(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info("retention worker stopping (stop signal)")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RetentionWorker) runOnce(ctx context.Context) {
	deleted, err := w.pruner.PruneHistory(ctx, w.config.RetentionDays)
	if err != nil {
		w.logger.Error("history retention pass failed", "error", err)
		return
	}

	if deleted > 0 {
		w.logger.Info("history retention pass complete",
			"deleted", deleted,
			"retention_days", w.config.RetentionDays,
		)
	} else {
		w.logger.Debug("history retention pass complete, nothing to delete")
	}
}
