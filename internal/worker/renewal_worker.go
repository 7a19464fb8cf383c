// Package worker provides background workers for the pipeline.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Renewer renews an NSP notification subscription.
type Renewer interface {
	Renew(ctx context.Context, subscriptionID string) error
}

// RenewalWorkerConfig holds configuration for the renewal worker.
type RenewalWorkerConfig struct {
	// Interval between renewals. NSP expires subscriptions after an
	// hour, so renewals run at half that.
	Interval time.Duration
}

// DefaultRenewalWorkerConfig returns sensible defaults.
func DefaultRenewalWorkerConfig() RenewalWorkerConfig {
	return RenewalWorkerConfig{
		Interval: 30 * time.Minute,
	}
}

// RenewalWorker keeps the NSP fault subscription alive.
type RenewalWorker struct {
	renewer        Renewer
	subscriptionID string
	config         RenewalWorkerConfig
	logger         *slog.Logger
	stopCh         chan struct{}
}

// NewRenewalWorker creates a new renewal worker.
func NewRenewalWorker(renewer Renewer, subscriptionID string, config RenewalWorkerConfig, logger *slog.Logger) *RenewalWorker {
	return &RenewalWorker{
		renewer:        renewer,
		subscriptionID: subscriptionID,
		config:         config,
		logger:         logger.With("component", "renewal_worker"),
		stopCh:         make(chan struct{}),
	}
}

// Start begins the worker in a goroutine.
func (w *RenewalWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the worker to stop.
func (w *RenewalWorker) Stop() {
	close(w.stopCh)
}

func (w *RenewalWorker) run(ctx context.Context) {
	w.logger.Info("renewal worker started",
		"subscription_id", w.subscriptionID,
		"interval", w.config.Interval,
	)

	// The subscription was just created, so the first renewal waits a
	// full interval.
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("renewal worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info("renewal worker stopping (stop signal)")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RenewalWorker) runOnce(ctx context.Context) {
	if err := w.renewer.Renew(ctx, w.subscriptionID); err != nil {
		// The subscription survives a missed renewal; the next tick
		// tries again.
		w.logger.Error("subscription renewal failed",
			"subscription_id", w.subscriptionID,
			"error", err,
		)
		return
	}

	w.logger.Debug("subscription renewed", "subscription_id", w.subscriptionID)
}
