package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corenet-ops/nsp-faultmon/internal/nsp"
	"github.com/corenet-ops/nsp-faultmon/internal/worker"
	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// Consumer is the bus poll loop the supervisor runs.
type Consumer interface {
	Run(ctx context.Context) error
	Close() error
}

// ConsumerFactory builds the bus consumer once the subscription's topic
// is known; the topic id only exists after the subscription is created.
type ConsumerFactory interface {
	NewConsumer(topicID string) (Consumer, error)
}

// SubscriptionManager is the NSP subscription surface.
type SubscriptionManager interface {
	Create(ctx context.Context) (*nsp.Subscription, error)
	Renew(ctx context.Context, subscriptionID string) error
	Delete(ctx context.Context, subscriptionID string) error
}

// TokenRevoker invalidates the NSP access token on shutdown.
type TokenRevoker interface {
	Revoke(ctx context.Context) error
}

// HealthListener serves the health endpoints until its context ends.
type HealthListener interface {
	ListenAndServe(ctx context.Context) error
}

// Counters exposes the processor's message counters for the heartbeat.
type Counters interface {
	Snapshot() types.PipelineStats
}

// SupervisorConfig holds the lifecycle timings.
type SupervisorConfig struct {
	RenewalInterval   time.Duration
	RetentionInterval time.Duration
	RetentionDays     int
	HeartbeatInterval time.Duration

	// TeardownTimeout bounds the best-effort NSP cleanup calls.
	TeardownTimeout time.Duration
}

// DefaultSupervisorConfig returns sensible defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		RenewalInterval:   30 * time.Minute,
		RetentionInterval: 24 * time.Hour,
		RetentionDays:     90,
		HeartbeatInterval: 60 * time.Second,
		TeardownTimeout:   10 * time.Second,
	}
}

// SupervisorDeps carries the components the supervisor orchestrates.
// Counters and Health may be nil.
type SupervisorDeps struct {
	Consumers ConsumerFactory
	Subs      SubscriptionManager
	Tokens    TokenRevoker
	Pruner    worker.HistoryPruner
	Counters  Counters
	Health    HealthListener
}

// Supervisor owns the pipeline lifecycle: create the subscription, run
// the consumer and background workers, and on any exit tear everything
// down exactly once in order. Teardown stops intake first, then deletes
// the subscription, then revokes the token; the NSP calls are best
// effort so a failed delete never blocks revocation.
type Supervisor struct {
	cfg    SupervisorConfig
	deps   SupervisorDeps
	logger *slog.Logger

	teardownOnce sync.Once
}

// NewSupervisor creates a supervisor.
func NewSupervisor(cfg SupervisorConfig, deps SupervisorDeps, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "supervisor"),
	}
}

// Run blocks until ctx is canceled or a component fails. The returned
// error is nil on a clean signal-driven shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	sub, err := s.deps.Subs.Create(ctx)
	if err != nil {
		// The session token was already issued, revoke it so a failed
		// start leaves nothing behind on the server.
		s.revokeToken()
		return fmt.Errorf("creating subscription: %w", err)
	}
	s.logger.Info("pipeline starting",
		"subscription_id", sub.ID,
		"topic", sub.TopicID)

	consumer, err := s.deps.Consumers.NewConsumer(sub.TopicID)
	if err != nil {
		// Undo the registration so a failed start leaves nothing behind.
		s.deleteSubscription(sub.ID)
		s.revokeToken()
		return fmt.Errorf("building consumer: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	renewal := worker.NewRenewalWorker(s.deps.Subs, sub.ID,
		worker.RenewalWorkerConfig{Interval: s.cfg.RenewalInterval}, s.logger)
	renewal.Start(runCtx)

	retention := worker.NewRetentionWorker(s.deps.Pruner,
		worker.RetentionWorkerConfig{
			Interval:      s.cfg.RetentionInterval,
			RetentionDays: s.cfg.RetentionDays,
		}, s.logger)
	retention.Start(runCtx)

	errCh := make(chan error, 1)
	if s.deps.Health != nil {
		go func() {
			if err := s.deps.Health.ListenAndServe(runCtx); err != nil {
				errCh <- fmt.Errorf("health listener: %w", err)
			}
		}()
	}

	if s.deps.Counters != nil && s.cfg.HeartbeatInterval > 0 {
		go s.heartbeat(runCtx)
	}

	consumerErr := make(chan error, 1)
	go func() { consumerErr <- consumer.Run(runCtx) }()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-consumerErr:
		if err != nil {
			runErr = fmt.Errorf("consumer: %w", err)
		} else {
			s.logger.Info("consumer finished")
		}
	case err := <-errCh:
		runErr = err
	}

	s.teardown(cancel, consumer, renewal, retention, sub.ID)
	return runErr
}

func (s *Supervisor) teardown(cancel context.CancelFunc, consumer Consumer, renewal *worker.RenewalWorker, retention *worker.RetentionWorker, subscriptionID string) {
	s.teardownOnce.Do(func() {
		s.logger.Info("tearing down pipeline")

		// Stop intake first so nothing below still needs the session.
		cancel()
		renewal.Stop()
		retention.Stop()
		if err := consumer.Close(); err != nil {
			s.logger.Warn("consumer close failed", "error", err)
		}

		s.deleteSubscription(subscriptionID)
		s.revokeToken()

		s.logger.Info("pipeline teardown complete")
	})
}

func (s *Supervisor) deleteSubscription(subscriptionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TeardownTimeout)
	defer cancel()

	if err := s.deps.Subs.Delete(ctx, subscriptionID); err != nil {
		s.logger.Warn("subscription delete failed",
			"subscription_id", subscriptionID,
			"error", err)
	}
}

func (s *Supervisor) revokeToken() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TeardownTimeout)
	defer cancel()

	if err := s.deps.Tokens.Revoke(ctx); err != nil {
		s.logger.Warn("token revocation failed", "error", err)
	}
}

func (s *Supervisor) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.deps.Counters.Snapshot()
			s.logger.Info("heartbeat",
				"received", stats.Received,
				"kept", stats.Kept,
				"dropped", stats.Dropped,
				"errors", stats.Errors)
		}
	}
}
