// Package pipeline connects the bus consumer to the alarm store: decode,
// normalize, correlate, apply.
//
// # Error Policy
//
// Malformed messages can never become valid, so decode and normalize
// failures are logged, counted, and acknowledged. Store and context
// query failures are transient, so they propagate to the consumer,
// which leaves the offset uncommitted for redelivery.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/corenet-ops/nsp-faultmon/internal/filter"
	"github.com/corenet-ops/nsp-faultmon/internal/normalize"
	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// AlarmStore is the store surface the processor drives.
type AlarmStore interface {
	Apply(ctx context.Context, alarm *types.CanonicalAlarm) error
	GetActivePowerIssues(ctx context.Context) ([]types.CanonicalAlarm, error)
	GetActiveLOSRoots(ctx context.Context) ([]types.CanonicalAlarm, error)
}

// Processor handles one bus payload end to end.
type Processor struct {
	normalizer *normalize.Normalizer
	store      AlarmStore
	logger     *slog.Logger

	received      atomic.Uint64
	kept          atomic.Uint64
	dropped       atomic.Uint64
	errors        atomic.Uint64
	lastMessageAt atomic.Int64 // unix nanos, 0 until the first message
}

// NewProcessor wires the normalizer and store together.
func NewProcessor(normalizer *normalize.Normalizer, store AlarmStore, logger *slog.Logger) *Processor {
	return &Processor{
		normalizer: normalizer,
		store:      store,
		logger:     logger.With("component", "processor"),
	}
}

// Process decodes, normalizes, correlates and applies one payload. A
// returned error marks a transient failure the bus should redeliver.
func (p *Processor) Process(ctx context.Context, payload []byte) error {
	p.received.Add(1)
	p.lastMessageAt.Store(time.Now().UnixNano())

	var envelope map[string]any
	if err := json.Unmarshal(payload, &envelope); err != nil {
		p.errors.Add(1)
		p.logger.Error("discarding undecodable message", "error", err)
		return nil
	}

	alarm, err := p.normalizer.Normalize(envelope)
	if err != nil {
		p.errors.Add(1)
		p.logger.Error("discarding unnormalizable message", "error", err)
		return nil
	}

	// The root snapshot is read fresh for every message so a root that
	// arrived moments ago already suppresses its children.
	snap, err := p.activeRoots(ctx)
	if err != nil {
		p.errors.Add(1)
		return err
	}

	decision := filter.Decide(alarm, snap)
	if !decision.Keep {
		p.dropped.Add(1)
		p.logger.Debug("alarm dropped",
			"rule", decision.Rule,
			"alarm_id", alarm.AlarmID,
			"alarm_name", alarm.AlarmName,
			"ne_name", alarm.NEName)
		return nil
	}

	if err := p.store.Apply(ctx, alarm); err != nil {
		p.errors.Add(1)
		return fmt.Errorf("applying alarm %s: %w", alarm.AlarmID, err)
	}

	p.kept.Add(1)
	p.logger.Info("alarm processed",
		"alarm_id", alarm.AlarmID,
		"alarm_name", alarm.AlarmName,
		"ne_name", alarm.NEName,
		"severity", alarm.Severity,
		"event_type", alarm.EventType)
	return nil
}

func (p *Processor) activeRoots(ctx context.Context) (filter.Snapshot, error) {
	power, err := p.store.GetActivePowerIssues(ctx)
	if err != nil {
		return filter.Snapshot{}, fmt.Errorf("loading active power roots: %w", err)
	}

	los, err := p.store.GetActiveLOSRoots(ctx)
	if err != nil {
		return filter.Snapshot{}, fmt.Errorf("loading active LOS roots: %w", err)
	}

	return filter.Snapshot{PowerRoots: power, LOSRoots: los}, nil
}

// Snapshot returns the message counters since process start.
func (p *Processor) Snapshot() types.PipelineStats {
	stats := types.PipelineStats{
		Received: p.received.Load(),
		Kept:     p.kept.Load(),
		Dropped:  p.dropped.Load(),
		Errors:   p.errors.Load(),
	}
	if ns := p.lastMessageAt.Load(); ns > 0 {
		t := time.Unix(0, ns)
		stats.LastMessageAt = &t
	}
	return stats
}
