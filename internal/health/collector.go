// Package health reports process and pipeline liveness.
//
// # Design
//
// A Collector samples process stats with gopsutil and reads pool and
// table counters from the store, caching the snapshot briefly so the
// status endpoint and the heartbeat log do not hammer the database.
// The Server exposes the snapshot over HTTP for probes and operators.
package health

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// StatusStore is the subset of the store the collector reads.
type StatusStore interface {
	Ping(ctx context.Context) error
	GetPoolStats() types.PoolStats
	CountActive(ctx context.Context) (int64, error)
	CountHistory(ctx context.Context) (int64, error)
}

// PipelineCounters exposes the processor's message counters.
type PipelineCounters interface {
	Snapshot() types.PipelineStats
}

// Collector gathers health metrics with caching.
type Collector struct {
	store    StatusStore
	counters PipelineCounters // may be nil when only the store is monitored

	startTime time.Time

	// Cached values with TTL
	mu            sync.RWMutex
	cachedHealth  *types.PipelineHealth
	cacheExpiry   time.Time
	cacheDuration time.Duration
}

// NewCollector creates a new health collector.
func NewCollector(store StatusStore, counters PipelineCounters) *Collector {
	return &Collector{
		store:         store,
		counters:      counters,
		startTime:     time.Now(),
		cacheDuration: 15 * time.Second,
	}
}

// GetPipelineHealth returns the current health snapshot. Results are
// cached for 15 seconds to avoid repeated database queries.
func (c *Collector) GetPipelineHealth(ctx context.Context) (*types.PipelineHealth, error) {
	c.mu.RLock()
	if c.cachedHealth != nil && time.Now().Before(c.cacheExpiry) {
		health := *c.cachedHealth
		c.mu.RUnlock()
		return &health, nil
	}
	c.mu.RUnlock()

	health := c.collectHealth(ctx)

	c.mu.Lock()
	c.cachedHealth = health
	c.cacheExpiry = time.Now().Add(c.cacheDuration)
	c.mu.Unlock()

	return health, nil
}

func (c *Collector) collectHealth(ctx context.Context) *types.PipelineHealth {
	health := &types.PipelineHealth{
		Timestamp: time.Now(),
	}

	// Process metrics are always available
	health.Runtime = c.collectRuntimeHealth()

	dbHealth, err := c.collectDatabaseHealth(ctx)
	if err != nil {
		health.Database = types.DatabaseHealth{
			Status: "error",
		}
	} else {
		health.Database = *dbHealth
	}

	if c.counters != nil {
		health.Pipeline = c.counters.Snapshot()
	}

	return health
}

func (c *Collector) collectRuntimeHealth() types.RuntimeHealth {
	health := types.RuntimeHealth{
		Status:        "healthy",
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			health.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			health.MemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
		if memPct, err := proc.MemoryPercent(); err == nil {
			health.MemoryPercent = float64(memPct)
		}
	}

	if health.MemoryPercent > 90 || health.CPUPercent > 90 {
		health.Status = "degraded"
	}

	return health
}

func (c *Collector) collectDatabaseHealth(ctx context.Context) (*types.DatabaseHealth, error) {
	health := &types.DatabaseHealth{
		Status: "healthy",
	}

	// Pool stats are local, no query needed
	health.Pool = c.store.GetPoolStats()
	if health.Pool.AcquiredConnections >= health.Pool.MaxConnections-2 {
		health.Status = "degraded"
	}

	active, err := c.store.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	health.ActiveAlarms = active

	history, err := c.store.CountHistory(ctx)
	if err != nil {
		return nil, err
	}
	health.HistoryAlarms = history

	return health, nil
}
