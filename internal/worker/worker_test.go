package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

type fakeRenewer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRenewer) Renew(_ context.Context, subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, subscriptionID)
	return f.err
}

func (f *fakeRenewer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePruner struct {
	mu      sync.Mutex
	days    []int
	deleted int64
	err     error
}

func (f *fakePruner) PruneHistory(_ context.Context, retentionDays int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.days = append(f.days, retentionDays)
	return f.deleted, f.err
}

func (f *fakePruner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.days)
}

func TestRenewalWorker_RenewsOnTick(t *testing.T) {
	renewer := &fakeRenewer{}
	w := NewRenewalWorker(renewer, "sub-1", RenewalWorkerConfig{Interval: 10 * time.Millisecond}, testLogger())

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return renewer.callCount() >= 2 })

	renewer.mu.Lock()
	defer renewer.mu.Unlock()
	if renewer.calls[0] != "sub-1" {
		t.Errorf("renewed subscription = %q, want sub-1", renewer.calls[0])
	}
}

func TestRenewalWorker_WaitsFullIntervalFirst(t *testing.T) {
	renewer := &fakeRenewer{}
	w := NewRenewalWorker(renewer, "sub-1", RenewalWorkerConfig{Interval: time.Hour}, testLogger())

	w.Start(context.Background())
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := renewer.callCount(); got != 0 {
		t.Errorf("renewals before first interval = %d, want 0", got)
	}
}

func TestRenewalWorker_ContinuesAfterError(t *testing.T) {
	renewer := &fakeRenewer{err: errors.New("subscription expired")}
	w := NewRenewalWorker(renewer, "sub-1", RenewalWorkerConfig{Interval: 10 * time.Millisecond}, testLogger())

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return renewer.callCount() >= 3 })
}

func TestRenewalWorker_StopsOnContextCancel(t *testing.T) {
	renewer := &fakeRenewer{}
	w := NewRenewalWorker(renewer, "sub-1", RenewalWorkerConfig{Interval: 10 * time.Millisecond}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	waitFor(t, func() bool { return renewer.callCount() >= 1 })
	cancel()

	time.Sleep(30 * time.Millisecond)
	count := renewer.callCount()
	time.Sleep(50 * time.Millisecond)
	if got := renewer.callCount(); got > count+1 {
		t.Errorf("renewals continued after cancel: %d -> %d", count, got)
	}
}

func TestRetentionWorker_RunsImmediately(t *testing.T) {
	pruner := &fakePruner{deleted: 17}
	w := NewRetentionWorker(pruner, RetentionWorkerConfig{Interval: time.Hour, RetentionDays: 90}, testLogger())

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return pruner.callCount() >= 1 })

	pruner.mu.Lock()
	defer pruner.mu.Unlock()
	if pruner.days[0] != 90 {
		t.Errorf("retention days = %d, want 90", pruner.days[0])
	}
}

func TestRetentionWorker_ContinuesAfterError(t *testing.T) {
	pruner := &fakePruner{err: errors.New("deadlock detected")}
	w := NewRetentionWorker(pruner, RetentionWorkerConfig{Interval: 10 * time.Millisecond, RetentionDays: 30}, testLogger())

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return pruner.callCount() >= 3 })
}

func TestDefaultConfigs(t *testing.T) {
	renewal := DefaultRenewalWorkerConfig()
	if renewal.Interval != 30*time.Minute {
		t.Errorf("renewal interval = %v, want 30m", renewal.Interval)
	}

	retention := DefaultRetentionWorkerConfig()
	if retention.Interval != 24*time.Hour {
		t.Errorf("retention interval = %v, want 24h", retention.Interval)
	}
	if retention.RetentionDays != 90 {
		t.Errorf("retention days = %d, want 90", retention.RetentionDays)
	}
}
