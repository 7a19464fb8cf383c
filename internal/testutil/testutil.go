// Package testutil provides testing utilities and fixtures for the
// alarm pipeline.
//
// # Usage
//
// Fixtures use functional options for customization:
//
//	alarm := testutil.FixtureAlarm()
//	alarm := testutil.FixtureAlarm(func(a *types.CanonicalAlarm) {
//		a.AlarmName = "Transport Failure"
//		a.NEName = "NE9"
//	})
package testutil

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// NewTestLogger returns a logger that discards all output.
// Use for tests where logging output is not needed.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// ALARM FIXTURES
// =============================================================================

// FixtureAlarm creates a canonical alarm-create record with sensible
// defaults. Use overrides to customize specific fields.
func FixtureAlarm(overrides ...func(*types.CanonicalAlarm)) *types.CanonicalAlarm {
	now := time.Now().UTC()
	alarm := &types.CanonicalAlarm{
		EventType:          types.EventTypeAlarmCreate,
		EventTime:          now.Format(time.RFC3339Nano),
		AlarmID:            "fdn:alarm:" + uuid.New().String()[:8],
		AlarmName:          "Loss of signal",
		SpecificProblem:    "LOS",
		ProbableCause:      "LOS",
		NEName:             "test-ne-" + uuid.New().String()[:8],
		NEID:               "10.0.0.1",
		Source:             "nfmt",
		SeverityRaw:        "major",
		Severity:           types.SeverityMajor,
		AffectedObject:     "shelf-1:slot-3:port-7",
		AffectedObjectName: "TestNE/OPS-1-3-A1,OCH,RCV",
		ObjectType:         "TP",
		ObjectDetails:      types.ObjectDetails{Shelf: "shelf-1", Slot: "slot-3", Port: "port-7"},
		FirstDetected:      Ptr(now.Add(-time.Minute).Format(time.RFC3339Nano)),
		LastDetected:       Ptr(now.Format(time.RFC3339Nano)),
	}

	for _, override := range overrides {
		override(alarm)
	}

	return alarm
}

// FixturePowerRoot creates an active power-issue root alarm.
func FixturePowerRoot(overrides ...func(*types.CanonicalAlarm)) *types.CanonicalAlarm {
	return FixtureAlarm(append([]func(*types.CanonicalAlarm){
		func(a *types.CanonicalAlarm) {
			a.AlarmName = types.AlarmNamePowerIssue
			a.ObjectType = types.ObjectTypePhysicalConnection
			a.Severity = types.SeverityMajor
			a.SeverityRaw = "major"
		},
	}, overrides...)...)
}

// FixtureLOSRoot creates an active critical loss-of-signal root alarm.
func FixtureLOSRoot(overrides ...func(*types.CanonicalAlarm)) *types.CanonicalAlarm {
	return FixtureAlarm(append([]func(*types.CanonicalAlarm){
		func(a *types.CanonicalAlarm) {
			a.AlarmName = types.AlarmNameLossOfSignalOCH
			a.Severity = types.SeverityCritical
			a.SeverityRaw = "critical"
		},
	}, overrides...)...)
}

// FixtureClearEvent creates the alarm-change event that retires the
// given alarm id. Clearing events carry no descriptive fields, matching
// what NSP emits.
func FixtureClearEvent(alarmID string, overrides ...func(*types.CanonicalAlarm)) *types.CanonicalAlarm {
	alarm := &types.CanonicalAlarm{
		EventType:   types.EventTypeAlarmChange,
		EventTime:   time.Now().UTC().Format(time.RFC3339Nano),
		AlarmID:     alarmID,
		SeverityRaw: map[string]any{"new-value": "cleared"},
		Severity:    types.SeverityClear,
	}

	for _, override := range overrides {
		override(alarm)
	}

	return alarm
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Ptr returns a pointer to the given value.
// Useful for setting optional fields in fixtures.
func Ptr[T any](v T) *T {
	return &v
}

// ISOTimeAgo returns an ISO 8601 timestamp the given duration in the
// past, the shape alarm detection timestamps carry.
func ISOTimeAgo(d time.Duration) string {
	return time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
}

// ISOTimeAgoPtr returns a pointer to an ISO 8601 timestamp in the past.
func ISOTimeAgoPtr(d time.Duration) *string {
	return Ptr(ISOTimeAgo(d))
}
