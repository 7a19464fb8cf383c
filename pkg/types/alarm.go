// Package types defines the core domain types shared between the ingest
// pipeline, the alarm store, and the operator CLI.
//
// # Design Principles
//
// 1. Canonical schema: vendor camelCase payloads are projected once into
//    snake_case records; everything downstream speaks this schema
// 2. Serialization: records are stored verbatim as JSONB, so the field
//    tags here are the storage contract
// 3. Closed enums: severity and event type are closed string enums;
//    out-of-set inputs round-trip through an unknown variant instead of
//    failing
package types

import (
	"strings"
	"time"
)

// =============================================================================
// EVENT TYPE
// =============================================================================

// EventType identifies the notification kind carried on the fault topic.
// The value is the notification key with its vendor prefix stripped.
type EventType string

const (
	EventTypeAlarmCreate EventType = "alarm-create"
	EventTypeAlarmChange EventType = "alarm-change"
	EventTypeAlarmDelete EventType = "alarm-delete"
	// EventTypeUnknown names the variant for values outside the closed set.
	// Records keep the raw value so logs show what the upstream sent.
	EventTypeUnknown EventType = "unknown"
)

// Known reports whether e is one of the event kinds the lifecycle handles.
func (e EventType) Known() bool {
	switch e {
	case EventTypeAlarmCreate, EventTypeAlarmChange, EventTypeAlarmDelete:
		return true
	}
	return false
}

// =============================================================================
// CANONICAL ALARM
// =============================================================================

// CanonicalAlarm is the normalized alarm record flowing through the
// pipeline. It is stored as the JSONB payload of both the active and the
// history tables, keyed by AlarmID.
type CanonicalAlarm struct {
	EventType EventType `json:"event_type"`
	EventTime string    `json:"event_time,omitempty"`

	// AlarmID is the upstream's opaque unique key for the alarm.
	AlarmID string `json:"alarm_id"`

	AlarmName       string `json:"alarm_name,omitempty"`
	SpecificProblem string `json:"specific_problem,omitempty"`
	ProbableCause   string `json:"probable_cause,omitempty"`

	// Network element identity
	NEName string `json:"ne_name,omitempty"`
	NEID   string `json:"ne_id,omitempty"`
	Source string `json:"source,omitempty"`

	// SeverityRaw preserves the vendor value exactly as received; Severity
	// is the mapped enum the filter and the store operate on.
	SeverityRaw any      `json:"severity_raw,omitempty"`
	Severity    Severity `json:"severity"`

	AffectedObject     string `json:"affected_object,omitempty"`
	AffectedObjectName string `json:"affected_object_name,omitempty"`
	ObjectType         string `json:"object_type,omitempty"`

	// ObjectDetails is derived from AffectedObject at normalization time.
	ObjectDetails ObjectDetails `json:"object_details"`

	// Detection timestamps, ISO 8601 in the configured zone. Null when the
	// upstream value could not be parsed.
	FirstDetected *string `json:"first_detected"`
	LastDetected  *string `json:"last_detected"`

	Acknowledged      bool  `json:"acknowledged"`
	ServiceAffecting  *bool `json:"service_affecting,omitempty"`
	ImplicitlyCleared bool  `json:"implicitly_cleared"`
}

// FirstDetectedTime parses FirstDetected; ok is false when the field is
// null or unparseable.
func (a *CanonicalAlarm) FirstDetectedTime() (time.Time, bool) {
	if a.FirstDetected == nil {
		return time.Time{}, false
	}
	return ParseTime(*a.FirstDetected)
}

// LastDetectedTime parses LastDetected; ok is false when the field is
// null or unparseable.
func (a *CanonicalAlarm) LastDetectedTime() (time.Time, bool) {
	if a.LastDetected == nil {
		return time.Time{}, false
	}
	return ParseTime(*a.LastDetected)
}

// =============================================================================
// OBJECT DETAILS
// =============================================================================

// ObjectDetails carries the shelf/slot/port segments extracted from the
// compound affected-object identifier. Each value is the whole matching
// segment, not just the numeric part.
type ObjectDetails struct {
	Shelf string `json:"shelf,omitempty"`
	Slot  string `json:"slot,omitempty"`
	Port  string `json:"port,omitempty"`
}

// ParseObjectDetails splits a compound affected-object string on ":" and
// records each segment beginning with shelf, slot, or port under that
// key. The last occurrence of a prefix wins. Empty input yields the zero
// value.
func ParseObjectDetails(affectedObject string) ObjectDetails {
	var d ObjectDetails
	if affectedObject == "" {
		return d
	}
	for _, seg := range strings.Split(affectedObject, ":") {
		switch {
		case strings.HasPrefix(seg, "shelf"):
			d.Shelf = seg
		case strings.HasPrefix(seg, "slot"):
			d.Slot = seg
		case strings.HasPrefix(seg, "port"):
			d.Port = seg
		}
	}
	return d
}

// =============================================================================
// CORRELATION VOCABULARY
// =============================================================================

// Well-known alarm names and object types shared by the correlation rules
// and the store queries that feed them.
const (
	AlarmNamePowerIssue              = "Power Issue"
	AlarmNameLossOfSignalOCH         = "Loss of signal - OCH"
	AlarmNamePowerAdjustmentRequired = "Power Adjustment Required"
	AlarmNamePowerAdjustmentFailure  = "Power Adjustment Failure"
	AlarmNameTransportFailure        = "Transport Failure"
	AlarmNameOPSProtectionLoss       = "OPS Protection Loss of Redundancy"

	ObjectTypePhysicalConnection = "PHYSICALCONNECTION"
	ObjectTypeTerminationPoint   = "TP"
)

// Child alarm name sets. Power children are suppressed under an active
// power-issue root, LOS children under an active loss-of-signal root.
var (
	PowerChildAlarmNames = []string{AlarmNamePowerAdjustmentRequired, AlarmNamePowerAdjustmentFailure}
	LOSChildAlarmNames   = []string{AlarmNameTransportFailure, AlarmNameOPSProtectionLoss}
)

// RootAlarmNames lists the root-cause alarm names, for display filters
// that hide or isolate correlated alarms.
var RootAlarmNames = []string{AlarmNamePowerIssue, AlarmNameLossOfSignalOCH}

// ChildAlarmNames is the union of both child sets. Display filters use it
// to select only alarms that correlation would attribute to a root.
var ChildAlarmNames = []string{
	AlarmNamePowerAdjustmentRequired,
	AlarmNamePowerAdjustmentFailure,
	AlarmNameTransportFailure,
	AlarmNameOPSProtectionLoss,
}

// =============================================================================
// TIME PARSING
// =============================================================================

// isoLayouts covers the timestamp shapes seen on records and in stored
// payloads: RFC 3339 with or without fractional seconds, and zone-less
// ISO 8601 (treated as UTC).
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTime parses an ISO 8601 timestamp as carried on alarm records.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
