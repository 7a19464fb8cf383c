// Package normalize projects raw notification envelopes from the fault
// topic into canonical alarm records.
//
// Projection is pure and total over its input: unknown shapes yield a
// descriptive error, unparseable timestamps yield null fields, and every
// produced record carries a mapped severity alongside the preserved raw
// vendor value. Filtering happens downstream; this package never drops a
// structurally sound alarm.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// faultPrefix tags the notification key carrying the alarm body; the
// remainder of the key is the event type.
const faultPrefix = "nsp-fault:"

// Normalizer turns decoded notification envelopes into CanonicalAlarm
// records, rendering detection timestamps in a configured zone.
type Normalizer struct {
	loc *time.Location
}

// New returns a Normalizer emitting timestamps in loc; nil means UTC.
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Normalize projects one envelope. The envelope must carry the
// notification body at data -> "ietf-restconf:notification" with a single
// nsp-fault:* entry whose value is the alarm object; anything else is an
// error and produces no record.
func (n *Normalizer) Normalize(envelope map[string]any) (*types.CanonicalAlarm, error) {
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("envelope has no data object")
	}
	notif, ok := data["ietf-restconf:notification"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("envelope has no ietf-restconf:notification object")
	}
	eventType, body, ok := faultEntry(notif)
	if !ok {
		return nil, fmt.Errorf("notification carries no usable %s* entry", faultPrefix)
	}

	alarm := &types.CanonicalAlarm{
		EventType:          eventType,
		EventTime:          stringField(notif, "eventTime"),
		AlarmID:            stringField(body, "objectId"),
		AlarmName:          stringField(body, "alarmName"),
		SpecificProblem:    stringField(body, "specificProblem"),
		ProbableCause:      stringField(body, "probableCause"),
		NEName:             stringField(body, "neName"),
		NEID:               stringField(body, "neId"),
		Source:             stringField(body, "sourceType"),
		SeverityRaw:        body["severity"],
		AffectedObject:     stringField(body, "affectedObject"),
		AffectedObjectName: stringField(body, "affectedObjectName"),
		ObjectType:         stringField(body, "affectedObjectType"),
		Acknowledged:       boolField(body, "acknowledged"),
		ImplicitlyCleared:  boolField(body, "implicitlyCleared"),
	}
	alarm.Severity = types.MapSeverity(alarm.SeverityRaw, alarm.SpecificProblem)
	alarm.ObjectDetails = types.ParseObjectDetails(alarm.AffectedObject)
	alarm.FirstDetected = n.isoFromEpoch(body["firstTimeDetected"])
	alarm.LastDetected = n.isoFromEpoch(body["lastTimeDetected"])
	if v, ok := body["serviceAffecting"].(bool); ok {
		alarm.ServiceAffecting = &v
	}

	return alarm, nil
}

// faultEntry finds the nsp-fault:* entry and splits it into event type
// and alarm body. A fault key whose value is not an object counts as
// absent.
func faultEntry(notif map[string]any) (types.EventType, map[string]any, bool) {
	for key, value := range notif {
		if !strings.HasPrefix(key, faultPrefix) {
			continue
		}
		body, ok := value.(map[string]any)
		if !ok {
			return "", nil, false
		}
		return types.EventType(strings.TrimPrefix(key, faultPrefix)), body, true
	}
	return "", nil, false
}

// isoFromEpoch renders a vendor epoch-milliseconds value as ISO 8601 in
// the configured zone; nil when the value cannot be interpreted.
func (n *Normalizer) isoFromEpoch(v any) *string {
	ms, ok := epochMillis(v)
	if !ok {
		return nil
	}
	s := time.UnixMilli(ms).In(n.loc).Format(time.RFC3339Nano)
	return &s
}

// epochMillis interprets the vendor timestamp shapes: a JSON number, an
// all-digit string, or an object carrying one of value, milliseconds, or
// seconds (seconds scaled to milliseconds). Zero-valued object entries
// fall through to the next key.
func epochMillis(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		if t == "" {
			return 0, false
		}
		for _, r := range t {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		ms, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return ms, true
	case map[string]any:
		if ms, ok := positiveNumber(t["value"]); ok {
			return ms, true
		}
		if ms, ok := positiveNumber(t["milliseconds"]); ok {
			return ms, true
		}
		if s, ok := positiveNumber(t["seconds"]); ok {
			return s * 1000, true
		}
	}
	return 0, false
}

func positiveNumber(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f == 0 {
		return 0, false
	}
	return int64(f), true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
