package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// rawEnvelope mirrors the wire shape of one fault notification.
const rawEnvelope = `{
  "data": {
    "ietf-restconf:notification": {
      "eventTime": "2023-11-14T22:13:25Z",
      "nsp-fault:alarm-create": {
        "objectId": "a1",
        "alarmName": "Power Issue",
        "specificProblem": "RECT_FAIL",
        "probableCause": "rectifierFailure",
        "neName": "NE1",
        "neId": "10.0.0.1",
        "sourceType": "nsp",
        "severity": "major",
        "affectedObject": "shelf-1:slot-4:port-7",
        "affectedObjectName": "Benapole/OPS-3-7-A3,OCH,RCV",
        "affectedObjectType": "PHYSICALCONNECTION",
        "firstTimeDetected": 1700000000000,
        "lastTimeDetected": 1700000000000,
        "acknowledged": false,
        "serviceAffecting": true,
        "implicitlyCleared": false
      }
    }
  }
}`

func decodeEnvelope(t *testing.T, raw string) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope
}

func TestNormalize_Projection(t *testing.T) {
	n := New(nil)

	alarm, err := n.Normalize(decodeEnvelope(t, rawEnvelope))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if alarm.EventType != types.EventTypeAlarmCreate {
		t.Errorf("event_type = %s", alarm.EventType)
	}
	if alarm.EventTime != "2023-11-14T22:13:25Z" {
		t.Errorf("event_time = %s", alarm.EventTime)
	}
	if alarm.AlarmID != "a1" {
		t.Errorf("alarm_id = %s", alarm.AlarmID)
	}
	if alarm.AlarmName != "Power Issue" {
		t.Errorf("alarm_name = %s", alarm.AlarmName)
	}
	if alarm.NEName != "NE1" || alarm.NEID != "10.0.0.1" {
		t.Errorf("ne identity = %s / %s", alarm.NEName, alarm.NEID)
	}
	if alarm.Source != "nsp" {
		t.Errorf("source = %s", alarm.Source)
	}
	if alarm.Severity != types.SeverityMajor {
		t.Errorf("severity = %s", alarm.Severity)
	}
	if alarm.SeverityRaw != "major" {
		t.Errorf("severity_raw = %v", alarm.SeverityRaw)
	}
	if alarm.ObjectType != "PHYSICALCONNECTION" {
		t.Errorf("object_type = %s", alarm.ObjectType)
	}
	want := types.ObjectDetails{Shelf: "shelf-1", Slot: "slot-4", Port: "port-7"}
	if alarm.ObjectDetails != want {
		t.Errorf("object_details = %+v", alarm.ObjectDetails)
	}
	if alarm.FirstDetected == nil || *alarm.FirstDetected != "2023-11-14T22:13:20Z" {
		t.Errorf("first_detected = %v", alarm.FirstDetected)
	}
	if alarm.ServiceAffecting == nil || !*alarm.ServiceAffecting {
		t.Errorf("service_affecting = %v", alarm.ServiceAffecting)
	}
	if alarm.Acknowledged || alarm.ImplicitlyCleared {
		t.Error("boolean defaults wrong")
	}
}

func TestNormalize_MalformedEnvelopes(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name     string
		envelope map[string]any
	}{
		{"empty envelope", map[string]any{}},
		{"data not an object", map[string]any{"data": "x"}},
		{
			"no notification",
			map[string]any{"data": map[string]any{}},
		},
		{
			"no fault entry",
			map[string]any{"data": map[string]any{
				"ietf-restconf:notification": map[string]any{"eventTime": "t"},
			}},
		},
		{
			"fault body not an object",
			map[string]any{"data": map[string]any{
				"ietf-restconf:notification": map[string]any{
					"nsp-fault:alarm-create": "not-an-object",
				},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alarm, err := n.Normalize(tt.envelope)
			if err == nil {
				t.Fatal("expected error")
			}
			if alarm != nil {
				t.Errorf("expected no record, got %+v", alarm)
			}
		})
	}
}

func TestNormalize_EventTypePreserved(t *testing.T) {
	n := New(nil)
	envelope := map[string]any{"data": map[string]any{
		"ietf-restconf:notification": map[string]any{
			"nsp-fault:alarm-vanish": map[string]any{"objectId": "x"},
		},
	}}

	alarm, err := n.Normalize(envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alarm.EventType != "alarm-vanish" {
		t.Errorf("event_type = %s, want raw value preserved", alarm.EventType)
	}
	if alarm.EventType.Known() {
		t.Error("out-of-set event type should not be known")
	}
}

func TestNormalize_EpochVariants(t *testing.T) {
	n := New(nil)
	iso := "2023-11-14T22:13:20Z"

	tests := []struct {
		name  string
		value any
		want  *string
	}{
		{"number", float64(1700000000000), &iso},
		{"digit string", "1700000000000", &iso},
		{"object value", map[string]any{"value": float64(1700000000000)}, &iso},
		{"object milliseconds", map[string]any{"milliseconds": float64(1700000000000)}, &iso},
		{"object seconds scaled", map[string]any{"seconds": float64(1700000000)}, &iso},
		{
			"object zero value falls through",
			map[string]any{"value": float64(0), "milliseconds": float64(1700000000000)},
			&iso,
		},
		{"absent", nil, nil},
		{"non-digit string", "2023-11-14", nil},
		{"negative string", "-1700000000000", nil},
		{"empty string", "", nil},
		{"empty object", map[string]any{}, nil},
		{"boolean", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := map[string]any{"data": map[string]any{
				"ietf-restconf:notification": map[string]any{
					"nsp-fault:alarm-create": map[string]any{
						"objectId":          "a1",
						"firstTimeDetected": tt.value,
					},
				},
			}}
			alarm, err := n.Normalize(envelope)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch {
			case tt.want == nil && alarm.FirstDetected != nil:
				t.Errorf("first_detected = %q, want null", *alarm.FirstDetected)
			case tt.want != nil && alarm.FirstDetected == nil:
				t.Errorf("first_detected = null, want %q", *tt.want)
			case tt.want != nil && *alarm.FirstDetected != *tt.want:
				t.Errorf("first_detected = %q, want %q", *alarm.FirstDetected, *tt.want)
			}
		})
	}
}

func TestNormalize_ConfiguredZone(t *testing.T) {
	n := New(time.FixedZone("BST", 6*3600))
	envelope := map[string]any{"data": map[string]any{
		"ietf-restconf:notification": map[string]any{
			"nsp-fault:alarm-create": map[string]any{
				"objectId":          "a1",
				"firstTimeDetected": float64(1700000000000),
			},
		},
	}}

	alarm, err := n.Normalize(envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alarm.FirstDetected == nil || *alarm.FirstDetected != "2023-11-15T04:13:20+06:00" {
		t.Errorf("first_detected = %v", alarm.FirstDetected)
	}

	// The rendered value parses back to the same instant.
	got, ok := alarm.FirstDetectedTime()
	if !ok || !got.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("round trip = (%v, %v)", got, ok)
	}
}

func TestNormalize_ClearedChangeEvent(t *testing.T) {
	n := New(nil)
	envelope := map[string]any{"data": map[string]any{
		"ietf-restconf:notification": map[string]any{
			"nsp-fault:alarm-change": map[string]any{
				"objectId": "a1",
				"severity": map[string]any{"new-value": "cleared"},
			},
		},
	}}

	alarm, err := n.Normalize(envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alarm.EventType != types.EventTypeAlarmChange {
		t.Errorf("event_type = %s", alarm.EventType)
	}
	if alarm.Severity != types.SeverityClear {
		t.Errorf("severity = %s, want CLEAR", alarm.Severity)
	}
	if alarm.SeverityRaw == nil {
		t.Error("severity_raw should preserve the change object")
	}
}
