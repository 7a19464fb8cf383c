package types

import "testing"

func TestMapSeverity(t *testing.T) {
	tests := []struct {
		name            string
		raw             any
		specificProblem string
		want            Severity
	}{
		{"critical string", "critical", "", SeverityCritical},
		{"major string", "Major", "", SeverityMajor},
		{"minor string", "minor", "", SeverityMinor},
		{"warning string", "warning", "", SeverityWarning},
		{"info string", "info", "", SeverityInfo},
		{"informational alias", "informational", "", SeverityInfo},
		{"indeterminate alias", "indeterminate", "", SeverityInfo},
		{"condition alias", "condition", "", SeverityInfo},
		{"clear string", "clear", "", SeverityClear},
		{"padded uppercase", "  CRITICAL  ", "", SeverityCritical},
		{"unrecognized string", "catastrophic", "", SeverityUnknown},
		{"empty string", "", "", SeverityUnknown},
		{"nil raw", nil, "", SeverityUnknown},
		{"numeric raw", float64(3), "", SeverityUnknown},
		{"cleared change object", map[string]any{"new-value": "cleared"}, "", SeverityClear},
		{"object with value", map[string]any{"value": "major"}, "", SeverityMajor},
		{"object with name", map[string]any{"name": "minor"}, "", SeverityMinor},
		{"object with severity", map[string]any{"severity": "warning"}, "", SeverityWarning},
		{"object empty value falls through", map[string]any{"value": "", "name": "critical"}, "", SeverityCritical},
		{"object with nothing useful", map[string]any{"other": "x"}, "", SeverityUnknown},
		{"security demotion", "critical", "SEC_USER_LOGIN", SeverityInfo},
		{"security demotion on object", map[string]any{"value": "major"}, "SEC_X", SeverityInfo},
		{"cleared beats security demotion", map[string]any{"new-value": "cleared"}, "SEC_X", SeverityClear},
		{"non-SEC specific problem ignored", "major", "HW_FAIL", SeverityMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapSeverity(tt.raw, tt.specificProblem)
			if got != tt.want {
				t.Errorf("MapSeverity(%v, %q) = %s, want %s", tt.raw, tt.specificProblem, got, tt.want)
			}
		})
	}
}

func TestMapSeverity_AlwaysValid(t *testing.T) {
	inputs := []any{
		"critical", "nonsense", "", nil, float64(1), true,
		map[string]any{"value": "major"},
		map[string]any{"new-value": "cleared"},
		map[string]any{},
		[]any{"critical"},
	}
	for _, raw := range inputs {
		got := MapSeverity(raw, "")
		if !got.Valid() {
			t.Errorf("MapSeverity(%v) = %q, not a valid enum value", raw, got)
		}
	}
}

func TestMapSeverity_RoundTripStable(t *testing.T) {
	for _, vendor := range []string{"critical", "major", "minor", "warning", "info", "clear"} {
		first := MapSeverity(vendor, "")
		second := MapSeverity(string(first), "")
		if first != second {
			t.Errorf("round trip of %q unstable: %s then %s", vendor, first, second)
		}
	}
}

func TestSeverity_Level(t *testing.T) {
	ordered := []Severity{
		SeverityUnknown, SeverityClear, SeverityInfo, SeverityWarning,
		SeverityMinor, SeverityMajor, SeverityCritical,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Level() <= ordered[i-1].Level() {
			t.Errorf("%s.Level() = %d, not above %s.Level() = %d",
				ordered[i], ordered[i].Level(), ordered[i-1], ordered[i-1].Level())
		}
	}
	if Severity("bogus").Level() != 0 {
		t.Errorf("unexpected level for out-of-set severity: %d", Severity("bogus").Level())
	}
}

func TestSeverity_Valid(t *testing.T) {
	for _, s := range []Severity{
		SeverityCritical, SeverityMajor, SeverityMinor, SeverityWarning,
		SeverityInfo, SeverityClear, SeverityUnknown,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Severity("cleared").Valid() {
		t.Error("lowercase vendor string should not be a valid enum value")
	}
}
