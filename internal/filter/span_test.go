package filter

import "testing"

func TestOPSSpan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"typical och name", "Benapole/OPS-3-7-A3,OCH,RCV", "OPS-3-7"},
		{"span without trailing tokens", "Benapole/OPS-3-7", "OPS-3-7"},
		{"span with port suffix", "Site/OPS-12-1-B2", "OPS-12-1"},
		{"no ops segment", "NE9/TRAIL-1", ""},
		{"empty input", "", ""},
		{"ops segment first", "OPS-1-2-X/other", "OPS-1-2"},
		{"truncated span", "Site/OPS-3", ""},
		{"prefix must match segment start", "Site/XOPS-3-7-A", ""},
		{"first ops segment wins", "a/OPS-1-2-A/OPS-9-9-B", "OPS-1-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OPSSpan(tt.input)
			if got != tt.want {
				t.Errorf("OPSSpan(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOPSSpan_Idempotent(t *testing.T) {
	inputs := []string{
		"Benapole/OPS-3-7-A3,OCH,RCV",
		"Site/OPS-12-1-B2",
		"NE9/TRAIL-1",
		"",
	}
	for _, input := range inputs {
		once := OPSSpan(input)
		twice := OPSSpan(once)
		if once != "" && once != twice {
			t.Errorf("OPSSpan not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}
