package types

import "strings"

// Severity is the closed severity enum stored on every alarm.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
	SeverityClear    Severity = "CLEAR"
	SeverityUnknown  Severity = "UNKNOWN"
)

// Level returns a numeric level for comparison (higher = more severe).
func (s Severity) Level() int {
	switch s {
	case SeverityCritical:
		return 6
	case SeverityMajor:
		return 5
	case SeverityMinor:
		return 4
	case SeverityWarning:
		return 3
	case SeverityInfo:
		return 2
	case SeverityClear:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the seven enum values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor, SeverityWarning,
		SeverityInfo, SeverityClear, SeverityUnknown:
		return true
	}
	return false
}

// severityNames maps the lowercased vendor strings to the enum.
var severityNames = map[string]Severity{
	"info":          SeverityInfo,
	"informational": SeverityInfo,
	"indeterminate": SeverityInfo,
	"condition":     SeverityInfo,
	"clear":         SeverityClear,
	"warning":       SeverityWarning,
	"minor":         SeverityMinor,
	"major":         SeverityMajor,
	"critical":      SeverityCritical,
}

// MapSeverity maps the raw vendor severity field to the closed enum.
//
// The raw value may be a plain string, or an object carrying the string
// under one of value, name, or severity. Change notifications signal a
// clear with {"new-value": "cleared"}. Security events (specific problem
// starting with SEC_) are demoted to INFO regardless of the vendor
// severity. Anything unrecognized maps to UNKNOWN.
func MapSeverity(raw any, specificProblem string) Severity {
	if m, ok := raw.(map[string]any); ok {
		if nv, _ := m["new-value"].(string); nv == "cleared" {
			return SeverityClear
		}
	}
	if strings.HasPrefix(specificProblem, "SEC_") {
		return SeverityInfo
	}
	if m, ok := raw.(map[string]any); ok {
		raw = firstSeverityValue(m)
	}
	s, ok := raw.(string)
	if !ok {
		return SeverityUnknown
	}
	if sev, ok := severityNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return sev
	}
	return SeverityUnknown
}

// firstSeverityValue pulls the first non-empty severity carrier out of an
// object-shaped raw value.
func firstSeverityValue(m map[string]any) any {
	for _, key := range []string{"value", "name", "severity"} {
		if v, ok := m[key]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}
