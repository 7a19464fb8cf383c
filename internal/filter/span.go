package filter

import "strings"

// OPSSpan extracts the OPS-<shelf>-<slot> correlation token from a
// slash-delimited affected-object name: the first three dash-delimited
// tokens of the first path segment starting with "OPS-". For
// "Benapole/OPS-3-7-A3,OCH,RCV" the span is "OPS-3-7". Returns "" when
// the name carries no well-formed span.
func OPSSpan(name string) string {
	if name == "" {
		return ""
	}
	for _, seg := range strings.Split(name, "/") {
		if !strings.HasPrefix(seg, "OPS-") {
			continue
		}
		parts := strings.SplitN(seg, "-", 4)
		if len(parts) < 3 {
			return ""
		}
		return strings.Join(parts[:3], "-")
	}
	return ""
}
