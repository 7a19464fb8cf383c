// Package filter decides whether a normalized alarm is kept for lifecycle
// handling or suppressed as noise.
//
// # Decision Model
//
// Decide combines static drop rules with two correlation rules that match
// child symptoms against currently-active root alarms. It is a pure
// function: the active-root snapshot is an explicit argument, never read
// from storage here, so identical inputs always produce identical
// decisions. Suppression errs toward keeping: a child missing its
// timestamp or span cannot match any root.
package filter

import (
	"strings"
	"time"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

const (
	// PowerChildWindow bounds how far a power child's first detection may
	// sit from its root's for the pair to count as one event.
	PowerChildWindow = 10 * time.Minute

	// LOSChildWindow is the equivalent bound for loss-of-signal children.
	LOSChildWindow = 30 * time.Second
)

// Snapshot is the per-message view of active root alarms the correlation
// rules match against. Either set may be empty.
type Snapshot struct {
	PowerRoots []types.CanonicalAlarm
	LOSRoots   []types.CanonicalAlarm
}

// Decision is the outcome of evaluating one alarm. Rule names the first
// rule that matched, for decision logging.
type Decision struct {
	Keep bool
	Rule string
}

func keep(rule string) Decision { return Decision{Keep: true, Rule: rule} }
func drop(rule string) Decision { return Decision{Keep: false, Rule: rule} }

// Decide evaluates one alarm. First matching rule wins:
//
//  1. keep clears, always
//  2. keep power-issue roots
//  3. drop power children correlated to an active power root
//  4. drop LOS children correlated to an active LOS root
//  5. drop static noise
//  6. keep everything else
func Decide(alarm *types.CanonicalAlarm, snap Snapshot) Decision {
	if alarm.Severity == types.SeverityClear {
		return keep("clear")
	}
	if alarm.AlarmName == types.AlarmNamePowerIssue && alarm.ObjectType == types.ObjectTypePhysicalConnection {
		return keep("power-root")
	}
	if suppressedByPowerRoot(alarm, snap.PowerRoots) {
		return drop("power-child")
	}
	if suppressedByLOSRoot(alarm, snap.LOSRoots) {
		return drop("los-child")
	}
	if rule := staticDropRule(alarm); rule != "" {
		return drop(rule)
	}
	return keep("default")
}

// suppressedByPowerRoot reports whether the alarm is a power-adjustment
// child sitting within PowerChildWindow of an active power-issue root on
// the same OPS span.
func suppressedByPowerRoot(alarm *types.CanonicalAlarm, roots []types.CanonicalAlarm) bool {
	if !containsName(types.PowerChildAlarmNames, alarm.AlarmName) {
		return false
	}
	if alarm.ObjectType != types.ObjectTypeTerminationPoint {
		return false
	}
	childAt, ok := alarm.FirstDetectedTime()
	if !ok {
		return false
	}
	childSpan := OPSSpan(alarm.AffectedObjectName)
	if childSpan == "" {
		return false
	}
	for i := range roots {
		root := &roots[i]
		rootAt, ok := root.FirstDetectedTime()
		if !ok {
			continue
		}
		if absDuration(childAt.Sub(rootAt)) > PowerChildWindow {
			continue
		}
		if OPSSpan(root.AffectedObjectName) == childSpan {
			return true
		}
	}
	return false
}

// suppressedByLOSRoot reports whether the alarm is a transport-side child
// within LOSChildWindow of a critical loss-of-signal root, matched by OPS
// span or, failing that, by NE name (the trail fallback).
func suppressedByLOSRoot(alarm *types.CanonicalAlarm, roots []types.CanonicalAlarm) bool {
	if !containsName(types.LOSChildAlarmNames, alarm.AlarmName) {
		return false
	}
	childAt, ok := alarm.FirstDetectedTime()
	if !ok {
		return false
	}
	childSpan := OPSSpan(alarm.AffectedObjectName)
	for i := range roots {
		root := &roots[i]
		if root.AlarmName != types.AlarmNameLossOfSignalOCH || root.Severity != types.SeverityCritical {
			continue
		}
		rootAt, ok := root.FirstDetectedTime()
		if !ok {
			continue
		}
		if absDuration(childAt.Sub(rootAt)) > LOSChildWindow {
			continue
		}
		if childSpan != "" && OPSSpan(root.AffectedObjectName) == childSpan {
			return true
		}
		if alarm.NEName != "" && alarm.NEName == root.NEName {
			return true
		}
	}
	return false
}

// Static noise vocabulary.
var (
	noiseAlarmNames     = []string{"SR_RESTORED", "SR_MANUAL_SWITCH", "BASELINE", "Adjacency Not Found"}
	noiseProbableCauses = []string{"OPR", "PWRSUSP", "MAINT2-ALLOWED-REMOTE"}
)

// staticDropRule returns the name of the static noise rule the alarm
// trips, or "" when none applies.
func staticDropRule(a *types.CanonicalAlarm) string {
	switch {
	case strings.HasPrefix(a.ObjectType, "NE") &&
		strings.Contains(a.ObjectType, "CLI") &&
		hasAnySuffix(a.ObjectType, "Login", "Logout"):
		return "cli-session"

	case strings.HasPrefix(a.ProbableCause, "NE") &&
		hasAnySuffix(a.ProbableCause, "Login", "Logout"):
		return "ne-session"

	case strings.HasPrefix(a.ObjectType, "Indicates") &&
		strings.Contains(a.ObjectType, "Threshold") &&
		strings.HasSuffix(a.ObjectType, "detection"):
		return "threshold-indication"

	case strings.HasPrefix(a.ObjectType, "Power") &&
		strings.Contains(a.ObjectType, "management") &&
		strings.HasSuffix(a.ObjectType, "suspended"):
		return "power-management"

	case containsName(noiseAlarmNames, a.AlarmName):
		return "noise-name"

	case a.SpecificProblem == "SEC_NA":
		return "sec-na"

	case containsName(noiseProbableCauses, a.ProbableCause):
		return "noise-cause"

	case strings.HasPrefix(a.ProbableCause, "T-") &&
		hasAnySuffix(a.ProbableCause, "15-MIN", "1-DAY"):
		return "pm-counter"

	case strings.HasPrefix(a.AlarmName, "Quality Threshold Crossed") &&
		hasAnySuffix(a.AlarmName, "15m", "24h"):
		return "quality-threshold"

	case a.Severity == types.SeverityWarning || a.Severity == types.SeverityInfo:
		return "low-severity"
	}
	return ""
}

func containsName(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
