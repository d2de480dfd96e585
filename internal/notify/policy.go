// Package notify decides when a task transition warrants alerting the user
// and builds the payloads pushed to the UI shell.
package notify

import (
	"github.com/tallr-app/tallr/internal/core"
)

// Detection method names as stored on tasks and keyed by the policy.
const (
	MethodNetwork     = "network"
	MethodSessionFile = "session-file"
	MethodPattern     = "pattern"
	MethodHooks       = "hooks"
	MethodPatterns    = "patterns"
	MethodUnknown     = "unknown"
)

// Confidence floors per detection method. Noisier detectors need a higher
// score before an alert fires.
const (
	thresholdNetwork     = 0.80
	thresholdSessionFile = 0.85
	thresholdPattern     = 0.70
	thresholdDefault     = 0.75
)

// Threshold returns the confidence floor for a detection method. Unknown
// methods fall back to the default floor.
func Threshold(method string) float64 {
	switch method {
	case MethodNetwork:
		return thresholdNetwork
	case MethodSessionFile:
		return thresholdSessionFile
	case MethodPattern:
		return thresholdPattern
	default:
		return thresholdDefault
	}
}

// ShouldNotify reports whether a transition to state deserves an alert.
// Only PENDING and ERROR alert at all. Updates without a confidence score
// come from legacy reporters and always pass.
func ShouldNotify(state core.TaskState, method string, confidence *float64) bool {
	if !state.IsPending() && !state.IsError() {
		return false
	}
	if confidence == nil {
		return true
	}
	return *confidence >= Threshold(method)
}

// DeriveMethod resolves the detection method recorded for a plain state
// update from the reporting source and an explicit method, if any.
func DeriveMethod(source, method string) string {
	switch source {
	case "hook":
		return MethodHooks
	case "wrapper":
		return MethodPatterns
	}
	if method != "" {
		return method
	}
	return MethodUnknown
}
