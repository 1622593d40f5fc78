// Package benchmarks provides timing estimates for provisioning steps.
package benchmarks

import (
	"strings"
	"time"
)

// StepRecord captures observed timing for one finished step.
type StepRecord struct {
	Name     string
	Duration time.Duration
}

// DefaultTimings are median step durations from real runs (seconds),
// keyed by step name prefix.
var DefaultTimings = map[string]int{
	"project":                20,
	"enable ":                15,
	"billing link":           10,
	"budget":                 10,
	"service account":        10,
	"bind ":                  5,
	"service account key":    5,
	"ssh key":                5,
	"infrastructure apply":   300,
	"infrastructure destroy": 180,
	"project delete":         15,
}

// Expected returns the benchmark duration for a step, matching on the
// longest name prefix. Unknown steps estimate to zero.
func Expected(step string) time.Duration {
	best := ""
	for prefix := range DefaultTimings {
		if strings.HasPrefix(step, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return 0
	}
	return time.Duration(DefaultTimings[best]) * time.Second
}

// EstimateRemaining calculates the estimated time remaining given the
// running step, its elapsed time, the steps still pending, and the
// history of finished steps.
func EstimateRemaining(current string, elapsed time.Duration, pending []string, history []StepRecord) time.Duration {
	scale := PerformanceScale(current, elapsed, history)

	var remaining time.Duration
	if expected := time.Duration(float64(Expected(current)) * scale); expected > elapsed {
		remaining += expected - elapsed
	}
	for _, step := range pending {
		remaining += time.Duration(float64(Expected(step)) * scale)
	}
	return remaining
}

// PerformanceScale derives a speed multiplier from observed-vs-expected
// durations. Expected 3m but observed 4m30s stretches future estimates
// by 50%.
func PerformanceScale(current string, elapsed time.Duration, history []StepRecord) float64 {
	var expectedTotal time.Duration
	var actualTotal time.Duration

	for _, rec := range history {
		expected := Expected(rec.Name)
		if expected == 0 {
			continue
		}
		expectedTotal += expected
		actualTotal += rec.Duration
	}

	// Fold in an overrunning current step so the estimate adapts
	// quickly.
	if expected := Expected(current); expected > 0 && elapsed > expected {
		expectedTotal += expected
		actualTotal += elapsed
	}

	if expectedTotal == 0 || actualTotal == 0 {
		return 1.0
	}

	scale := float64(actualTotal) / float64(expectedTotal)
	if scale < 0.6 {
		return 0.6
	}
	if scale > 3.0 {
		return 3.0
	}
	return scale
}

// TotalEstimate sums the benchmark durations of the given steps.
func TotalEstimate(steps []string) time.Duration {
	var total time.Duration
	for _, step := range steps {
		total += Expected(step)
	}
	return total
}
