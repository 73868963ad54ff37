// Package tracker derives progress and schedule health for objectives. Every
// function here is pure: callers pass "today" explicitly.
package tracker

import (
	"math"

	"github.com/Dias221467/Employee_Manager/internal/models"
)

// ClampProgress bounds a percentage to [0,100].
func ClampProgress(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// NormalizeProgress rounds a submitted percentage and clamps it.
func NormalizeProgress(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if v <= 0 {
		return 0
	}
	if v >= 100 {
		return 100
	}
	return int(math.Round(v))
}

// AggregateProgress averages the key-result progress of o with equal weight.
// Legacy string entries count as 0. When the key results are not a list, or
// the list is empty, the top-level progress field is authoritative.
func AggregateProgress(o models.Objective) int {
	if !o.KeyResult.IsArray() || len(o.KeyResult.Items) == 0 {
		return ClampProgress(o.Progress)
	}
	total := 0
	for _, kr := range o.KeyResult.Items {
		if kr.Legacy {
			continue
		}
		total += ClampProgress(kr.Progress)
	}
	return int(math.Round(float64(total) / float64(len(o.KeyResult.Items))))
}
