package jobs

import (
	"context"
	"fmt"

	"github.com/Dias221467/Employee_Manager/internal/metrics"
	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/internal/tracker"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
	"github.com/sirupsen/logrus"
)

// DefaultScanLimit caps how many objectives one scan reads.
const DefaultScanLimit = 1000

// ObjectiveLister is the part of the objective service the scanner needs.
type ObjectiveLister interface {
	ListAllObjectives(ctx context.Context, limit int64) ([]models.Objective, error)
}

// HealthScanner classifies every objective by schedule health.
type HealthScanner struct {
	Objectives ObjectiveLister
	Clock      tracker.Clock
	Metrics    *metrics.Metrics
	Limit      int64
}

// NewHealthScanner creates a new instance of HealthScanner.
func NewHealthScanner(objectives ObjectiveLister, clock tracker.Clock, m *metrics.Metrics) *HealthScanner {
	return &HealthScanner{
		Objectives: objectives,
		Clock:      clock,
		Metrics:    m,
		Limit:      DefaultScanLimit,
	}
}

// ScanResult counts objectives per schedule status.
type ScanResult map[tracker.ScheduleStatus]int

// RunScan logs objectives that are At Risk or Overdue and publishes the
// per-status counts.
func (s *HealthScanner) RunScan(ctx context.Context) (ScanResult, error) {
	objectives, err := s.Objectives.ListAllObjectives(ctx, s.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch objectives: %w", err)
	}

	today := tracker.Today(s.Clock)
	result := ScanResult{}
	for _, status := range tracker.AllScheduleStatuses {
		result[status] = 0
	}

	for _, o := range objectives {
		aggregate := tracker.AggregateProgress(o)
		status := tracker.Classify(o.DueDate, aggregate, today)
		result[status]++

		if status != tracker.StatusAtRisk && status != tracker.StatusOverdue {
			continue
		}
		logger.Log.WithFields(logrus.Fields{
			"objective_id": o.ID,
			"owner_id":     o.OwnerID,
			"status":       status,
			"progress":     aggregate,
			"duedate":      o.DueDate.String(),
			"pace":         tracker.RequiredPace(o.DueDate, aggregate, today),
		}).Warn("Objective behind schedule")
	}

	counts := make(map[string]int, len(result))
	for status, n := range result {
		counts[string(status)] = n
	}
	s.Metrics.SetScheduleHealth(counts)

	logger.Log.WithField("objectives", len(objectives)).Info("Schedule health scan completed")
	return result, nil
}
