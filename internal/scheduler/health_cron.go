package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Employee_Manager/internal/jobs"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
	"github.com/robfig/cron/v3"
)

// DefaultHealthScanSchedule runs the scan hourly.
const DefaultHealthScanSchedule = "@hourly"

// scanTimeout bounds a single scheduled run.
const scanTimeout = 5 * time.Minute

// Scanner runs one schedule health scan.
type Scanner interface {
	RunScan(ctx context.Context) (jobs.ScanResult, error)
}

// StartHealthScan registers scanner on schedule and starts the cron runner.
// Callers stop it with Stop() on shutdown.
func StartHealthScan(schedule string, loc *time.Location, scanner Scanner) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultHealthScanSchedule
	}
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()
		if _, err := scanner.RunScan(ctx); err != nil {
			logger.Log.WithError(err).Error("Schedule health scan failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid health scan schedule %q: %w", schedule, err)
	}

	c.Start()
	logger.Log.WithField("schedule", schedule).Info("Schedule health scan started")
	return c, nil
}
