package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dias221467/Employee_Manager/internal/metrics"
	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/internal/tracker"
)

type staticLister struct {
	objectives []models.Objective
	err        error
}

func (l staticLister) ListAllObjectives(ctx context.Context, limit int64) ([]models.Objective, error) {
	return l.objectives, l.err
}

func due(today models.Date, days int) *models.Date {
	d := today.AddDays(days)
	return &d
}

func TestRunScanCountsStatuses(t *testing.T) {
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	today := models.DateOf(now)

	objectives := []models.Objective{
		{ID: 1, Progress: 85, KeyResult: models.LegacyText("x"), DueDate: due(today, 3)},
		{ID: 2, Progress: 95, KeyResult: models.LegacyText("x"), DueDate: due(today, 3)},
		{ID: 3, Progress: 40, KeyResult: models.LegacyText("x"), DueDate: due(today, -1)},
		{ID: 4, Progress: 100, KeyResult: models.LegacyText("x"), DueDate: due(today, -1)},
		{ID: 5, Progress: 10},
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New("okr", reg)
	require.NoError(t, err)

	scanner := NewHealthScanner(staticLister{objectives: objectives}, tracker.FixedClock(now), m)
	result, err := scanner.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result[tracker.StatusAtRisk])
	assert.Equal(t, 1, result[tracker.StatusOnTrack])
	assert.Equal(t, 1, result[tracker.StatusOverdue])
	assert.Equal(t, 1, result[tracker.StatusCompletedOverdue])
	assert.Equal(t, 1, result[tracker.StatusNoDueDate])

	n, err := testutil.GatherAndCount(reg, "okr_objectives_by_schedule_status")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRunScanPropagatesListError(t *testing.T) {
	scanner := NewHealthScanner(staticLister{err: errors.New("boom")}, tracker.FixedClock(time.Now()), nil)
	_, err := scanner.RunScan(context.Background())
	assert.Error(t, err)
}
