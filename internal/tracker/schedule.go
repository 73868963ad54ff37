package tracker

import (
	"fmt"

	"github.com/Dias221467/Employee_Manager/internal/models"
)

// ScheduleStatus classifies an objective by due-date proximity and progress.
type ScheduleStatus string

const (
	StatusNoDueDate        ScheduleStatus = "No Due Date"
	StatusOnTrack          ScheduleStatus = "On Track"
	StatusAtRisk           ScheduleStatus = "At Risk"
	StatusOverdue          ScheduleStatus = "Overdue"
	StatusCompletedOverdue ScheduleStatus = "Completed (Overdue)"
)

// AllScheduleStatuses lists every classification.
var AllScheduleStatuses = []ScheduleStatus{
	StatusNoDueDate, StatusOnTrack, StatusAtRisk, StatusOverdue, StatusCompletedOverdue,
}

// riskBands raise the acceptable progress as the due date approaches.
var riskBands = []struct {
	withinDays  int
	minProgress int
}{
	{3, 90},
	{7, 80},
	{14, 50},
}

func hasDueDate(due *models.Date) bool {
	return due != nil && !due.IsZero()
}

// DaysLeft counts calendar days from today to due. Negative means overdue.
func DaysLeft(due models.Date, today models.Date) int {
	return models.DaysBetween(today, due)
}

// IsLocked reports whether progress logging is closed because the due date
// has passed. Objectives without a due date never lock.
func IsLocked(due *models.Date, today models.Date) bool {
	return hasDueDate(due) && due.Before(today)
}

// Classify returns the schedule health for an objective due on due with the
// given progress.
func Classify(due *models.Date, progress int, today models.Date) ScheduleStatus {
	if !hasDueDate(due) {
		return StatusNoDueDate
	}
	daysLeft := DaysLeft(*due, today)
	if daysLeft < 0 {
		if progress >= 100 {
			return StatusCompletedOverdue
		}
		return StatusOverdue
	}
	for _, band := range riskBands {
		if daysLeft <= band.withinDays && progress < band.minProgress {
			return StatusAtRisk
		}
	}
	return StatusOnTrack
}

// RequiredPace describes the daily progress needed to finish on time.
func RequiredPace(due *models.Date, progress int, today models.Date) string {
	if progress >= 100 {
		return "Objective completed."
	}
	if !hasDueDate(due) {
		return "No due date set."
	}
	remaining := 100 - ClampProgress(progress)
	daysLeft := DaysLeft(*due, today)
	if daysLeft <= 0 {
		return fmt.Sprintf("Due date reached with %d%% remaining.", remaining)
	}
	perDay := float64(remaining) / float64(daysLeft)
	unit := "days"
	if daysLeft == 1 {
		unit = "day"
	}
	return fmt.Sprintf("%.1f%% per day needed over the next %d %s.", perDay, daysLeft, unit)
}
