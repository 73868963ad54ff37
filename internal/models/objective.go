package models

import (
	"strings"
	"time"
)

// Priority ranks an objective against the owner's other objectives.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Status is the operator-declared state of an objective. It is never derived
// from progress.
type Status string

const (
	StatusActive     Status = "Active"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// ParseStatus matches s case-insensitively against the known statuses.
// "in_progress" is accepted as an alias of "In Progress".
func ParseStatus(s string) (Status, bool) {
	norm := strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	for _, st := range []Status{StatusActive, StatusInProgress, StatusCompleted} {
		if strings.EqualFold(norm, string(st)) {
			return st, true
		}
	}
	return "", false
}

// DefaultCategory is assigned when an objective is created without one.
const DefaultCategory = "General"

// Objective is a goal owned by one employee, broken down into key results.
type Objective struct {
	ID        int64      `json:"id" bson:"_id"`
	Objective string     `json:"objective" bson:"objective"`
	KeyResult KeyResults `json:"keyResult" bson:"key_result"`
	Priority  Priority   `json:"priority" bson:"priority"`
	Status    Status     `json:"status" bson:"status"`
	Progress  int        `json:"progress" bson:"progress"` // top-level figure, independent of key results
	DueDate   *Date      `json:"duedate,omitempty" bson:"duedate,omitempty"`
	Category  string     `json:"category" bson:"category"`
	OwnerID   int64      `json:"owner_id" bson:"owner_id"`
	Version   int        `json:"version" bson:"version"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// Clone returns a copy of o that shares no mutable state with it.
func (o Objective) Clone() Objective {
	c := o
	c.KeyResult = o.KeyResult.Clone()
	if o.DueDate != nil {
		d := *o.DueDate
		c.DueDate = &d
	}
	return c
}

// ProgressLogEntry is an append-only record of one key-result progress update.
type ProgressLogEntry struct {
	ID          int64     `json:"id" bson:"_id"`
	GoalID      int64     `json:"goalId" bson:"goal_id"`
	KeyIndex    int       `json:"keyIndex" bson:"key_index"`
	KeyResultID string    `json:"keyResultId,omitempty" bson:"key_result_id,omitempty"`
	Progress    int       `json:"progress" bson:"progress"`
	NotedAt     time.Time `json:"notedAt" bson:"noted_at"`
	NotedBy     int64     `json:"notedBy" bson:"noted_by"`
}
