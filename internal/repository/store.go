package repository

import (
	"context"
	"errors"

	"github.com/Dias221467/Employee_Manager/internal/models"
)

var (
	// ErrNotFound is returned when no objective matches the given id.
	ErrNotFound = errors.New("objective not found")
	// ErrConflict is returned when a conditional write finds a newer version.
	ErrConflict = errors.New("objective was modified concurrently")
	// ErrPartialWrite is returned when a progress log entry was stored but the
	// objective it updates was not. The two are not reconciled automatically.
	ErrPartialWrite = errors.New("progress logged but objective not updated")
)

// ObjectiveFilter narrows an owner's objective list.
type ObjectiveFilter struct {
	Category string
	Status   models.Status
}

// ObjectiveStore persists objectives and their progress log.
type ObjectiveStore interface {
	// CreateObjective assigns the id, version 1 and timestamps.
	CreateObjective(ctx context.Context, objective *models.Objective) (*models.Objective, error)
	GetObjective(ctx context.Context, id int64) (*models.Objective, error)
	ListObjectives(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error)
	// ListAllObjectives is used by background jobs and ignores ownership.
	ListAllObjectives(ctx context.Context, limit int64) ([]models.Objective, error)
	// UpdateObjective replaces the whole record if its stored version still
	// equals expectedVersion, and bumps the version.
	UpdateObjective(ctx context.Context, objective *models.Objective, expectedVersion int) (*models.Objective, error)
	DeleteObjective(ctx context.Context, id, ownerID int64) error
	// AppendProgress stores entry and the updated objective together.
	AppendProgress(ctx context.Context, objective *models.Objective, expectedVersion int, entry *models.ProgressLogEntry) (*models.ProgressLogEntry, error)
	// ListProgressLog returns the newest entries first.
	ListProgressLog(ctx context.Context, goalID int64, limit int) ([]models.ProgressLogEntry, error)
}
