package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
)

// MongoStore implements ObjectiveStore on MongoDB. Standalone servers have no
// multi-document transactions, so AppendProgress runs the version-checked
// objective update first and reports ErrPartialWrite only if the log insert
// then fails.
type MongoStore struct {
	*ObjectiveRepository
	progress *ProgressLogRepository
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		ObjectiveRepository: NewObjectiveRepository(db),
		progress:            NewProgressLogRepository(db),
	}
}

// DeleteObjective deletes the objective and then its progress log.
func (s *MongoStore) DeleteObjective(ctx context.Context, id, ownerID int64) error {
	if err := s.ObjectiveRepository.DeleteObjective(ctx, id, ownerID); err != nil {
		return err
	}
	n, err := s.progress.DeleteForGoal(ctx, id)
	if err != nil {
		// The objective is already gone; orphaned entries are harmless.
		logger.Log.WithError(err).WithField("objective_id", id).Warn("Failed to delete progress log of deleted objective")
		return nil
	}
	logger.Log.WithFields(map[string]interface{}{
		"objective_id": id,
		"entries":      n,
	}).Info("Progress log of deleted objective removed")
	return nil
}

func (s *MongoStore) AppendProgress(ctx context.Context, objective *models.Objective, expectedVersion int, entry *models.ProgressLogEntry) (*models.ProgressLogEntry, error) {
	// Conflicts and missing objectives leave nothing written.
	if _, err := s.ObjectiveRepository.UpdateObjective(ctx, objective, expectedVersion); err != nil {
		return nil, err
	}
	entry.GoalID = objective.ID
	if err := s.progress.InsertEntry(ctx, entry); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"objective_id": objective.ID,
			"version":      objective.Version,
		}).Error("Objective updated without writing its progress log entry")
		return nil, fmt.Errorf("%w: %w", ErrPartialWrite, err)
	}
	return entry, nil
}

func (s *MongoStore) ListProgressLog(ctx context.Context, goalID int64, limit int) ([]models.ProgressLogEntry, error) {
	return s.progress.ListProgressLog(ctx, goalID, limit)
}
