package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
)

// ProgressLogRepository stores progress log entries in MongoDB.
type ProgressLogRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewProgressLogRepository(db *mongo.Database) *ProgressLogRepository {
	return &ProgressLogRepository{
		collection: db.Collection("progress_log"),
		counters:   db.Collection("counters"),
	}
}

// InsertEntry appends a progress log entry
func (r *ProgressLogRepository) InsertEntry(ctx context.Context, entry *models.ProgressLogEntry) error {
	id, err := nextID(ctx, r.counters, "progress_log")
	if err != nil {
		return err
	}
	entry.ID = id
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		logger.Log.WithError(err).Error("Failed to insert progress log entry")
		return fmt.Errorf("inserting progress log entry: %w", err)
	}
	return nil
}

// ListProgressLog fetches the most recent entries of a goal
func (r *ProgressLogRepository) ListProgressLog(ctx context.Context, goalID int64, limit int) ([]models.ProgressLogEntry, error) {
	filter := bson.M{"goal_id": goalID}
	sort := bson.D{{Key: "_id", Value: -1}}

	opts := options.Find().SetSort(sort).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress log: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.ProgressLogEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode progress log: %w", err)
	}
	return entries, nil
}

// DeleteForGoal removes every entry of a goal.
func (r *ProgressLogRepository) DeleteForGoal(ctx context.Context, goalID int64) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"goal_id": goalID})
	if err != nil {
		return 0, fmt.Errorf("deleting progress log: %w", err)
	}
	return res.DeletedCount, nil
}
