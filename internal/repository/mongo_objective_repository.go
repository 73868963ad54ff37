package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
)

// ObjectiveRepository handles MongoDB operations on the objectives collection.
type ObjectiveRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewObjectiveRepository creates a new instance of ObjectiveRepository
func NewObjectiveRepository(db *mongo.Database) *ObjectiveRepository {
	return &ObjectiveRepository{
		collection: db.Collection("objectives"),
		counters:   db.Collection("counters"),
	}
}

// nextID hands out sequential integer ids from the counters collection.
func nextID(ctx context.Context, counters *mongo.Collection, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocating %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// CreateObjective inserts a new objective with the next sequential id.
func (r *ObjectiveRepository) CreateObjective(ctx context.Context, objective *models.Objective) (*models.Objective, error) {
	id, err := nextID(ctx, r.counters, "objectives")
	if err != nil {
		logger.Log.WithError(err).Error("Failed to allocate objective id")
		return nil, err
	}
	if objective.Category == "" {
		objective.Category = models.DefaultCategory
	}
	objective.ID = id
	objective.Version = 1
	objective.CreatedAt = time.Now().UTC()
	objective.UpdatedAt = objective.CreatedAt

	if _, err := r.collection.InsertOne(ctx, objective); err != nil {
		logger.Log.WithError(err).Error("Failed to insert objective")
		return nil, fmt.Errorf("creating objective: %w", err)
	}

	logger.Log.WithField("objective_id", id).Info("Objective created successfully")
	return objective, nil
}

// GetObjective fetches an objective by its id.
func (r *ObjectiveRepository) GetObjective(ctx context.Context, id int64) (*models.Objective, error) {
	var objective models.Objective
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&objective)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Log.WithError(err).WithField("objective_id", id).Error("Failed to find objective by ID")
		return nil, fmt.Errorf("getting objective: %w", err)
	}
	return &objective, nil
}

// ListObjectives fetches the owner's objectives with optional filters.
func (r *ObjectiveRepository) ListObjectives(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error) {
	query := bson.M{"owner_id": ownerID}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	objectives, err := r.find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		logger.Log.WithError(err).WithField("owner_id", ownerID).Error("Failed to fetch filtered objectives")
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"owner_id": ownerID,
		"count":    len(objectives),
	}).Info("Filtered objectives fetched successfully")
	return objectives, nil
}

// ListAllObjectives fetches up to limit objectives of every owner.
func (r *ObjectiveRepository) ListAllObjectives(ctx context.Context, limit int64) ([]models.Objective, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(limit))
}

func (r *ObjectiveRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Objective, error) {
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("listing objectives: %w", err)
	}
	defer cursor.Close(ctx)

	objectives := []models.Objective{}
	for cursor.Next(ctx) {
		var objective models.Objective
		if err := cursor.Decode(&objective); err != nil {
			return nil, fmt.Errorf("decoding objective: %w", err)
		}
		objectives = append(objectives, objective)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("listing objectives: %w", err)
	}
	return objectives, nil
}

// UpdateObjective replaces the stored objective when its version still
// matches expectedVersion.
func (r *ObjectiveRepository) UpdateObjective(ctx context.Context, objective *models.Objective, expectedVersion int) (*models.Objective, error) {
	objective.Version = expectedVersion + 1
	objective.UpdatedAt = time.Now().UTC()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objective.ID, "version": expectedVersion}, objective)
	if err != nil {
		objective.Version = expectedVersion
		logger.Log.WithError(err).WithField("objective_id", objective.ID).Error("Failed to update objective")
		return nil, fmt.Errorf("updating objective: %w", err)
	}
	if res.MatchedCount == 0 {
		objective.Version = expectedVersion
		return nil, r.missingOrConflict(ctx, objective.ID)
	}

	logger.Log.WithField("objective_id", objective.ID).Info("Objective updated successfully")
	return objective, nil
}

func (r *ObjectiveRepository) missingOrConflict(ctx context.Context, id int64) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("checking objective existence: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

// DeleteObjective deletes the owner's objective by its id.
func (r *ObjectiveRepository) DeleteObjective(ctx context.Context, id, ownerID int64) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		logger.Log.WithError(err).WithField("objective_id", id).Error("Failed to delete objective")
		return fmt.Errorf("deleting objective: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	logger.Log.WithField("objective_id", id).Info("Objective deleted successfully")
	return nil
}
