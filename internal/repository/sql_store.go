package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
)

// SQLStore implements ObjectiveStore on SQLite. The progress log and the
// objective it updates are written in one transaction.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode and foreign keys, and runs any pending schema migrations.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

type objectiveRow struct {
	ID        int64          `db:"id"`
	OwnerID   int64          `db:"owner_id"`
	Objective string         `db:"objective"`
	KeyResult sql.NullString `db:"key_result"`
	Priority  string         `db:"priority"`
	Status    string         `db:"status"`
	Progress  int            `db:"progress"`
	DueDate   sql.NullString `db:"duedate"`
	Category  string         `db:"category"`
	Version   int            `db:"version"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

const objectiveColumns = `id, owner_id, objective, key_result, priority, status,
	progress, duedate, category, version, created_at, updated_at`

func (r objectiveRow) toModel() (models.Objective, error) {
	o := models.Objective{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Objective: r.Objective,
		Priority:  models.Priority(r.Priority),
		Status:    models.Status(r.Status),
		Progress:  r.Progress,
		Category:  r.Category,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.KeyResult.Valid {
		if err := json.Unmarshal([]byte(r.KeyResult.String), &o.KeyResult); err != nil {
			return models.Objective{}, fmt.Errorf("decoding key results of objective %d: %w", r.ID, err)
		}
	}
	if r.DueDate.Valid && r.DueDate.String != "" {
		d, err := models.ParseDate(r.DueDate.String)
		if err != nil {
			return models.Objective{}, fmt.Errorf("decoding due date of objective %d: %w", r.ID, err)
		}
		o.DueDate = &d
	}
	return o, nil
}

func encodeKeyResults(k models.KeyResults) (sql.NullString, error) {
	if k.Shape == models.ShapeNone {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(k)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding key results: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func encodeDueDate(d *models.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// CreateObjective inserts a new objective.
func (s *SQLStore) CreateObjective(ctx context.Context, objective *models.Objective) (*models.Objective, error) {
	keyResults, err := encodeKeyResults(objective.KeyResult)
	if err != nil {
		return nil, err
	}
	if objective.Category == "" {
		objective.Category = models.DefaultCategory
	}
	now := time.Now().UTC()
	objective.CreatedAt = now
	objective.UpdatedAt = now
	objective.Version = 1

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO objectives (
			owner_id, objective, key_result, priority, status,
			progress, duedate, category, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		objective.OwnerID, objective.Objective, keyResults, string(objective.Priority), string(objective.Status),
		objective.Progress, encodeDueDate(objective.DueDate), objective.Category, objective.Version,
		objective.CreatedAt, objective.UpdatedAt,
	)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert objective")
		return nil, fmt.Errorf("creating objective: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading objective id: %w", err)
	}
	objective.ID = id

	logger.Log.WithField("objective_id", id).Info("Objective created successfully")
	return objective, nil
}

// GetObjective fetches an objective by its id.
func (s *SQLStore) GetObjective(ctx context.Context, id int64) (*models.Objective, error) {
	var row objectiveRow
	err := s.db.GetContext(ctx, &row, "SELECT "+objectiveColumns+" FROM objectives WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Log.WithError(err).WithField("objective_id", id).Error("Failed to find objective by ID")
		return nil, fmt.Errorf("getting objective: %w", err)
	}
	o, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListObjectives returns the owner's objectives, oldest first.
func (s *SQLStore) ListObjectives(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error) {
	where := []string{"owner_id = ?"}
	args := []interface{}{ownerID}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := "SELECT " + objectiveColumns + " FROM objectives WHERE " + strings.Join(where, " AND ") + " ORDER BY id"

	objectives, err := s.selectObjectives(ctx, query, args...)
	if err != nil {
		logger.Log.WithError(err).WithField("owner_id", ownerID).Error("Failed to fetch filtered objectives")
		return nil, err
	}
	return objectives, nil
}

// ListAllObjectives returns up to limit objectives regardless of owner.
func (s *SQLStore) ListAllObjectives(ctx context.Context, limit int64) ([]models.Objective, error) {
	return s.selectObjectives(ctx, "SELECT "+objectiveColumns+" FROM objectives ORDER BY id LIMIT ?", limit)
}

func (s *SQLStore) selectObjectives(ctx context.Context, query string, args ...interface{}) ([]models.Objective, error) {
	var rows []objectiveRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing objectives: %w", err)
	}
	objectives := make([]models.Objective, 0, len(rows))
	for _, row := range rows {
		o, err := row.toModel()
		if err != nil {
			return nil, err
		}
		objectives = append(objectives, o)
	}
	return objectives, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// updateObjective is shared by UpdateObjective and AppendProgress so both go
// through the same version check.
func updateObjective(ctx context.Context, db execer, objective *models.Objective, expectedVersion int) error {
	keyResults, err := encodeKeyResults(objective.KeyResult)
	if err != nil {
		return err
	}
	updatedAt := time.Now().UTC()

	res, err := db.ExecContext(ctx, `
		UPDATE objectives SET
			objective = ?, key_result = ?, priority = ?, status = ?,
			progress = ?, duedate = ?, category = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		objective.Objective, keyResults, string(objective.Priority), string(objective.Status),
		objective.Progress, encodeDueDate(objective.DueDate), objective.Category,
		updatedAt, objective.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating objective: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		var count int
		if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM objectives WHERE id = ?", objective.ID); err != nil {
			return fmt.Errorf("checking objective existence: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	objective.Version = expectedVersion + 1
	objective.UpdatedAt = updatedAt
	return nil
}

// UpdateObjective replaces an objective if nobody else changed it since
// expectedVersion was read.
func (s *SQLStore) UpdateObjective(ctx context.Context, objective *models.Objective, expectedVersion int) (*models.Objective, error) {
	if err := updateObjective(ctx, s.db, objective, expectedVersion); err != nil {
		logger.Log.WithError(err).WithField("objective_id", objective.ID).Error("Failed to update objective")
		return nil, err
	}
	logger.Log.WithField("objective_id", objective.ID).Info("Objective updated successfully")
	return objective, nil
}

// DeleteObjective removes the owner's objective. Its progress log goes with
// it through the foreign key cascade.
func (s *SQLStore) DeleteObjective(ctx context.Context, id, ownerID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM objectives WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		logger.Log.WithError(err).WithField("objective_id", id).Error("Failed to delete objective")
		return fmt.Errorf("deleting objective: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.Log.WithField("objective_id", id).Info("Objective deleted successfully")
	return nil
}

// AppendProgress writes the log entry and the objective's new key-result
// progress in a single transaction.
func (s *SQLStore) AppendProgress(ctx context.Context, objective *models.Objective, expectedVersion int, entry *models.ProgressLogEntry) (*models.ProgressLogEntry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateObjective(ctx, tx, objective, expectedVersion); err != nil {
		return nil, err
	}

	entry.GoalID = objective.ID
	res, err := tx.ExecContext(ctx, `
		INSERT INTO progress_log (goal_id, key_index, key_result_id, progress, noted_at, noted_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.GoalID, entry.KeyIndex, entry.KeyResultID, entry.Progress, entry.NotedAt.UTC(), entry.NotedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting progress log entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading progress log id: %w", err)
	}
	entry.ID = id

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing progress: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"objective_id": objective.ID,
		"key_index":    entry.KeyIndex,
		"progress":     entry.Progress,
	}).Info("Progress logged successfully")
	return entry, nil
}

type progressRow struct {
	ID          int64     `db:"id"`
	GoalID      int64     `db:"goal_id"`
	KeyIndex    int       `db:"key_index"`
	KeyResultID string    `db:"key_result_id"`
	Progress    int       `db:"progress"`
	NotedAt     time.Time `db:"noted_at"`
	NotedBy     int64     `db:"noted_by"`
}

// ListProgressLog returns up to limit entries for the goal, newest first.
func (s *SQLStore) ListProgressLog(ctx context.Context, goalID int64, limit int) ([]models.ProgressLogEntry, error) {
	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, goal_id, key_index, key_result_id, progress, noted_at, noted_by
		FROM progress_log WHERE goal_id = ?
		ORDER BY id DESC LIMIT ?`, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing progress log: %w", err)
	}
	entries := make([]models.ProgressLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.ProgressLogEntry{
			ID:          r.ID,
			GoalID:      r.GoalID,
			KeyIndex:    r.KeyIndex,
			KeyResultID: r.KeyResultID,
			Progress:    r.Progress,
			NotedAt:     r.NotedAt,
			NotedBy:     r.NotedBy,
		})
	}
	return entries, nil
}
