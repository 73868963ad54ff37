package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dias221467/Employee_Manager/internal/metrics"
	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/internal/repository"
	"github.com/Dias221467/Employee_Manager/internal/tracker"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLogLimit = 10
	MaxLogLimit     = 100

	// editRetries bounds re-reads for edits that did not send a version.
	editRetries = 3
)

// CreateObjectiveInput is the creation contract. Key results start at 0.
type CreateObjectiveInput struct {
	Objective  string
	KeyResults []string
	Priority   string
	DueDate    *models.Date
	Category   string
}

// EditObjectiveInput replaces every editable field of an objective.
// Version 0 means the caller did not read a version and the edit wins
// regardless of concurrent writes.
type EditObjectiveInput struct {
	Objective string
	KeyResult models.KeyResults
	Priority  string
	Status    string
	DueDate   *models.Date
	Category  string
	Progress  float64
	Version   int
}

// ObjectiveView is an objective together with its derived figures.
type ObjectiveView struct {
	models.Objective
	AggregateProgress int                    `json:"aggregateProgress"`
	ScheduleStatus    tracker.ScheduleStatus `json:"scheduleStatus"`
	RequiredPace      string                 `json:"requiredPace"`
	Locked            bool                   `json:"locked"`
}

// ObjectiveService encapsulates the business logic for objectives.
type ObjectiveService struct {
	store   repository.ObjectiveStore
	clock   tracker.Clock
	metrics *metrics.Metrics
}

// NewObjectiveService creates a new instance of ObjectiveService. m may be nil.
func NewObjectiveService(store repository.ObjectiveStore, clock tracker.Clock, m *metrics.Metrics) *ObjectiveService {
	if clock == nil {
		clock = tracker.SystemClock{}
	}
	return &ObjectiveService{store: store, clock: clock, metrics: m}
}

// Today is the service's current date.
func (s *ObjectiveService) Today() models.Date {
	return tracker.Today(s.clock)
}

func (s *ObjectiveService) record(op string, err error) {
	switch {
	case err == nil:
		s.metrics.Operation(op, metrics.OutcomeOK)
	case isRejection(err):
		s.metrics.Operation(op, metrics.OutcomeRejected)
	default:
		s.metrics.Operation(op, metrics.OutcomeError)
	}
}

func isRejection(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrConflict)
}

// CreateObjective validates the input and stores a new Active objective at 0%.
func (s *ObjectiveService) CreateObjective(ctx context.Context, ownerID int64, in CreateObjectiveInput) (o *models.Objective, err error) {
	defer func() { s.record("create", err) }()

	title := strings.TrimSpace(in.Objective)
	if title == "" {
		logger.Log.Warn("Objective title is empty during creation")
		return nil, invalid("objective", "objective is required")
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return nil, invalid("duedate", "due date is required")
	}
	if in.DueDate.Before(s.Today()) {
		return nil, invalid("duedate", "due date cannot be in the past")
	}
	if len(in.KeyResults) == 0 {
		return nil, invalid("keyResult", "at least one key result is required")
	}
	items := make([]models.KeyResult, 0, len(in.KeyResults))
	for i, t := range in.KeyResults {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, invalid("keyResult", fmt.Sprintf("key result %d has no title", i))
		}
		items = append(items, models.KeyResult{ID: uuid.NewString(), Title: t})
	}
	priority, ok := models.ParsePriority(in.Priority)
	if !ok {
		return nil, invalid("priority", "priority must be Low, Medium or High")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	due := *in.DueDate
	created, err := s.store.CreateObjective(ctx, &models.Objective{
		Objective: title,
		KeyResult: models.NewKeyResults(items...),
		Priority:  priority,
		Status:    models.StatusActive,
		Progress:  0,
		DueDate:   &due,
		Category:  category,
		OwnerID:   ownerID,
	})
	if err != nil {
		logger.Log.WithError(err).Error("Service failed to create objective")
		return nil, fmt.Errorf("failed to create objective: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"objective_id": created.ID,
		"owner_id":     ownerID,
	}).Info("Objective created in service layer")
	return created, nil
}

// GetObjective returns one of the caller's objectives.
func (s *ObjectiveService) GetObjective(ctx context.Context, id, callerID int64) (*models.Objective, error) {
	o, err := s.store.GetObjective(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != callerID {
		logger.Log.WithFields(logrus.Fields{"objective_id": id, "caller_id": callerID}).Warn("Objective access denied")
		return nil, ErrForbidden
	}
	return o, nil
}

// ListObjectives returns the caller's objectives, optionally filtered.
func (s *ObjectiveService) ListObjectives(ctx context.Context, ownerID int64, category, status string) ([]models.Objective, error) {
	filter := repository.ObjectiveFilter{Category: strings.TrimSpace(category)}
	if status != "" {
		st, ok := models.ParseStatus(status)
		if !ok {
			return nil, invalid("status", "unknown status "+status)
		}
		filter.Status = st
	}
	list, err := s.store.ListObjectives(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list objectives: %w", err)
	}
	return list, nil
}

// ListAllObjectives returns up to limit objectives of every owner.
func (s *ObjectiveService) ListAllObjectives(ctx context.Context, limit int64) ([]models.Objective, error) {
	list, err := s.store.ListAllObjectives(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list all objectives: %w", err)
	}
	return list, nil
}

// EditObjective replaces the caller's objective with in. Per-key-result and
// top-level progress are clamped, never rejected. No log entry is written.
func (s *ObjectiveService) EditObjective(ctx context.Context, id, callerID int64, in EditObjectiveInput) (o *models.Objective, err error) {
	defer func() { s.record("edit", err) }()

	title := strings.TrimSpace(in.Objective)
	if title == "" {
		return nil, invalid("objective", "objective is required")
	}
	priority, ok := models.ParsePriority(in.Priority)
	if !ok {
		return nil, invalid("priority", "priority must be Low, Medium or High")
	}
	status, ok := models.ParseStatus(in.Status)
	if !ok {
		return nil, invalid("status", "status must be Active, In Progress or Completed")
	}
	keyResults, err := normalizeEditedKeyResults(in.KeyResult)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	attempts := 1
	if in.Version == 0 {
		attempts = editRetries
	}
	for attempt := 1; ; attempt++ {
		current, err := s.GetObjective(ctx, id, callerID)
		if err != nil {
			return nil, err
		}
		expected := in.Version
		if expected == 0 {
			expected = current.Version
		}

		next := current.Clone()
		next.Objective = title
		next.KeyResult = keyResults.Clone()
		assignKeyResultIDs(&next.KeyResult, current.KeyResult)
		next.Priority = priority
		next.Status = status
		next.Progress = tracker.NormalizeProgress(in.Progress)
		next.DueDate = nil
		if in.DueDate != nil && !in.DueDate.IsZero() {
			d := *in.DueDate
			next.DueDate = &d
		}
		next.Category = category

		updated, err := s.store.UpdateObjective(ctx, &next, expected)
		if errors.Is(err, repository.ErrConflict) && attempt < attempts {
			logger.Log.WithField("objective_id", id).Warn("Objective changed during edit, retrying")
			continue
		}
		if err != nil {
			logger.Log.WithField("objective_id", id).WithError(err).Error("Failed to update objective")
			return nil, fmt.Errorf("failed to update objective: %w", err)
		}
		return updated, nil
	}
}

// normalizeEditedKeyResults trims titles and clamps progress. Legacy entries
// keep their shape.
func normalizeEditedKeyResults(k models.KeyResults) (models.KeyResults, error) {
	out := k.Clone()
	for i := range out.Items {
		kr := &out.Items[i]
		kr.Title = strings.TrimSpace(kr.Title)
		if kr.Title == "" {
			return models.KeyResults{}, invalid("keyResult", fmt.Sprintf("key result %d has no title", i))
		}
		if kr.Legacy {
			kr.Progress = 0
			continue
		}
		kr.Progress = tracker.ClampProgress(kr.Progress)
	}
	return out, nil
}

// assignKeyResultIDs gives object entries submitted without an id the id of
// the stored entry at the same position with the same title, so earlier log
// entries keep pointing at them. Anything else gets a fresh id.
func assignKeyResultIDs(next *models.KeyResults, current models.KeyResults) {
	used := make(map[string]bool, len(next.Items))
	for _, kr := range next.Items {
		if kr.ID != "" {
			used[kr.ID] = true
		}
	}
	for i := range next.Items {
		kr := &next.Items[i]
		if kr.Legacy || kr.ID != "" {
			continue
		}
		if current.IsArray() && i < len(current.Items) {
			prev := current.Items[i]
			if prev.ID != "" && !used[prev.ID] && strings.TrimSpace(prev.Title) == kr.Title {
				kr.ID = prev.ID
				used[prev.ID] = true
				continue
			}
		}
		kr.ID = uuid.NewString()
		used[kr.ID] = true
	}
}

// LogProgress records progress for the key result at keyIndex and updates it
// in place. A legacy string entry becomes an object keeping its title. The
// objective is refused once its due date is before today.
func (s *ObjectiveService) LogProgress(ctx context.Context, goalID int64, keyIndex int, progress float64, notedBy int64) (o *models.Objective, entry *models.ProgressLogEntry, err error) {
	defer func() { s.record("logProgress", err) }()

	current, err := s.GetObjective(ctx, goalID, notedBy)
	if err != nil {
		return nil, nil, err
	}
	if tracker.IsLocked(current.DueDate, s.Today()) {
		logger.Log.WithField("objective_id", goalID).Warn("Progress refused on locked objective")
		return nil, nil, ErrLocked
	}
	if keyIndex < 0 || keyIndex >= current.KeyResult.Len() {
		return nil, nil, invalid("keyIndex", fmt.Sprintf("key index %d out of range", keyIndex))
	}

	next := current.Clone()
	kr := &next.KeyResult.Items[keyIndex]
	kr.Legacy = false
	if kr.ID == "" {
		kr.ID = uuid.NewString()
	}
	kr.Progress = tracker.NormalizeProgress(progress)

	entry = &models.ProgressLogEntry{
		GoalID:      goalID,
		KeyIndex:    keyIndex,
		KeyResultID: kr.ID,
		Progress:    kr.Progress,
		NotedAt:     s.clock.Now().UTC(),
		NotedBy:     notedBy,
	}
	entry, err = s.store.AppendProgress(ctx, &next, current.Version, entry)
	if err != nil {
		logger.Log.WithField("objective_id", goalID).WithError(err).Error("Failed to log progress")
		return nil, nil, fmt.Errorf("failed to log progress: %w", err)
	}
	return &next, entry, nil
}

// DeleteObjective hard-deletes the caller's objective and its progress log.
func (s *ObjectiveService) DeleteObjective(ctx context.Context, id, callerID int64) (err error) {
	defer func() { s.record("delete", err) }()

	if _, err := s.GetObjective(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.store.DeleteObjective(ctx, id, callerID); err != nil {
		return fmt.Errorf("failed to delete objective: %w", err)
	}
	logger.Log.WithField("objective_id", id).Info("Objective deleted in service layer")
	return nil
}

// GetProgressLog returns the newest entries for the caller's objective.
// limit is clamped to [1, MaxLogLimit]; 0 selects DefaultLogLimit.
func (s *ObjectiveService) GetProgressLog(ctx context.Context, goalID, callerID int64, limit int) ([]models.ProgressLogEntry, error) {
	if _, err := s.GetObjective(ctx, goalID, callerID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListProgressLog(ctx, goalID, ClampLogLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress log: %w", err)
	}
	return entries, nil
}

// ClampLogLimit applies the default and bounds of a progress log fetch.
func ClampLogLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLogLimit
	case limit < 1:
		return 1
	case limit > MaxLogLimit:
		return MaxLogLimit
	}
	return limit
}

// Describe derives the view of o as of today.
func (s *ObjectiveService) Describe(o models.Objective) ObjectiveView {
	return Describe(o, s.Today())
}

// Describe derives aggregate progress, schedule health and pace for o.
// Schedule health and pace use the aggregate figure.
func Describe(o models.Objective, today models.Date) ObjectiveView {
	aggregate := tracker.AggregateProgress(o)
	return ObjectiveView{
		Objective:         o,
		AggregateProgress: aggregate,
		ScheduleStatus:    tracker.Classify(o.DueDate, aggregate, today),
		RequiredPace:      tracker.RequiredPace(o.DueDate, aggregate, today),
		Locked:            tracker.IsLocked(o.DueDate, today),
	}
}
