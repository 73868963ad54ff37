package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/internal/repository"
	"github.com/Dias221467/Employee_Manager/internal/services"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
	"github.com/Dias221467/Employee_Manager/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ObjectiveHandler handles HTTP requests related to objectives.
type ObjectiveHandler struct {
	Service *services.ObjectiveService
}

// NewObjectiveHandler creates a new instance of ObjectiveHandler.
func NewObjectiveHandler(service *services.ObjectiveService) *ObjectiveHandler {
	return &ObjectiveHandler{Service: service}
}

// objectivePayload is the body of create and edit requests.
type objectivePayload struct {
	Objective string            `json:"objective"`
	KeyResult models.KeyResults `json:"keyResult"`
	Priority  string            `json:"priority"`
	Status    string            `json:"status"`
	DueDate   *models.Date      `json:"duedate"`
	Category  string            `json:"category"`
	Progress  float64           `json:"progress"`
	Version   int               `json:"version"`
}

type progressPayload struct {
	KeyIndex *int    `json:"keyIndex"`
	Progress float64 `json:"progress"`
}

type progressResponse struct {
	Objective services.ObjectiveView  `json:"objective"`
	Entry     *models.ProgressLogEntry `json:"entry"`
}

// titles flattens submitted key results into creation titles.
func (p objectivePayload) titles() []string {
	switch p.KeyResult.Shape {
	case models.ShapeArray:
		out := make([]string, 0, len(p.KeyResult.Items))
		for _, kr := range p.KeyResult.Items {
			out = append(out, kr.Title)
		}
		return out
	case models.ShapeText:
		return []string{p.KeyResult.Text}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// writeError maps service and store errors to status codes. Anything not
// recognised is reported as a generic failure.
func writeError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrPartialWrite):
		logger.Log.WithError(err).Error("Progress write left objective and log inconsistent")
		http.Error(w, "Action failed", http.StatusInternalServerError)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, "Forbidden: You can only access your own objectives", http.StatusForbidden)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Objective not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrConflict):
		http.Error(w, "Objective was modified by someone else, reload and retry", http.StatusConflict)
	case errors.Is(err, services.ErrLocked):
		http.Error(w, "Objective is locked: due date has passed", http.StatusLocked)
	default:
		http.Error(w, "Action failed", http.StatusInternalServerError)
	}
}

func objectiveID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// ListObjectivesHandler lists the caller's objectives with derived figures.
func (h *ObjectiveHandler) ListObjectivesHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		logrus.Warn("Unauthorized objective list attempt")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	list, err := h.Service.ListObjectives(r.Context(), claims.UserID, q.Get("category"), q.Get("status"))
	if err != nil {
		logrus.WithError(err).WithField("userID", claims.UserID).Warn("Failed to list objectives")
		writeError(w, err)
		return
	}

	today := h.Service.Today()
	views := make([]services.ObjectiveView, 0, len(list))
	for _, o := range list {
		views = append(views, services.Describe(o, today))
	}
	writeJSON(w, http.StatusOK, views)
}

// CreateObjectiveHandler handles the creation of a new objective.
func (h *ObjectiveHandler) CreateObjectiveHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		logrus.Warn("Unauthorized access attempt during objective creation")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload objectivePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logrus.WithError(err).Warn("Invalid request payload during objective creation")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	created, err := h.Service.CreateObjective(r.Context(), claims.UserID, services.CreateObjectiveInput{
		Objective:  payload.Objective,
		KeyResults: payload.titles(),
		Priority:   payload.Priority,
		DueDate:    payload.DueDate,
		Category:   payload.Category,
	})
	if err != nil {
		logrus.WithError(err).Warn("Failed to create objective")
		writeError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"userID":      claims.UserID,
		"objectiveID": created.ID,
	}).Info("Objective successfully created")

	writeJSON(w, http.StatusCreated, h.Service.Describe(*created))
}

// GetObjectiveHandler handles fetching a single objective by its ID.
func (h *ObjectiveHandler) GetObjectiveHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := objectiveID(r)
	if !ok {
		http.Error(w, "Invalid objective ID", http.StatusBadRequest)
		return
	}

	o, err := h.Service.GetObjective(r.Context(), id, claims.UserID)
	if err != nil {
		logrus.WithError(err).WithField("objectiveID", id).Warn("Objective fetch failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Describe(*o))
}

// UpdateObjectiveHandler replaces an objective with the request body.
func (h *ObjectiveHandler) UpdateObjectiveHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		logrus.Warn("Unauthorized update attempt")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := objectiveID(r)
	if !ok {
		http.Error(w, "Invalid objective ID", http.StatusBadRequest)
		return
	}

	var payload objectivePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logrus.WithError(err).Warn("Invalid update payload")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	updated, err := h.Service.EditObjective(r.Context(), id, claims.UserID, services.EditObjectiveInput{
		Objective: payload.Objective,
		KeyResult: payload.KeyResult,
		Priority:  payload.Priority,
		Status:    payload.Status,
		DueDate:   payload.DueDate,
		Category:  payload.Category,
		Progress:  payload.Progress,
		Version:   payload.Version,
	})
	if err != nil {
		logrus.WithError(err).WithField("objectiveID", id).Warn("Failed to update objective")
		writeError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"userID":      claims.UserID,
		"objectiveID": id,
		"version":     updated.Version,
	}).Info("Objective successfully updated")
	writeJSON(w, http.StatusOK, h.Service.Describe(*updated))
}

// DeleteObjectiveHandler hard-deletes an objective.
func (h *ObjectiveHandler) DeleteObjectiveHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := objectiveID(r)
	if !ok {
		http.Error(w, "Invalid objective ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteObjective(r.Context(), id, claims.UserID); err != nil {
		logrus.WithError(err).WithField("objectiveID", id).Warn("Failed to delete objective")
		writeError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"userID":      claims.UserID,
		"objectiveID": id,
	}).Info("Objective deleted")
	w.WriteHeader(http.StatusNoContent)
}

// LogProgressHandler records progress for one key result.
func (h *ObjectiveHandler) LogProgressHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := objectiveID(r)
	if !ok {
		http.Error(w, "Invalid objective ID", http.StatusBadRequest)
		return
	}

	var payload progressPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if payload.KeyIndex == nil {
		http.Error(w, "keyIndex: key index is required", http.StatusBadRequest)
		return
	}

	updated, entry, err := h.Service.LogProgress(r.Context(), id, *payload.KeyIndex, payload.Progress, claims.UserID)
	if err != nil {
		logrus.WithError(err).WithField("objectiveID", id).Warn("Failed to log progress")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, progressResponse{
		Objective: h.Service.Describe(*updated),
		Entry:     entry,
	})
}

// ProgressLogHandler returns the newest progress entries of an objective.
func (h *ObjectiveHandler) ProgressLogHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := objectiveID(r)
	if !ok {
		http.Error(w, "Invalid objective ID", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.Service.GetProgressLog(r.Context(), id, claims.UserID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.ProgressLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// AdminListObjectivesHandler lists objectives of every owner, up to ?limit
// (default 100).
func (h *ObjectiveHandler) AdminListObjectivesHandler(w http.ResponseWriter, r *http.Request) {
	limit := int64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list, err := h.Service.ListAllObjectives(r.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to list all objectives")
		writeError(w, err)
		return
	}

	today := h.Service.Today()
	views := make([]services.ObjectiveView, 0, len(list))
	for _, o := range list {
		views = append(views, services.Describe(o, today))
	}
	writeJSON(w, http.StatusOK, views)
}
