package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dias221467/Employee_Manager/internal/handlers"
	"github.com/Dias221467/Employee_Manager/internal/metrics"
	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/internal/repository"
	"github.com/Dias221467/Employee_Manager/internal/services"
	"github.com/Dias221467/Employee_Manager/internal/testutil"
	"github.com/Dias221467/Employee_Manager/internal/tracker"
	"github.com/Dias221467/Employee_Manager/pkg/jwt"
)

const secret = "test-secret"

type testServer struct {
	t      *testing.T
	router http.Handler
	store  *repository.SQLStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewTestStore(t)
	reg := prometheus.NewRegistry()
	m, err := metrics.New("okr", reg)
	require.NoError(t, err)

	clock := tracker.FixedClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	svc := services.NewObjectiveService(store, clock, m)
	return &testServer{t: t, router: handlers.NewRouter(handlers.NewObjectiveHandler(svc), secret, m, reg), store: store}
}

func (s *testServer) do(userID int64, method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.doAs(userID, "employee", method, path, body)
}

func (s *testServer) doAs(userID int64, role, method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if userID != 0 {
		token, err := jwt.GenerateToken(userID, role, secret, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

const launchBeta = `{
	"objective": "Launch beta",
	"keyResult": ["Write docs", "Ship code"],
	"duedate": "2025-03-11",
	"priority": "High",
	"category": "Eng"
}`

func TestObjectiveLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(1, http.MethodPost, "/objectives", launchBeta)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]interface{}
	decode(t, rec, &created)
	assert.Equal(t, "Active", created["status"])
	assert.Equal(t, float64(0), created["aggregateProgress"])
	assert.Equal(t, "At Risk", created["scheduleStatus"])
	assert.Equal(t, "2025-03-11", created["duedate"])
	assert.Equal(t, false, created["locked"])
	id := int64(created["id"].(float64))

	rec = srv.do(1, http.MethodPost, fmt.Sprintf("/objectives/%d/progress", id), `{"keyIndex": 1, "progress": 60}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var logged struct {
		Objective map[string]interface{} `json:"objective"`
		Entry     map[string]interface{} `json:"entry"`
	}
	decode(t, rec, &logged)
	assert.Equal(t, float64(30), logged.Objective["aggregateProgress"])
	assert.Equal(t, float64(1), logged.Entry["keyIndex"])
	assert.Equal(t, float64(60), logged.Entry["progress"])

	rec = srv.do(1, http.MethodGet, fmt.Sprintf("/objectives/%d/progress?limit=5", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]interface{}
	decode(t, rec, &entries)
	assert.Len(t, entries, 1)

	rec = srv.do(1, http.MethodGet, "/objectives?category=Eng", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = srv.do(2, http.MethodGet, fmt.Sprintf("/objectives/%d", id), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(1, http.MethodDelete, fmt.Sprintf("/objectives/%d", id), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(1, http.MethodGet, fmt.Sprintf("/objectives/%d", id), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateObjectiveConflict(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(1, http.MethodPost, "/objectives", launchBeta)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]interface{}
	decode(t, rec, &created)
	path := fmt.Sprintf("/objectives/%d", int64(created["id"].(float64)))

	body := `{
		"objective": "Launch beta",
		"keyResult": [{"title": "Write docs", "progress": 120}, "Ship code"],
		"priority": "High",
		"status": "In Progress",
		"duedate": "2025-03-20",
		"progress": 40,
		"version": 1
	}`
	rec = srv.do(1, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]interface{}
	decode(t, rec, &updated)
	assert.Equal(t, float64(2), updated["version"])
	assert.Equal(t, float64(40), updated["progress"])
	assert.Equal(t, float64(50), updated["aggregateProgress"])
	keyResults := updated["keyResult"].([]interface{})
	assert.Equal(t, "Ship code", keyResults[1])

	rec = srv.do(1, http.MethodPut, path, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestObjectiveErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(0, http.MethodGet, "/objectives", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(1, http.MethodPost, "/objectives", `{"objective": "", "keyResult": ["a"], "duedate": "2025-03-11", "priority": "Low"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "objective:"))

	rec = srv.do(1, http.MethodPost, "/objectives", `{"objective": "x", "keyResult": 12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(1, http.MethodGet, "/objectives/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(1, http.MethodPost, "/objectives", launchBeta)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]interface{}
	decode(t, rec, &created)
	progressPath := fmt.Sprintf("/objectives/%d/progress", int64(created["id"].(float64)))

	rec = srv.do(1, http.MethodPost, progressPath, `{"progress": 10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(1, http.MethodPost, progressPath, `{"keyIndex": 5, "progress": 10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(1, http.MethodGet, progressPath+"?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(0, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(0, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "okr_http_requests_total")
}

func TestAdminListObjectives(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, srv.do(1, http.MethodPost, "/objectives", launchBeta).Code)
	require.Equal(t, http.StatusCreated, srv.do(2, http.MethodPost, "/objectives", launchBeta).Code)

	rec := srv.do(1, http.MethodGet, "/admin/objectives", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.doAs(9, handlers.AdminRole, http.MethodGet, "/admin/objectives", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	decode(t, rec, &list)
	assert.Len(t, list, 2)
}

func TestLogProgressOnOverdueObjectiveIsLocked(t *testing.T) {
	srv := newTestServer(t)

	yesterday := models.NewDate(2025, time.March, 9)
	o, err := srv.store.CreateObjective(context.Background(), &models.Objective{
		Objective: "Close Q1 books",
		KeyResult: models.NewKeyResults(models.KeyResult{ID: "k1", Title: "Reconcile"}),
		Priority:  models.PriorityMedium,
		Status:    models.StatusActive,
		DueDate:   &yesterday,
		OwnerID:   1,
	})
	require.NoError(t, err)

	rec := srv.do(1, http.MethodPost, fmt.Sprintf("/objectives/%d/progress", o.ID), `{"keyIndex": 0, "progress": 50}`)
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = srv.do(1, http.MethodGet, fmt.Sprintf("/objectives/%d", o.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view map[string]interface{}
	decode(t, rec, &view)
	assert.Equal(t, true, view["locked"])
	assert.Equal(t, "Overdue", view["scheduleStatus"])

	entries, err := srv.store.ListProgressLog(context.Background(), o.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
