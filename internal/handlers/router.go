package handlers

import (
	"net/http"

	"github.com/Dias221467/Employee_Manager/internal/metrics"
	"github.com/Dias221467/Employee_Manager/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminRole may list every employee's objectives.
const AdminRole = "admin"

// NewRouter wires the objective routes behind bearer auth plus the public
// health and metrics endpoints.
func NewRouter(h *ObjectiveHandler, jwtSecret string, m *metrics.Metrics, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestMetrics(m))
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	objectiveRoutes := router.PathPrefix("/objectives").Subrouter()
	objectiveRoutes.Use(middleware.AuthMiddleware(jwtSecret))
	objectiveRoutes.HandleFunc("", h.ListObjectivesHandler).Methods("GET")
	objectiveRoutes.HandleFunc("", h.CreateObjectiveHandler).Methods("POST")
	objectiveRoutes.HandleFunc("/{id:[0-9]+}", h.GetObjectiveHandler).Methods("GET")
	objectiveRoutes.HandleFunc("/{id:[0-9]+}", h.UpdateObjectiveHandler).Methods("PUT")
	objectiveRoutes.HandleFunc("/{id:[0-9]+}", h.DeleteObjectiveHandler).Methods("DELETE")
	objectiveRoutes.HandleFunc("/{id:[0-9]+}/progress", h.LogProgressHandler).Methods("POST")
	objectiveRoutes.HandleFunc("/{id:[0-9]+}/progress", h.ProgressLogHandler).Methods("GET")

	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(jwtSecret))
	adminRoutes.Use(middleware.RequireRole(AdminRole))
	adminRoutes.HandleFunc("/objectives", h.AdminListObjectivesHandler).Methods("GET")

	return router
}
