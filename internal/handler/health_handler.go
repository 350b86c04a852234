package handler

import (
	"context"
	"net/http"
	"time"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"

	"github.com/gorilla/mux"
)

// HealthCheck probes one dependency. Critical checks gate readiness.
type HealthCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Critical bool
}

type HealthHandler struct {
	checks  []HealthCheck
	started time.Time
	log     *logger.Logger
}

func NewHealthHandler(log *logger.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		started: time.Now(),
		log:     log,
	}
}

func (h *HealthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/health/live", h.Liveness).Methods("GET")
	r.HandleFunc("/health/ready", h.Readiness).Methods("GET")
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Services:  make(map[string]string, len(h.checks)),
	}

	criticalDown := false
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			response.Services[c.Name] = err.Error()
			response.Status = "degraded"
			criticalDown = criticalDown || c.Critical
			continue
		}
		response.Services[c.Name] = "up"
	}

	statusCode := http.StatusOK
	if response.Status == "degraded" {
		h.log.Warn("Health check degraded: %v", response.Services)
		if criticalDown {
			statusCode = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, statusCode, response)
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, c := range h.checks {
		if !c.Critical {
			continue
		}
		if err := c.Check(ctx); err != nil {
			h.log.Warn("Readiness check failed - %s: %v", c.Name, err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
