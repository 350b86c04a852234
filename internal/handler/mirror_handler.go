package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/service"

	"github.com/gorilla/mux"
)

// MirrorHandler serves the server-side mirror and alert endpoints.
type MirrorHandler struct {
	alertService *service.AlertService
	log          *logger.Logger
}

func NewMirrorHandler(alertService *service.AlertService, log *logger.Logger) *MirrorHandler {
	return &MirrorHandler{
		alertService: alertService,
		log:          log,
	}
}

func (h *MirrorHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sync_elephant", h.SyncElephant).Methods("POST")
	r.HandleFunc("/simulate", h.Simulate).Methods("POST")
	r.HandleFunc("/mirror", h.GetMirror).Methods("GET")
	r.HandleFunc("/alerts", h.ListAlerts).Methods("GET")
}

type syncResponse struct {
	Status  string          `json:"status"`
	Updated json.RawMessage `json:"updated,omitempty"`
}

// SyncElephant echoes the accepted body back under "updated".
func (h *MirrorHandler) SyncElephant(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn("Failed to read sync body: %v", err)
		respondJSON(w, http.StatusInternalServerError, syncResponse{Status: "error"})
		return
	}

	var req models.SyncElephantRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.Warn("Invalid sync body: %v", err)
		respondJSON(w, http.StatusInternalServerError, syncResponse{Status: "error"})
		return
	}

	if _, err := h.alertService.SyncElephant(r.Context(), &req); err != nil {
		h.log.Error("Failed to sync elephant: %v", err)
		respondJSON(w, http.StatusInternalServerError, syncResponse{Status: "error"})
		return
	}

	respondJSON(w, http.StatusOK, syncResponse{Status: "success", Updated: body})
}

func (h *MirrorHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req models.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("Invalid simulate body: %v", err)
		respondJSON(w, http.StatusInternalServerError, models.SimulateResponse{Success: false})
		return
	}

	distance, err := h.alertService.Simulate(r.Context(), &req)
	if err != nil {
		h.log.Error("Simulate failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, models.SimulateResponse{Success: false})
		return
	}

	respondJSON(w, http.StatusOK, models.SimulateResponse{Success: true, Distance: distance})
}

func (h *MirrorHandler) GetMirror(w http.ResponseWriter, r *http.Request) {
	state, err := h.alertService.Mirror(r.Context())
	if err != nil {
		h.log.Error("Failed to read mirror: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to read mirror")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *MirrorHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}
	alerts, err := h.alertService.History(r.Context(), limit, queryInt(r, "offset", 0))
	if err != nil {
		h.log.Error("Failed to list alerts: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}
