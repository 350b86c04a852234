package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/report"
	"ElephantWatchAPI/internal/simulation"

	"github.com/gorilla/mux"
)

// SimulationHandler exposes the scenario store to the operator console.
type SimulationHandler struct {
	store *simulation.Store
	log   *logger.Logger
}

func NewSimulationHandler(store *simulation.Store, log *logger.Logger) *SimulationHandler {
	return &SimulationHandler{
		store: store,
		log:   log,
	}
}

// RegisterRoutes puts reads on public and mutations on protected.
func (h *SimulationHandler) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/state", h.GetState).Methods("GET")
	public.HandleFunc("/scenarios", h.ListScenarios).Methods("GET")
	public.HandleFunc("/devices", h.ListDevices).Methods("GET")
	public.HandleFunc("/logs", h.ListLogs).Methods("GET")

	protected.HandleFunc("/scenario", h.TriggerScenario).Methods("POST")
	protected.HandleFunc("/scenario/mode", h.SetMode).Methods("PUT")
	protected.HandleFunc("/logs/export", h.ExportLogs).Methods("GET")
}

func (h *SimulationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *SimulationHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.ScenarioModes())
}

func (h *SimulationHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices := h.store.Devices()
	online := 0
	for _, d := range devices {
		if d.Status == models.DeviceOnline {
			online++
		}
	}
	respondJSON(w, http.StatusOK, models.DeviceSummary{
		Devices: devices,
		Online:  online,
		Total:   len(devices),
	})
}

func (h *SimulationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Logs())
}

func (h *SimulationHandler) TriggerScenario(w http.ResponseWriter, r *http.Request) {
	var req models.TriggerScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("Invalid request body: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Mode == "" {
		respondError(w, http.StatusBadRequest, "mode is required")
		return
	}

	snap := h.store.TriggerScenario(r.Context(), req.Mode, req.Caller())
	respondJSON(w, http.StatusOK, snap)
}

func (h *SimulationHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req models.SetModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mode == "" {
		respondError(w, http.StatusBadRequest, "mode is required")
		return
	}

	h.store.SetMode(req.Mode)
	respondJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *SimulationHandler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var buf bytes.Buffer
	if err := report.LogPDF(&buf, h.store.Snapshot(), now); err != nil {
		h.log.Error("Failed to export logs: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to export logs")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="event-log-`+now.Format("20060102-150405")+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
