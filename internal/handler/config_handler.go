package handler

import (
	"net/http"

	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/models"

	"github.com/gorilla/mux"
)

// ConfigHandler exposes the browser-safe subset of the configuration.
type ConfigHandler struct {
	public models.PublicConfig
}

func NewConfigHandler(cfg config.MapConfig) *ConfigHandler {
	return &ConfigHandler{public: models.PublicConfig{MapClientID: cfg.ClientID, LiffID: cfg.LiffID}}
}

func (h *ConfigHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/config/public", h.GetPublic).Methods("GET")
}

func (h *ConfigHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.public)
}
