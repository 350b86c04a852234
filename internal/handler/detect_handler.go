package handler

import (
	"errors"
	"net/http"

	"ElephantWatchAPI/internal/detection"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"

	"github.com/gorilla/mux"
)

type DetectHandler struct {
	client    *detection.Client
	maxUpload int64
	log       *logger.Logger
}

func NewDetectHandler(client *detection.Client, maxUpload int64, log *logger.Logger) *DetectHandler {
	return &DetectHandler{client: client, maxUpload: maxUpload, log: log}
}

func (h *DetectHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/detect", h.Detect).Methods("POST")
}

// Detect forwards the "file" upload and optionally rescales boxes when both
// natural and display sizes are given.
func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	if !h.client.Configured() {
		respondError(w, http.StatusServiceUnavailable, "Detection service not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()

	dets, err := h.client.Detect(r.Context(), header.Filename, file)
	if errors.Is(err, detection.ErrNotConfigured) {
		respondError(w, http.StatusServiceUnavailable, "Detection service not configured")
		return
	}
	if err != nil {
		h.log.Error("Detection failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to connect to detection API")
		return
	}

	dets = detection.Scale(dets,
		formFloat(r, "natural_width"), formFloat(r, "natural_height"),
		formFloat(r, "display_width"), formFloat(r, "display_height"),
	)
	respondJSON(w, http.StatusOK, models.DetectResponse{Detections: dets})
}
