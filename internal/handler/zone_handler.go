package handler

import (
	"net/http"
	"strconv"

	"ElephantWatchAPI/internal/geo"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"

	"github.com/gorilla/mux"
)

// ZoneHandler serves the geofence overlays. A nil zone set renders as an
// empty collection.
type ZoneHandler struct {
	zones *geo.Zones
	log   *logger.Logger
}

func NewZoneHandler(zones *geo.Zones, log *logger.Logger) *ZoneHandler {
	return &ZoneHandler{zones: zones, log: log}
}

func (h *ZoneHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/zones", h.GetZones).Methods("GET")
	r.HandleFunc("/zones/classify", h.Classify).Methods("GET")
}

func (h *ZoneHandler) GetZones(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.zones.FeatureCollection())
}

type classifyResponse struct {
	Position models.Position `json:"position"`
	Zone     string          `json:"zone"`
}

func (h *ZoneHandler) Classify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		respondError(w, http.StatusBadRequest, "lat and lng must be numbers")
		return
	}

	p := models.Position{Lat: lat, Lng: lng}
	respondJSON(w, http.StatusOK, classifyResponse{Position: p, Zone: h.zones.Classify(p)})
}
