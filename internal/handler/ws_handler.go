package handler

import (
	"net/http"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/simulation"
	"ElephantWatchAPI/internal/websocket"

	"github.com/gorilla/mux"
)

// WSHandler upgrades console connections and greets them with the current state.
type WSHandler struct {
	hub   *websocket.Hub
	store *simulation.Store
	log   *logger.Logger
}

func NewWSHandler(hub *websocket.Hub, store *simulation.Store, log *logger.Logger) *WSHandler {
	return &WSHandler{hub: hub, store: store, log: log}
}

func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.Serve).Methods("GET")
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	greeting := &websocket.Message{Type: websocket.TypeState, Payload: h.store.Snapshot()}
	websocket.ServeWs(h.hub, w, r, h.log, greeting)
}
