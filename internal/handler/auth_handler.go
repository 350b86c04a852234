package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ElephantWatchAPI/internal/auth"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"

	"github.com/gorilla/mux"
)

type AuthHandler struct {
	auth *auth.Authenticator
	log  *logger.Logger
}

func NewAuthHandler(a *auth.Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: a, log: log}
}

func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, exp, err := h.auth.Login(req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.log.Warn("Rejected operator login from %s", r.RemoteAddr)
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.log.Error("Login failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, models.LoginResponse{Token: token, ExpiresAt: exp.Unix()})
}
