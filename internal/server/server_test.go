package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ElephantWatchAPI/internal/auth"
	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/detection"
	"ElephantWatchAPI/internal/geo"
	"ElephantWatchAPI/internal/handler"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/metrics"
	"ElephantWatchAPI/internal/middleware"
	"ElephantWatchAPI/internal/mirror"
	"ElephantWatchAPI/internal/service"
	"ElephantWatchAPI/internal/simulation"
	"ElephantWatchAPI/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestServer(t *testing.T, withAuth bool) (http.Handler, *auth.Authenticator) {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, MaxUploadBytes: 1 << 20},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: []string{"*"},
			CORSAllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		},
	}

	collector, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	store := simulation.NewStore(log)
	m := mirror.NewMemory()
	hub := websocket.NewHub(log)

	hash, err := auth.HashPassword("ranger")
	if err != nil {
		t.Fatal(err)
	}
	authn := auth.New("secret", hash, time.Hour)

	h := Handlers{
		Mirror:     handler.NewMirrorHandler(service.NewAlertService(service.AlertServiceConfig{Mirror: m, Logger: log}), log),
		Chat:       handler.NewChatHandler(service.NewChatService(m, nil, collector, log), cfg.Server.MaxUploadBytes, log),
		Simulation: handler.NewSimulationHandler(store, log),
		Zone:       handler.NewZoneHandler(geo.DefaultZones(), log),
		Detect:     handler.NewDetectHandler(detection.NewClient("", 0), cfg.Server.MaxUploadBytes, log),
		Config:     handler.NewConfigHandler(cfg.Map),
		Health:     handler.NewHealthHandler(log),
		WS:         handler.NewWSHandler(hub, store, log),
	}

	var verifier middleware.TokenVerifier
	if withAuth {
		h.Auth = handler.NewAuthHandler(authn, log)
		verifier = authn
	}

	srv := New(cfg, collector, log)
	srv.RegisterHandlers(context.Background(), h, verifier)
	return srv.Handler(), authn
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutesOpenWithoutAuth(t *testing.T) {
	h, _ := newTestServer(t, false)

	tests := []struct {
		method, path, body string
		status             int
	}{
		{"GET", "/api/state", "", http.StatusOK},
		{"POST", "/api/scenario", `{"mode":"Normal Operations"}`, http.StatusOK},
		{"GET", "/api/zones", "", http.StatusOK},
		{"GET", "/api/mirror", "", http.StatusOK},
		{"GET", "/api/config/public", "", http.StatusOK},
		{"POST", "/api/detect", "", http.StatusServiceUnavailable},
		{"GET", "/health/live", "", http.StatusOK},
		{"POST", "/api/auth/login", `{"password":"ranger"}`, http.StatusNotFound},
		{"GET", "/api/nowhere", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		if rec := do(h, tt.method, tt.path, tt.body, ""); rec.Code != tt.status {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.status, rec.Code)
		}
	}
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	h, authn := newTestServer(t, true)

	if rec := do(h, "POST", "/api/scenario", `{"mode":"Normal Operations"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(h, "GET", "/api/state", "", ""); rec.Code != http.StatusOK {
		t.Errorf("reads should stay public, got %d", rec.Code)
	}

	token, _, err := authn.Login("ranger")
	if err != nil {
		t.Fatal(err)
	}
	if rec := do(h, "POST", "/api/scenario", `{"mode":"Normal Operations"}`, token); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
	if rec := do(h, "POST", "/api/auth/login", `{"password":"ranger"}`, ""); rec.Code != http.StatusOK {
		t.Errorf("login should be mounted, got %d", rec.Code)
	}
}

func TestPreflightAndMetrics(t *testing.T) {
	h, _ := newTestServer(t, false)

	rec := do(h, "OPTIONS", "/api/simulate", "", "")
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("unexpected preflight %d %v", rec.Code, rec.Header())
	}

	do(h, "GET", "/api/state", "", "")
	rec = do(h, "GET", "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/api/state"`) {
		t.Errorf("expected request metric for /api/state")
	}
	if rec.Header().Get(middleware.RequestIDHeader) != "" {
		t.Error("request ids are only assigned on /api routes")
	}
}
