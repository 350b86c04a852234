package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ElephantWatchAPI/internal/auth"
	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/geo"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/simulation"
	"ElephantWatchAPI/internal/websocket"

	"github.com/gorilla/mux"
	gws "github.com/gorilla/websocket"
)

func TestZonesFeatureCollection(t *testing.T) {
	h := NewZoneHandler(geo.DefaultZones(), logger.Discard())
	rec := serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/zones", nil))

	var fc struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	decode(t, rec, &fc)
	if fc.Type != "FeatureCollection" || len(fc.Features) != 3 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	if fc.Features[2].Properties["name"] != geo.ZoneForest {
		t.Errorf("forest should be drawn last, got %v", fc.Features[2].Properties["name"])
	}
	// [minLng, minLat, maxLng, maxLat] of the forest, for fitBounds
	if len(fc.BBox) != 4 || fc.BBox[0] != 101.805 || fc.BBox[3] != 12.878 {
		t.Errorf("unexpected bbox %v", fc.BBox)
	}
}

func TestZonesEmptyWithoutBoundary(t *testing.T) {
	h := NewZoneHandler(nil, logger.Discard())
	rec := serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/zones", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"features":[]`) {
		t.Errorf("expected empty collection, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestZonesClassify(t *testing.T) {
	h := NewZoneHandler(geo.DefaultZones(), logger.Discard())

	rec := serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/zones/classify?lat=12.872&lng=101.811", nil))
	var resp struct {
		Zone string `json:"zone"`
	}
	decode(t, rec, &resp)
	if resp.Zone != geo.ZoneForest {
		t.Errorf("expected forest, got %q", resp.Zone)
	}

	rec = serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/zones/classify?lat=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("ranger")
	if err != nil {
		t.Fatal(err)
	}
	h := NewAuthHandler(auth.New("secret", hash, time.Hour), logger.Discard())

	rec := serve(t, h.RegisterRoutes, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"password":"ranger"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.LoginResponse
	decode(t, rec, &resp)
	if resp.Token == "" || resp.ExpiresAt <= time.Now().Unix() {
		t.Errorf("unexpected login response %+v", resp)
	}

	rec = serve(t, h.RegisterRoutes, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"password":"poacher"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = serve(t, h.RegisterRoutes, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`[`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPublicConfig(t *testing.T) {
	h := NewConfigHandler(config.MapConfig{ClientID: "map-123", LiffID: "liff-9"})
	rec := serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/config/public", nil))

	var resp models.PublicConfig
	decode(t, rec, &resp)
	if resp.MapClientID != "map-123" || resp.LiffID != "liff-9" {
		t.Errorf("unexpected config %+v", resp)
	}
}

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		health int
		status string
		ready  int
	}{
		{"all up", []HealthCheck{{Name: "database", Check: up, Critical: true}}, http.StatusOK, "healthy", http.StatusOK},
		{"optional down", []HealthCheck{
			{Name: "database", Check: up, Critical: true},
			{Name: "detection", Check: down},
		}, http.StatusOK, "degraded", http.StatusOK},
		{"critical down", []HealthCheck{{Name: "mirror", Check: down, Critical: true}}, http.StatusServiceUnavailable, "degraded", http.StatusServiceUnavailable},
		{"no checks", nil, http.StatusOK, "healthy", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(logger.Discard(), tt.checks...)

			rec := serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/health", nil))
			if rec.Code != tt.health {
				t.Errorf("health: expected %d, got %d", tt.health, rec.Code)
			}
			var resp models.HealthResponse
			decode(t, rec, &resp)
			if resp.Status != tt.status {
				t.Errorf("expected status %q, got %q", tt.status, resp.Status)
			}
			if len(resp.Services) != len(tt.checks) {
				t.Errorf("expected %d services, got %v", len(tt.checks), resp.Services)
			}

			rec = serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/health/ready", nil))
			if rec.Code != tt.ready {
				t.Errorf("ready: expected %d, got %d", tt.ready, rec.Code)
			}

			rec = serve(t, h.RegisterRoutes, httptest.NewRequest("GET", "/api/health/live", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("live: expected 200, got %d", rec.Code)
			}
		})
	}
}

func TestWebSocketGreetsWithState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(logger.Discard())
	go hub.Run(ctx)
	store := simulation.NewStore(logger.Discard())
	store.TriggerScenario(ctx, models.ModeBufferBreach, nil)

	r := mux.NewRouter()
	NewWSHandler(hub, store, logger.Discard()).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg struct {
		Type    string                    `json:"type"`
		Payload models.SimulationSnapshot `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != websocket.TypeState || msg.Payload.ThreatLevel != models.ThreatMedium {
		t.Errorf("unexpected greeting %+v", msg)
	}
}
