package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/simulation"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestScenarioMetrics(t *testing.T) {
	c := newCollector(t)

	out, _ := simulation.Transition(models.ModeHealthCheck)
	c.ScenarioTriggered(context.Background(), simulation.Event{
		Mode:  models.ModeHealthCheck,
		Known: true,
		Snapshot: models.SimulationSnapshot{
			ThreatLevel: out.Threat,
			Devices:     out.Devices,
		},
	})
	c.ScenarioTriggered(context.Background(), simulation.Event{Mode: "bogus"})

	if got := testutil.ToFloat64(c.ScenarioTriggers.WithLabelValues(string(models.ModeHealthCheck), "true")); got != 1 {
		t.Errorf("scenario_triggers_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ScenarioTriggers.WithLabelValues("bogus", "false")); got != 1 {
		t.Errorf("unknown trigger count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.DevicesOnline); got != 7 {
		t.Errorf("devices_online = %v, want 7", got)
	}
}

func TestAlertAndChatCounters(t *testing.T) {
	c := newCollector(t)
	c.AlertDispatched(context.Background(), &models.Alert{Level: models.ThreatHigh, Status: models.AlertStatusSent})
	c.ChatRelayed("ok")
	c.ChatRelayed("error")

	if got := testutil.ToFloat64(c.Alerts.WithLabelValues("HIGH", models.AlertStatusSent)); got != 1 {
		t.Errorf("alerts_total = %v", got)
	}
	if got := testutil.ToFloat64(c.ChatRelays.WithLabelValues("error")); got != 1 {
		t.Errorf("chat_relays_total = %v", got)
	}
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	c := newCollector(t)
	r := mux.NewRouter()
	r.Use(c.Middleware)
	r.HandleFunc("/api/zones/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/zones/forest", nil))

	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/zones/{name}", "418")); got != 1 {
		t.Errorf("http_requests_total = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := newCollector(t)
	c.ChatRelayed("ok")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "chat_relays_total") {
		t.Error("metrics output missing chat_relays_total")
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ChatRelayed("ok")
	c.AlertDispatched(context.Background(), &models.Alert{})
	c.ScenarioTriggered(context.Background(), simulation.Event{})
	c.Middleware(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg); err != nil {
		t.Errorf("second registration should reuse collectors: %v", err)
	}
}
