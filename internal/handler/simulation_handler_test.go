package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/simulation"

	"github.com/gorilla/mux"
)

func newSimulationRouter() (*mux.Router, *simulation.Store) {
	store := simulation.NewStore(logger.Discard())
	h := NewSimulationHandler(store, logger.Discard())
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	h.RegisterRoutes(api, api)
	return r, store
}

func TestTriggerScenario(t *testing.T) {
	r, store := newSimulationRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/scenario",
		strings.NewReader(`{"mode":"Scenario B: Critical Threat","userLat":12.9,"userLng":101.8}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snap models.SimulationSnapshot
	decode(t, rec, &snap)
	if snap.ThreatLevel != models.ThreatHigh || snap.SimMode != models.ModeCriticalThreat {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if got := store.Snapshot().ThreatLevel; got != models.ThreatHigh {
		t.Errorf("store not updated, threat %s", got)
	}
}

func TestTriggerScenarioRejectsBadBody(t *testing.T) {
	r, _ := newSimulationRouter()

	for _, body := range []string{`{`, `{}`} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/scenario", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestSetModeOnlyChangesMode(t *testing.T) {
	r, store := newSimulationRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/scenario/mode",
		strings.NewReader(`{"mode":"Scenario A: Buffer Breach"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	snap := store.Snapshot()
	if snap.SimMode != models.ModeBufferBreach || snap.ThreatLevel != models.ThreatLow {
		t.Errorf("expected mode only change, got %s/%s", snap.SimMode, snap.ThreatLevel)
	}
}

func TestDevicesSummary(t *testing.T) {
	r, store := newSimulationRouter()
	store.TriggerScenario(t.Context(), models.ModeHealthCheck, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/devices", nil))

	var sum models.DeviceSummary
	decode(t, rec, &sum)
	if sum.Total != 8 || sum.Online != sum.Total-1 {
		t.Errorf("unexpected summary online=%d total=%d", sum.Online, sum.Total)
	}
}

func TestLogsAndScenarios(t *testing.T) {
	r, store := newSimulationRouter()
	store.TriggerScenario(t.Context(), models.ModeBufferBreach, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/logs", nil))
	var logs []string
	decode(t, rec, &logs)
	if len(logs) < 2 || !strings.Contains(logs[0], "S-21") {
		t.Errorf("unexpected logs %v", logs)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/scenarios", nil))
	var modes []models.ScenarioMode
	decode(t, rec, &modes)
	if len(modes) != 4 || modes[0] != models.ModeNormal {
		t.Errorf("unexpected modes %v", modes)
	}
}

func TestExportLogsPDF(t *testing.T) {
	r, _ := newSimulationRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/logs/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Error("expected attachment disposition")
	}
}
