package simulation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 14, 3, 7, 0, time.UTC)
}

func newTestStore(opts ...Option) *Store {
	return NewStore(logger.Discard(), append([]Option{WithClock(fixedClock)}, opts...)...)
}

func TestInitialState(t *testing.T) {
	snap := newTestStore().Snapshot()

	if snap.SimMode != models.ModeNormal || snap.ThreatLevel != models.ThreatLow {
		t.Errorf("unexpected initial mode/threat: %s/%s", snap.SimMode, snap.ThreatLevel)
	}
	if snap.StatusBar != "Safe - Wildlife in Forest" {
		t.Errorf("unexpected status %q", snap.StatusBar)
	}
	if snap.ElephantPos != (models.Position{Lat: 12.876, Lng: 101.815}) {
		t.Errorf("unexpected position %v", snap.ElephantPos)
	}
	if len(snap.Devices) != 8 {
		t.Errorf("expected 8 seed devices, got %d", len(snap.Devices))
	}
	if !reflect.DeepEqual(snap.Logs, []string{"[09:00:00] System started."}) {
		t.Errorf("unexpected logs %v", snap.Logs)
	}
}

func TestTriggerScenarioTable(t *testing.T) {
	tests := []struct {
		mode   models.ScenarioMode
		pos    models.Position
		threat models.ThreatLevel
		status string
	}{
		{models.ModeNormal, models.Position{Lat: 12.876, Lng: 101.815}, models.ThreatLow, "Safe - Wildlife in Forest"},
		{models.ModeBufferBreach, models.Position{Lat: 12.880, Lng: 101.820}, models.ThreatMedium, "WARNING - Buffer Zone Breach"},
		{models.ModeCriticalThreat, models.Position{Lat: 12.885, Lng: 101.825}, models.ThreatHigh, "CRITICAL - Community Entry Imminent"},
		{models.ModeHealthCheck, models.Position{Lat: 12.876, Lng: 101.815}, models.ThreatLow, "SYSTEM CHECK - Gateway Node-4 Offline"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			s := newTestStore()
			snap := s.TriggerScenario(context.Background(), tt.mode, nil)

			if snap.SimMode != tt.mode {
				t.Errorf("mode = %s", snap.SimMode)
			}
			if snap.ElephantPos != tt.pos {
				t.Errorf("pos = %v, want %v", snap.ElephantPos, tt.pos)
			}
			if snap.ThreatLevel != tt.threat {
				t.Errorf("threat = %s, want %s", snap.ThreatLevel, tt.threat)
			}
			if snap.StatusBar != tt.status {
				t.Errorf("status = %q, want %q", snap.StatusBar, tt.status)
			}
			if len(snap.Logs) != 2 || !strings.HasPrefix(snap.Logs[0], "[14:03:07] ") {
				t.Errorf("expected one new timestamped log line first, got %v", snap.Logs)
			}
		})
	}
}

func TestHealthCheckChangesOnlyGateway(t *testing.T) {
	s := newTestStore()
	snap := s.TriggerScenario(context.Background(), models.ModeHealthCheck, nil)
	seed := SeedDevices()

	changed := 0
	for i, d := range snap.Devices {
		if d == seed[i] {
			continue
		}
		changed++
		if d.ID != HealthCheckGateway || d.Status != models.DeviceOffline || d.Battery != 0 {
			t.Errorf("unexpected device change: %+v", d)
		}
	}
	if changed != 1 {
		t.Errorf("expected exactly one changed device, got %d", changed)
	}

	// leaving the health check restores the seed fleet
	snap = s.TriggerScenario(context.Background(), models.ModeNormal, nil)
	if !reflect.DeepEqual(snap.Devices, seed) {
		t.Error("devices should be reset to seed")
	}
}

func TestUnknownModeOnlyChangesSelector(t *testing.T) {
	s := newTestStore()
	before := s.TriggerScenario(context.Background(), models.ModeCriticalThreat, nil)
	after := s.TriggerScenario(context.Background(), "Scenario Z", nil)

	if after.SimMode != "Scenario Z" {
		t.Errorf("selector should follow unknown mode, got %s", after.SimMode)
	}
	after.SimMode = before.SimMode
	if !reflect.DeepEqual(before, after) {
		t.Errorf("unknown mode changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestTriggerIsIdempotent(t *testing.T) {
	s := newTestStore()
	first := s.TriggerScenario(context.Background(), models.ModeBufferBreach, nil)
	second := s.TriggerScenario(context.Background(), models.ModeBufferBreach, nil)

	if first.ElephantPos != second.ElephantPos || first.ThreatLevel != second.ThreatLevel ||
		first.StatusBar != second.StatusBar || !reflect.DeepEqual(first.Devices, second.Devices) {
		t.Error("repeated trigger should yield identical state")
	}
}

func TestLogCap(t *testing.T) {
	s := newTestStore()
	modes := models.ScenarioModes()

	for n := 1; n <= 60; n++ {
		snap := s.TriggerScenario(context.Background(), modes[n%len(modes)], nil)
		want := n + 1
		if want > MaxLogEntries {
			want = MaxLogEntries
		}
		if len(snap.Logs) != want {
			t.Fatalf("after %d triggers expected %d logs, got %d", n, want, len(snap.Logs))
		}
	}

	logs := s.Logs()
	last, _ := Transition(modes[60%len(modes)])
	if !strings.HasSuffix(logs[0], last.LogLine) {
		t.Errorf("newest entry should be first, got %q", logs[0])
	}
	if logs[len(logs)-1] == "[09:00:00] System started." {
		t.Error("oldest entry should have been evicted")
	}
}

func TestSetModeOnlyChangesSelector(t *testing.T) {
	s := newTestStore()
	s.SetMode(models.ModeCriticalThreat)
	snap := s.Snapshot()

	if snap.SimMode != models.ModeCriticalThreat {
		t.Errorf("selector not updated")
	}
	if snap.ThreatLevel != models.ThreatLow || len(snap.Logs) != 1 {
		t.Error("SetMode must not apply the scenario")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := newTestStore()
	snap := s.Snapshot()
	snap.Devices[0].Battery = -1
	snap.Logs[0] = "tampered"

	fresh := s.Snapshot()
	if fresh.Devices[0].Battery == -1 || fresh.Logs[0] == "tampered" {
		t.Error("snapshot shares memory with the store")
	}
}

func TestListenersReceiveEvent(t *testing.T) {
	var got []Event
	s := newTestStore(WithListener(ListenerFunc(func(_ context.Context, ev Event) {
		got = append(got, ev)
	})))

	caller := &models.Position{Lat: 13.7, Lng: 100.5}
	s.TriggerScenario(context.Background(), models.ModeBufferBreach, caller)
	s.TriggerScenario(context.Background(), "bogus", nil)

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if !got[0].Known || got[0].Caller != caller || got[0].Snapshot.ThreatLevel != models.ThreatMedium {
		t.Errorf("unexpected first event %+v", got[0])
	}
	if got[1].Known {
		t.Error("unknown mode should be flagged")
	}
}

func TestConcurrentTriggersStayConsistent(t *testing.T) {
	s := newTestStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			modes := models.ScenarioModes()
			s.TriggerScenario(context.Background(), modes[i%len(modes)], nil)
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	out, ok := Transition(snap.SimMode)
	if !ok {
		t.Fatalf("final mode %q unknown", snap.SimMode)
	}
	if snap.ElephantPos != out.Pos || snap.ThreatLevel != out.Threat || snap.StatusBar != out.Status {
		t.Error("final state does not match a single scenario tuple")
	}
}

func TestSyncerPostsCallerPosition(t *testing.T) {
	var mu sync.Mutex
	var received models.SimulateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	syncer := NewSyncer(srv.URL, time.Second, logger.Discard())
	s := newTestStore(WithListener(syncer))
	s.TriggerScenario(context.Background(), models.ModeCriticalThreat, &models.Position{Lat: 13.7, Lng: 100.5})
	syncer.Wait()

	mu.Lock()
	defer mu.Unlock()
	if received.ThreatLevel != models.ThreatHigh || received.Lat != 12.885 {
		t.Errorf("unexpected sync body %+v", received)
	}
	if received.UserLat == nil || *received.UserLat != 13.7 {
		t.Errorf("caller position missing from sync body")
	}
}

func TestSyncerSkipsWithoutCaller(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	syncer := NewSyncer(srv.URL, time.Second, logger.Discard())
	s := newTestStore(WithListener(syncer))
	s.TriggerScenario(context.Background(), models.ModeCriticalThreat, nil)
	syncer.Wait()

	if calls != 0 {
		t.Errorf("expected no sync without caller position, got %d", calls)
	}
}

func TestSyncFailureDoesNotAffectTrigger(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	syncer := NewSyncer(srv.URL, 10*time.Second, logger.Discard())
	s := newTestStore(WithListener(syncer))
	snap := s.TriggerScenario(context.Background(), models.ModeBufferBreach, &models.Position{Lat: 1, Lng: 1})
	syncer.Wait()

	if snap.ThreatLevel != models.ThreatMedium {
		t.Error("trigger result should not depend on sync outcome")
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts != syncMaxTries {
		t.Errorf("expected %d attempts, got %d", syncMaxTries, attempts)
	}
}
