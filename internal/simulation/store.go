// internal/simulation/store.go

package simulation

import (
	"context"
	"sync"
	"time"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
)

const (
	MaxLogEntries = 50
	initialLog    = "[09:00:00] System started."
)

// Event describes one completed scenario trigger.
type Event struct {
	Mode     models.ScenarioMode
	Known    bool
	Caller   *models.Position
	Snapshot models.SimulationSnapshot
}

// Listener is notified after a trigger has been applied. Listeners run on
// the caller's goroutine, outside the store lock, and must not block.
type Listener interface {
	ScenarioTriggered(ctx context.Context, ev Event)
}

type ListenerFunc func(ctx context.Context, ev Event)

func (f ListenerFunc) ScenarioTriggered(ctx context.Context, ev Event) { f(ctx, ev) }

// Store owns the simulation state. All fields change together under mu.
type Store struct {
	mu    sync.RWMutex
	state models.SimulationSnapshot

	listeners []Listener
	now       func() time.Time
	log       *logger.Logger
}

type Option func(*Store)

// WithClock overrides the time source used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithListener(l Listener) Option {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}

func NewStore(log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		state: models.SimulationSnapshot{
			SimMode:     models.ModeNormal,
			ThreatLevel: models.ThreatLow,
			StatusBar:   StatusSafe,
			ElephantPos: basePos,
			Devices:     SeedDevices(),
			Logs:        []string{initialLog},
		},
		now: time.Now,
		log: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe adds a listener. Call it during startup, before serving.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// TriggerScenario applies mode and returns the resulting snapshot. The mode
// selector is always updated; the rest of the state only for known modes.
func (s *Store) TriggerScenario(ctx context.Context, mode models.ScenarioMode, caller *models.Position) models.SimulationSnapshot {
	outcome, known := Transition(mode)

	s.mu.Lock()
	s.state.SimMode = mode
	if known {
		s.state.ElephantPos = outcome.Pos
		s.state.ThreatLevel = outcome.Threat
		s.state.StatusBar = outcome.Status
		s.state.Devices = outcome.Devices
		s.appendLogLocked(outcome.LogLine)
	}
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	if known {
		s.log.Info("Scenario triggered: %s (threat=%s)", mode, outcome.Threat)
	} else {
		s.log.Warn("Unknown scenario mode %q, only selector updated", mode)
	}

	ev := Event{Mode: mode, Known: known, Caller: caller, Snapshot: snap}
	for _, l := range listeners {
		l.ScenarioTriggered(ctx, ev)
	}
	return snap
}

// SetMode changes the selector without applying the scenario.
func (s *Store) SetMode(mode models.ScenarioMode) {
	s.mu.Lock()
	s.state.SimMode = mode
	s.mu.Unlock()
}

func (s *Store) Snapshot() models.SimulationSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Devices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Device, len(s.state.Devices))
	copy(out, s.state.Devices)
	return out
}

func (s *Store) Logs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.state.Logs))
	copy(out, s.state.Logs)
	return out
}

func (s *Store) appendLogLocked(msg string) {
	entry := "[" + s.now().Format("15:04:05") + "] " + msg

	logs := make([]string, 0, MaxLogEntries)
	logs = append(logs, entry)
	logs = append(logs, s.state.Logs...)
	if len(logs) > MaxLogEntries {
		logs = logs[:MaxLogEntries]
	}
	s.state.Logs = logs
}

func (s *Store) snapshotLocked() models.SimulationSnapshot {
	snap := s.state
	snap.Devices = make([]models.Device, len(s.state.Devices))
	copy(snap.Devices, s.state.Devices)
	snap.Logs = make([]string, len(s.state.Logs))
	copy(snap.Logs, s.state.Logs)
	return snap
}
