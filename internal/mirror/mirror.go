// internal/mirror/mirror.go

// Package mirror keeps the server-side copy of the subject position that
// outbound alerts and the chat relay read from.
package mirror

import (
	"context"
	"sync"
	"time"

	"ElephantWatchAPI/internal/models"
)

// Store is implemented by Memory and Redis.
type Store interface {
	Get(ctx context.Context) (models.MirrorState, error)
	Set(ctx context.Context, pos models.Position, level models.ThreatLevel, status string) (models.MirrorState, error)
}

// Seed is the state a fresh mirror starts from.
func Seed() models.MirrorState {
	return models.MirrorState{
		Pos:    models.Position{Lat: 12.876, Lng: 101.815},
		Level:  models.ThreatLow,
		Status: string(models.ModeNormal),
	}
}

// Memory is a process-local mirror. Concurrent writers are serialized and
// the last arrival wins.
type Memory struct {
	mu    sync.RWMutex
	state models.MirrorState
	now   func() time.Time
}

func NewMemory() *Memory {
	state := Seed()
	state.UpdatedAt = time.Now()
	return &Memory{state: state, now: time.Now}
}

func (m *Memory) Get(_ context.Context) (models.MirrorState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

func (m *Memory) Set(_ context.Context, pos models.Position, level models.ThreatLevel, status string) (models.MirrorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = models.MirrorState{
		Pos:       pos,
		Level:     level,
		Status:    status,
		Version:   m.state.Version + 1,
		UpdatedAt: m.now(),
	}
	return m.state, nil
}
