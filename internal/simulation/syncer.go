// internal/simulation/syncer.go

package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"

	"github.com/cenkalti/backoff/v5"
)

const syncMaxTries = 3

// Syncer mirrors triggered scenarios to the simulate endpoint so the
// server-side mirror follows the operator console. Each post runs in its own
// goroutine and retries transient failures until the timeout; failures are
// only logged.
type Syncer struct {
	url     string
	client  *http.Client
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewSyncer(url string, timeout time.Duration, log *logger.Logger) *Syncer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Syncer{
		url:     url,
		client:  &http.Client{},
		timeout: timeout,
		log:     log,
	}
}

func (s *Syncer) ScenarioTriggered(_ context.Context, ev Event) {
	if s.url == "" || !ev.Known || ev.Caller == nil {
		return
	}

	userLat, userLng := ev.Caller.Lat, ev.Caller.Lng
	body := models.SimulateRequest{
		Lat:         ev.Snapshot.ElephantPos.Lat,
		Lng:         ev.Snapshot.ElephantPos.Lng,
		Status:      ev.Snapshot.StatusBar,
		ThreatLevel: ev.Snapshot.ThreatLevel,
		UserLat:     &userLat,
		UserLng:     &userLng,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.post(body); err != nil {
			s.log.Warn("Scenario sync failed: %v", err)
			return
		}
		s.log.Debug("Scenario synced to %s", s.url)
	}()
}

// Wait blocks until in-flight posts finish. Used on shutdown and in tests.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) post(body models.SimulateRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal sync body: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.send(ctx, payload)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(syncMaxTries),
	)
	return err
}

func (s *Syncer) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build sync request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post sync: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("sync endpoint returned %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return backoff.Permanent(fmt.Errorf("sync endpoint returned %d", resp.StatusCode))
	}
	return nil
}
