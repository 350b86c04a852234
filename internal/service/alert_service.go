package service

import (
	"context"
	"fmt"
	"time"

	"ElephantWatchAPI/internal/geo"
	"ElephantWatchAPI/internal/line"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/mirror"
	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/repository"

	"github.com/google/uuid"
)

// Notifier delivers flex messages to a LINE user.
type Notifier interface {
	Push(ctx context.Context, to string, msgs ...line.FlexMessage) error
}

// AlertListener observes every dispatched alert, delivered or not.
type AlertListener interface {
	AlertDispatched(ctx context.Context, alert *models.Alert)
}

type AlertServiceConfig struct {
	Mirror    mirror.Store
	Notifier  Notifier
	AdminID   string
	Repo      repository.IAlertRepository
	Listeners []AlertListener
	Logger    *logger.Logger
}

// AlertService owns writes to the mirror and proximity alert dispatch.
type AlertService struct {
	mirror    mirror.Store
	notifier  Notifier
	adminID   string
	repo      repository.IAlertRepository
	listeners []AlertListener
	log       *logger.Logger
}

func NewAlertService(cfg AlertServiceConfig) *AlertService {
	return &AlertService{
		mirror:    cfg.Mirror,
		notifier:  cfg.Notifier,
		adminID:   cfg.AdminID,
		repo:      cfg.Repo,
		listeners: cfg.Listeners,
		log:       cfg.Logger,
	}
}

// SyncElephant overwrites the mirror with a console-reported position.
func (s *AlertService) SyncElephant(ctx context.Context, req *models.SyncElephantRequest) (models.MirrorState, error) {
	var pos models.Position
	if req.Pos != nil {
		pos = *req.Pos
	} else {
		current, err := s.mirror.Get(ctx)
		if err != nil {
			return models.MirrorState{}, fmt.Errorf("failed to read mirror: %w", err)
		}
		pos = current.Pos
	}

	state, err := s.mirror.Set(ctx, pos, req.Level, req.Scenario)
	if err != nil {
		return models.MirrorState{}, fmt.Errorf("failed to sync mirror: %w", err)
	}
	s.log.Debug("Mirror synced to %s (%s, v%d)", state.Pos, state.Level, state.Version)
	return state, nil
}

// Simulate records the subject position and, for non-LOW threats with a
// configured recipient, pushes one proximity alert. It returns the
// user-to-subject distance in km, "0.00" when the user position is unknown.
func (s *AlertService) Simulate(ctx context.Context, req *models.SimulateRequest) (string, error) {
	subject := models.Position{Lat: req.Lat, Lng: req.Lng}
	if _, err := s.mirror.Set(ctx, subject, req.ThreatLevel, req.Status); err != nil {
		return "", fmt.Errorf("failed to update mirror: %w", err)
	}

	distance := "0.00"
	user, known := req.UserPosition()
	if known {
		distance = geo.DistanceKm(user, subject)
	}

	if req.ThreatLevel == models.ThreatLow {
		return distance, nil
	}
	if s.adminID == "" {
		s.log.Warn("No alert recipient configured, skipping %s alert", req.ThreatLevel)
		return distance, nil
	}

	s.dispatch(ctx, &models.Alert{
		Level:      req.ThreatLevel,
		Narrative:  line.SimulationQuery,
		DistanceKm: distance,
		SubjectPos: subject,
		UserPos:    user,
		Recipient:  s.adminID,
	}, req.Status)

	return distance, nil
}

func (s *AlertService) dispatch(ctx context.Context, alert *models.Alert, status string) {
	alert.ID = uuid.New()
	alert.CreatedAt = time.Now()

	switch {
	case s.notifier == nil:
		alert.Status = models.AlertStatusSkipped
		s.log.Warn("LINE credentials missing, alert %s not pushed", alert.ID)
	default:
		msg := line.ProximityAlert(alert.Narrative, alert.DistanceKm, status, alert.UserPos)
		if err := s.notifier.Push(ctx, alert.Recipient, msg); err != nil {
			alert.Status = models.AlertStatusFailed
			alert.Error = err.Error()
			s.log.Error("Failed to push %s alert %s: %v", alert.Level, alert.ID, err)
		} else {
			alert.Status = models.AlertStatusSent
			s.log.Info("Pushed %s alert %s (%s km)", alert.Level, alert.ID, alert.DistanceKm)
		}
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, alert); err != nil {
			s.log.Error("Failed to record alert %s: %v", alert.ID, err)
		}
	}
	for _, l := range s.listeners {
		l.AlertDispatched(ctx, alert)
	}
}

// Mirror returns the current mirror state.
func (s *AlertService) Mirror(ctx context.Context) (models.MirrorState, error) {
	return s.mirror.Get(ctx)
}

// History lists recorded alerts newest first. Without a database the list
// is always empty.
func (s *AlertService) History(ctx context.Context, limit, offset int) ([]models.Alert, error) {
	if s.repo == nil {
		return []models.Alert{}, nil
	}
	return s.repo.GetHistory(ctx, limit, offset)
}
