package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlertStatusSent    = "SENT"
	AlertStatusFailed  = "FAILED"
	AlertStatusSkipped = "SKIPPED"
)

// Alert records one outbound proximity notification.
type Alert struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Level      ThreatLevel `json:"level" db:"level"`
	Status     string      `json:"status" db:"status"`
	Narrative  string      `json:"narrative" db:"narrative"`
	DistanceKm string      `json:"distance_km" db:"distance_km"`
	SubjectPos Position    `json:"subject_pos" db:"-"`
	UserPos    Position    `json:"user_pos" db:"-"`
	Recipient  string      `json:"recipient" db:"recipient"`
	Error      string      `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
