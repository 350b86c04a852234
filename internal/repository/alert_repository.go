package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ElephantWatchAPI/internal/models"

	"github.com/google/uuid"
)

// IAlertRepository persists the outbound alert audit trail.
type IAlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	GetHistory(ctx context.Context, limit int, offset int) ([]models.Alert, error)
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
	GetStatistics(ctx context.Context) (map[string]int, error)
}

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, level, status, narrative, distance_km,
	subject_lat, subject_lng, user_lat, user_lng, recipient, error, created_at`

// Create inserts an alert, assigning an id and timestamp when unset.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	query := `INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.Level,
		alert.Status,
		alert.Narrative,
		alert.DistanceKm,
		alert.SubjectPos.Lat,
		alert.SubjectPos.Lng,
		alert.UserPos.Lat,
		alert.UserPos.Lng,
		alert.Recipient,
		alert.Error,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the alert does not exist.
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert by id: %w", err)
	}
	return alert, nil
}

// GetHistory returns alerts newest first.
func (r *AlertRepository) GetHistory(ctx context.Context, limit int, offset int) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

// DeleteOld prunes alerts older than the given age.
func (r *AlertRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old alerts: %w", err)
	}
	return result.RowsAffected()
}

// GetStatistics counts alerts per delivery status.
func (r *AlertRepository) GetStatistics(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM alerts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert statistics: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(s scanner) (*models.Alert, error) {
	var a models.Alert
	err := s.Scan(
		&a.ID, &a.Level, &a.Status, &a.Narrative, &a.DistanceKm,
		&a.SubjectPos.Lat, &a.SubjectPos.Lng, &a.UserPos.Lat, &a.UserPos.Lng,
		&a.Recipient, &a.Error, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
