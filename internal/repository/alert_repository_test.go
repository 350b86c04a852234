package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"ElephantWatchAPI/internal/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// These tests need a scratch postgres; set TEST_DATABASE_DSN to run them.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TEMP TABLE alerts (
		id UUID PRIMARY KEY, level TEXT, status TEXT, narrative TEXT, distance_km TEXT,
		subject_lat DOUBLE PRECISION, subject_lng DOUBLE PRECISION,
		user_lat DOUBLE PRECISION, user_lng DOUBLE PRECISION,
		recipient TEXT, error TEXT, created_at TIMESTAMPTZ)`)
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	return db
}

func TestAlertRepositoryRoundTrip(t *testing.T) {
	repo := NewAlertRepository(openTestDB(t))
	ctx := context.Background()

	alert := &models.Alert{
		Level:      models.ThreatHigh,
		Status:     models.AlertStatusSent,
		DistanceKm: "1.46",
		SubjectPos: models.Position{Lat: 12.885, Lng: 101.825},
		UserPos:    models.Position{Lat: 12.876, Lng: 101.815},
		Recipient:  "U1",
	}
	if err := repo.Create(ctx, alert); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if alert.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}

	got, err := repo.GetByID(ctx, alert.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SubjectPos != alert.SubjectPos || got.Level != models.ThreatHigh {
		t.Errorf("unexpected alert %+v", got)
	}

	missing, err := repo.GetByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing id; got %v, %v", missing, err)
	}

	stats, err := repo.GetStatistics(ctx)
	if err != nil || stats[models.AlertStatusSent] != 1 {
		t.Errorf("unexpected stats %v %v", stats, err)
	}

	n, err := repo.DeleteOld(ctx, -time.Hour)
	if err != nil || n != 1 {
		t.Errorf("expected one pruned row, got %d %v", n, err)
	}
}
