// internal/mirror/redis.go

package mirror

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ElephantWatchAPI/internal/models"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "elephant:mirror"

// Redis stores the mirror in a single hash so several API instances share it.
type Redis struct {
	client redis.UniversalClient
	key    string
}

func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

// Get returns the stored state, or the seed when nothing was written yet.
func (r *Redis) Get(ctx context.Context) (models.MirrorState, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return models.MirrorState{}, fmt.Errorf("read mirror: %w", err)
	}
	if len(fields) == 0 {
		return Seed(), nil
	}
	return decode(fields)
}

// Set writes all fields and bumps the version in one MULTI/EXEC.
func (r *Redis) Set(ctx context.Context, pos models.Position, level models.ThreatLevel, status string) (models.MirrorState, error) {
	now := time.Now().UTC()

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key, map[string]interface{}{
		"lat":        strconv.FormatFloat(pos.Lat, 'f', -1, 64),
		"lng":        strconv.FormatFloat(pos.Lng, 'f', -1, 64),
		"level":      string(level),
		"status":     status,
		"updated_at": now.Format(time.RFC3339Nano),
	})
	version := pipe.HIncrBy(ctx, r.key, "version", 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.MirrorState{}, fmt.Errorf("write mirror: %w", err)
	}

	return models.MirrorState{
		Pos:       pos,
		Level:     level,
		Status:    status,
		Version:   version.Val(),
		UpdatedAt: now,
	}, nil
}

func decode(fields map[string]string) (models.MirrorState, error) {
	var (
		state models.MirrorState
		errs  []error
	)

	parse := func(name string) float64 {
		v, err := strconv.ParseFloat(fields[name], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", name, err))
		}
		return v
	}

	state.Pos.Lat = parse("lat")
	state.Pos.Lng = parse("lng")
	state.Level = models.ThreatLevel(fields["level"])
	state.Status = fields["status"]

	if v, ok := fields["version"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("field version: %w", err))
		}
		state.Version = n
	}
	if v, ok := fields["updated_at"]; ok {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("field updated_at: %w", err))
		}
		state.UpdatedAt = ts
	}

	if err := errors.Join(errs...); err != nil {
		return models.MirrorState{}, fmt.Errorf("decode mirror: %w", err)
	}
	return state, nil
}
