package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"forumwatch/internal/model"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get returns the persisted counters.
func (r *StatsRepository) Get(ctx context.Context) (model.Stats, error) {
	query := `
        SELECT scanned_threads, uptime_seconds, updated_at
        FROM stats
        WHERE id = 1
    `
	var s model.Stats
	err := r.db.QueryRow(ctx, query).Scan(&s.ScannedThreads, &s.UptimeSeconds, &s.UpdatedAt)
	return s, err
}

// Add accumulates deltas into the counters row.
func (r *StatsRepository) Add(ctx context.Context, scannedDelta, uptimeDelta int64) error {
	query := `
        UPDATE stats
        SET scanned_threads = scanned_threads + $1,
            uptime_seconds = uptime_seconds + $2,
            updated_at = now()
        WHERE id = 1
    `
	_, err := r.db.Exec(ctx, query, scannedDelta, uptimeDelta)
	return err
}
