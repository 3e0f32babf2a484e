package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"forumwatch/internal/model"
)

type PreferenceRepository struct {
	db *pgxpool.Pool
}

func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns a user's preferences, materializing the defaults on first read.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (model.Preference, error) {
	query := `
        SELECT user_id, notify_static_field, notify_closed_threads
        FROM preferences
        WHERE user_id = $1
    `
	var p model.Preference
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.NotifyStaticField, &p.NotifyClosedThreads)
	if errors.Is(err, pgx.ErrNoRows) {
		p = model.DefaultPreference(userID)
		if err := r.Set(ctx, p); err != nil {
			return p, err
		}
		return p, nil
	}
	return p, err
}

// Set upserts a user's preferences.
func (r *PreferenceRepository) Set(ctx context.Context, p model.Preference) error {
	query := `
        INSERT INTO preferences (user_id, notify_static_field, notify_closed_threads)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE
        SET notify_static_field = EXCLUDED.notify_static_field,
            notify_closed_threads = EXCLUDED.notify_closed_threads
    `
	_, err := r.db.Exec(ctx, query, p.UserID, p.NotifyStaticField, p.NotifyClosedThreads)
	return err
}
