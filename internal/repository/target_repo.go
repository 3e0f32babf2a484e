package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"forumwatch/internal/model"
)

type TargetRepository struct {
	db *pgxpool.Pool
}

func NewTargetRepository(db *pgxpool.Pool) *TargetRepository {
	return &TargetRepository{db: db}
}

// Add inserts a watch target. Returns false if the exact binding already exists.
func (r *TargetRepository) Add(ctx context.Context, t *model.WatchTarget) (bool, error) {
	query := `
        INSERT INTO watch_targets (kind, value, owner_id, category)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (kind, value, owner_id, category) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, t.Kind, t.Value, t.OwnerID, t.Category)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Remove deletes a binding. An empty ownerID drops the value for every
// owner. Returns false if nothing matched.
func (r *TargetRepository) Remove(ctx context.Context, kind model.TargetKind, value, ownerID string, category model.Category) (bool, error) {
	query := `
        DELETE FROM watch_targets
        WHERE kind = $1 AND value = $2 AND category = $3
          AND ($4 = '' OR owner_id = $4)
    `
	tag, err := r.db.Exec(ctx, query, kind, value, category, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Exists reports whether any owner already watches this value in a category.
func (r *TargetRepository) Exists(ctx context.Context, kind model.TargetKind, value string, category model.Category) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM watch_targets
            WHERE kind = $1 AND value = $2 AND category = $3
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, kind, value, category).Scan(&exists)
	return exists, err
}

// OwnedBy reports whether a specific owner already watches this value.
func (r *TargetRepository) OwnedBy(ctx context.Context, kind model.TargetKind, value, ownerID string, category model.Category) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM watch_targets
            WHERE kind = $1 AND value = $2 AND owner_id = $3 AND category = $4
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, kind, value, ownerID, category).Scan(&exists)
	return exists, err
}

// ByOwner lists everything one user watches.
func (r *TargetRepository) ByOwner(ctx context.Context, ownerID string) ([]model.WatchTarget, error) {
	query := `
        SELECT id, kind, value, owner_id, category, created_at
        FROM watch_targets
        WHERE owner_id = $1
        ORDER BY category, kind, value
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTargets(rows)
}

// Snapshot returns all targets of one kind in one category. The scan
// engine loads this once per pass so every thread sees the same roster.
func (r *TargetRepository) Snapshot(ctx context.Context, kind model.TargetKind, category model.Category) ([]model.WatchTarget, error) {
	query := `
        SELECT id, kind, value, owner_id, category, created_at
        FROM watch_targets
        WHERE kind = $1 AND category = $2
        ORDER BY value
    `
	rows, err := r.db.Query(ctx, query, kind, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTargets(rows)
}

// All returns every registered watch target.
func (r *TargetRepository) All(ctx context.Context) ([]model.WatchTarget, error) {
	query := `
        SELECT id, kind, value, owner_id, category, created_at
        FROM watch_targets
        ORDER BY category, kind, value
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTargets(rows)
}

func scanTargets(rows pgx.Rows) ([]model.WatchTarget, error) {
	var targets []model.WatchTarget
	for rows.Next() {
		var t model.WatchTarget
		if err := rows.Scan(&t.ID, &t.Kind, &t.Value, &t.OwnerID, &t.Category, &t.CreatedAt); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
