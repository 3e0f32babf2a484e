package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"forumwatch/internal/model"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// MarkScanned writes the marker row for a thread. Written last, after
// any deliveries, so a crash mid-thread means the thread is retried.
func (r *LedgerRepository) MarkScanned(ctx context.Context, threadURL string, note string) error {
	query := `
        INSERT INTO scan_ledger (thread_url, note)
        VALUES ($1, NULLIF($2, ''))
    `
	_, err := r.db.Exec(ctx, query, threadURL, note)
	return err
}

// IsScanned reports whether a marker row exists for the thread. Delivery
// rows alone do not count.
func (r *LedgerRepository) IsScanned(ctx context.Context, threadURL string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM scan_ledger
            WHERE thread_url = $1 AND target_value IS NULL AND user_id IS NULL
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, threadURL).Scan(&exists)
	return exists, err
}

// RecordDelivery writes an audit row for one notification that went out.
func (r *LedgerRepository) RecordDelivery(ctx context.Context, threadURL, targetValue, userID, transport string) error {
	query := `
        INSERT INTO scan_ledger (thread_url, target_value, user_id, transport)
        VALUES ($1, $2, $3, $4)
    `
	_, err := r.db.Exec(ctx, query, threadURL, targetValue, userID, transport)
	return err
}

// Forget deletes every ledger row for a thread so the next pass rescans it.
func (r *LedgerRepository) Forget(ctx context.Context, threadURL string) (int64, error) {
	query := `DELETE FROM scan_ledger WHERE thread_url = $1`
	tag, err := r.db.Exec(ctx, query, threadURL)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RecentThreads returns the most recently scanned thread URLs.
func (r *LedgerRepository) RecentThreads(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	query := `
        SELECT id, thread_url, target_value, user_id, transport, note, sent_at
        FROM scan_ledger
        WHERE target_value IS NULL AND user_id IS NULL
        ORDER BY sent_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.ThreadURL, &e.TargetValue, &e.UserID, &e.Transport, &e.Note, &e.SentAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
