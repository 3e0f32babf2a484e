package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LinkRepository struct {
	db *pgxpool.Pool
}

func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

// Link binds a user to a chat on the secondary transport, replacing any
// previous binding.
func (r *LinkRepository) Link(ctx context.Context, userID, chatID string) error {
	query := `
        INSERT INTO telegram_links (user_id, chat_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
    `
	_, err := r.db.Exec(ctx, query, userID, chatID)
	return err
}

// Unlink removes a user's binding. Returns false if none existed.
func (r *LinkRepository) Unlink(ctx context.Context, userID string) (bool, error) {
	query := `DELETE FROM telegram_links WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ChatID returns the chat bound to a user, or "" when unlinked.
func (r *LinkRepository) ChatID(ctx context.Context, userID string) (string, error) {
	query := `SELECT chat_id FROM telegram_links WHERE user_id = $1`
	var chatID string
	err := r.db.QueryRow(ctx, query, userID).Scan(&chatID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return chatID, err
}
