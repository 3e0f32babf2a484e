package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"forumwatch/internal/model"
)

type RequestRepository struct {
	db *pgxpool.Pool
}

func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{db: db}
}

// ErrDuplicatePending is returned when the same claim already has a
// pending request, enforced by the partial unique index.
var ErrDuplicatePending = errors.New("a pending request for this claim already exists")

// Create inserts a pending request.
func (r *RequestRepository) Create(ctx context.Context, req *model.RegistrationRequest) error {
	query := `
        INSERT INTO registration_requests (request_id, kind, value, requester_id, category, status)
        VALUES ($1, $2, $3, $4, $5, 'pending')
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		req.RequestID, req.Kind, req.Value, req.RequesterID, req.Category,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return err
	}
	req.Status = model.StatusPending
	return nil
}

// ByRequestID finds a request by its short external handle.
func (r *RequestRepository) ByRequestID(ctx context.Context, requestID string) (*model.RegistrationRequest, error) {
	query := `
        SELECT id, request_id, kind, value, requester_id, category, status, resolved_by, created_at, resolved_at
        FROM registration_requests
        WHERE request_id = $1
    `
	var req model.RegistrationRequest
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&req.ID,
		&req.RequestID,
		&req.Kind,
		&req.Value,
		&req.RequesterID,
		&req.Category,
		&req.Status,
		&req.ResolvedBy,
		&req.CreatedAt,
		&req.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Pending lists all unresolved requests, oldest first.
func (r *RequestRepository) Pending(ctx context.Context) ([]model.RegistrationRequest, error) {
	query := `
        SELECT id, request_id, kind, value, requester_id, category, status, resolved_by, created_at, resolved_at
        FROM registration_requests
        WHERE status = 'pending'
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []model.RegistrationRequest
	for rows.Next() {
		var req model.RegistrationRequest
		if err := rows.Scan(
			&req.ID,
			&req.RequestID,
			&req.Kind,
			&req.Value,
			&req.RequesterID,
			&req.Category,
			&req.Status,
			&req.ResolvedBy,
			&req.CreatedAt,
			&req.ResolvedAt,
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// Resolve flips a pending request to its final status. Returns false if
// the request was no longer pending, so a second resolver loses the race.
func (r *RequestRepository) Resolve(ctx context.Context, requestID string, status model.RequestStatus, resolvedBy string) (bool, error) {
	query := `
        UPDATE registration_requests
        SET status = $2, resolved_by = $3, resolved_at = now()
        WHERE request_id = $1 AND status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query, requestID, status, resolvedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
