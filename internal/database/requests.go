package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pinscout-backend/internal/models"
)

// RequestStore persists requests. Status writes are forward-only:
// pending → processing → {completed, error}.
type RequestStore struct {
	client *Client
}

func NewRequestStore(client *Client) *RequestStore {
	return &RequestStore{client: client}
}

func (s *RequestStore) Create(ctx context.Context, text string) (*models.Request, error) {
	var req models.Request
	err := s.client.db.QueryRowContext(ctx, `
		INSERT INTO requests (id, text, status)
		VALUES ($1, $2, $3)
		RETURNING id, text, status, created_at
	`, uuid.New(), text, models.RequestStatusPending).Scan(
		&req.ID, &req.Text, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return &req, nil
}

func (s *RequestStore) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var req models.Request
	err := s.client.db.QueryRowContext(ctx, `
		SELECT id, text, status, created_at
		FROM requests
		WHERE id = $1
	`, id).Scan(&req.ID, &req.Text, &req.Status, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return &req, nil
}

func (s *RequestStore) List(ctx context.Context, skip, limit int) ([]models.Request, error) {
	rows, err := s.client.db.QueryContext(ctx, `
		SELECT id, text, status, created_at
		FROM requests
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(&req.ID, &req.Text, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// BeginProcessing flips the request to processing. It fails with
// ErrConflict when a run is already in flight, which is the duplicate
// start-workflow guard.
func (s *RequestStore) BeginProcessing(ctx context.Context, id uuid.UUID) error {
	result, err := s.client.db.ExecContext(ctx, `
		UPDATE requests
		SET status = $2
		WHERE id = $1 AND status <> $2
	`, id, models.RequestStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to start processing: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("request %s is already processing: %w", id, models.ErrConflict)
	}

	return nil
}

// SetStatus writes a new status. A request never returns to pending
// after leaving it, so pending is rejected outright.
func (s *RequestStore) SetStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error {
	if status == models.RequestStatusPending {
		return fmt.Errorf("cannot reset request %s to pending: %w", id, models.ErrInvalidState)
	}

	result, err := s.client.db.ExecContext(ctx, `
		UPDATE requests
		SET status = $2
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set request status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s: %w", id, models.ErrNotFound)
	}

	return nil
}

func (s *RequestStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.client.db.ExecContext(ctx, `
		DELETE FROM requests
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s: %w", id, models.ErrNotFound)
	}

	return nil
}
