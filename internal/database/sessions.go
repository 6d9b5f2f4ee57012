package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"pinscout-backend/internal/models"
)

const pqUniqueViolation = "23505"

// SessionStore is the session ledger: it owns log-line accumulation and
// terminal-status transitions for stage attempts. Every mutation is a
// single statement, so concurrent readers always observe committed
// partial progress.
type SessionStore struct {
	client *Client
}

func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client}
}

// Open creates a pending session for (request, stage). A partial unique
// index backs the single-open-session-per-stage invariant; hitting it
// surfaces as ErrConflict.
func (s *SessionStore) Open(ctx context.Context, requestID uuid.UUID, stage models.Stage) (*models.Session, error) {
	var (
		sess models.Session
		log  pq.StringArray
	)
	err := s.client.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, request_id, stage)
		VALUES ($1, $2, $3)
		RETURNING id, request_id, stage, status, started_at, log
	`, uuid.New(), requestID, stage).Scan(
		&sess.ID, &sess.RequestID, &sess.Stage, &sess.Status, &sess.StartedAt, &log,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, fmt.Errorf("%s session already open for request %s: %w", stage, requestID, models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	sess.Log = []string(log)
	return &sess, nil
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var (
		sess models.Session
		log  pq.StringArray
	)
	err := s.client.db.QueryRowContext(ctx, `
		SELECT id, request_id, stage, status, started_at, log
		FROM sessions
		WHERE id = $1
	`, id).Scan(&sess.ID, &sess.RequestID, &sess.Stage, &sess.Status, &sess.StartedAt, &log)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.Log = []string(log)
	return &sess, nil
}

// AppendLog appends one line to a live session's log. Appending to a
// terminal session is a contract violation.
func (s *SessionStore) AppendLog(ctx context.Context, id uuid.UUID, line string) error {
	result, err := s.client.db.ExecContext(ctx, `
		UPDATE sessions
		SET log = array_append(log, $2)
		WHERE id = $1 AND status = $3
	`, id, line, models.SessionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to append session log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("session %s is closed: %w", id, models.ErrInvalidState)
	}

	return nil
}

// Close transitions a session to a terminal status exactly once.
func (s *SessionStore) Close(ctx context.Context, id uuid.UUID, outcome models.SessionStatus) error {
	if !outcome.Terminal() {
		return fmt.Errorf("close outcome must be terminal, got %q: %w", outcome, models.ErrInvalidState)
	}

	result, err := s.client.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = $2
		WHERE id = $1 AND status = $3
	`, id, outcome, models.SessionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("session %s already closed: %w", id, models.ErrInvalidState)
	}

	return nil
}

func (s *SessionStore) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Session, error) {
	rows, err := s.client.db.QueryContext(ctx, `
		SELECT id, request_id, stage, status, started_at, log
		FROM sessions
		WHERE request_id = $1
		ORDER BY started_at ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListStalePending returns pending sessions started before the cutoff,
// for the recovery sweep.
func (s *SessionStore) ListStalePending(ctx context.Context, before time.Time) ([]models.Session, error) {
	rows, err := s.client.db.QueryContext(ctx, `
		SELECT id, request_id, stage, status, started_at, log
		FROM sessions
		WHERE status = $1 AND started_at < $2
		ORDER BY started_at ASC
	`, models.SessionStatusPending, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// HasOpen reports whether any stage is still non-terminal for a request.
func (s *SessionStore) HasOpen(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var open bool
	err := s.client.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE request_id = $1 AND status = $2
		)
	`, requestID, models.SessionStatusPending).Scan(&open)
	if err != nil {
		return false, fmt.Errorf("failed to check open sessions: %w", err)
	}
	return open, nil
}

// DeleteByRequest removes all sessions for a request. Idempotent:
// deleting an already-clean request is not an error.
func (s *SessionStore) DeleteByRequest(ctx context.Context, requestID uuid.UUID) error {
	_, err := s.client.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE request_id = $1
	`, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func scanSessions(rows *sql.Rows) ([]models.Session, error) {
	sessions := []models.Session{}
	for rows.Next() {
		var (
			sess models.Session
			log  pq.StringArray
		)
		if err := rows.Scan(&sess.ID, &sess.RequestID, &sess.Stage, &sess.Status, &sess.StartedAt, &log); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.Log = []string(log)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
