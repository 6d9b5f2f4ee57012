package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"pinscout-backend/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var pinColumns = []string{
	"id", "request_id", "source_url", "landing_url", "title",
	"description", "score", "verdict", "explanation", "metadata", "collected_at",
}

// PinStore is the pin repository: collected candidates with their
// scores and verdicts, scoped by request.
type PinStore struct {
	client *Client
}

func NewPinStore(client *Client) *PinStore {
	return &PinStore{client: client}
}

// Insert persists one collected pin. The collection stage calls this
// per item as it arrives so partial harvests survive a later crash.
func (s *PinStore) Insert(ctx context.Context, pin *models.Pin) error {
	if pin.ID == uuid.Nil {
		pin.ID = uuid.New()
	}
	if pin.Verdict == "" {
		pin.Verdict = models.VerdictUnscored
	}

	var metadata any
	if len(pin.Metadata) > 0 {
		metadata = []byte(pin.Metadata)
	}

	err := s.client.db.QueryRowContext(ctx, `
		INSERT INTO pins (id, request_id, source_url, landing_url, title, description, verdict, explanation, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING collected_at
	`, pin.ID, pin.RequestID, pin.SourceURL, pin.LandingURL, pin.Title,
		pin.Description, pin.Verdict, pin.Explanation, metadata,
	).Scan(&pin.CollectedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pin: %w", err)
	}

	return nil
}

// List returns pins for a request, optionally filtered by verdict and
// minimum score, sorted by score descending with collected_at ascending
// breaking ties. Unscored pins sort last.
func (s *PinStore) List(ctx context.Context, requestID uuid.UUID, filter models.PinFilter) ([]models.Pin, error) {
	builder := psql.Select(pinColumns...).
		From("pins").
		Where(sq.Eq{"request_id": requestID}).
		OrderBy("score DESC NULLS LAST", "collected_at ASC")

	if filter.Verdict != nil {
		builder = builder.Where(sq.Eq{"verdict": *filter.Verdict})
	}
	if filter.MinScore != nil {
		builder = builder.Where(sq.GtOrEq{"score": *filter.MinScore})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pin query: %w", err)
	}

	rows, err := s.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer rows.Close()

	return scanPins(rows)
}

// ListUnscored returns the pins awaiting validation in collected_at
// ascending order, so successive validation runs score deterministically.
func (s *PinStore) ListUnscored(ctx context.Context, requestID uuid.UUID) ([]models.Pin, error) {
	query, args, err := psql.Select(pinColumns...).
		From("pins").
		Where(sq.Eq{"request_id": requestID, "verdict": models.VerdictUnscored}).
		OrderBy("collected_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pin query: %w", err)
	}

	rows, err := s.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored pins: %w", err)
	}
	defer rows.Close()

	return scanPins(rows)
}

// UpdateScore records the validation outcome for one pin.
func (s *PinStore) UpdateScore(ctx context.Context, id uuid.UUID, score float64, verdict models.Verdict, explanation string) error {
	result, err := s.client.db.ExecContext(ctx, `
		UPDATE pins
		SET score = $2, verdict = $3, explanation = $4
		WHERE id = $1
	`, id, score, verdict, explanation)
	if err != nil {
		return fmt.Errorf("failed to update pin score: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pin %s: %w", id, models.ErrNotFound)
	}

	return nil
}

func (s *PinStore) CountByVerdict(ctx context.Context, requestID uuid.UUID, verdict models.Verdict) (int, error) {
	var count int
	err := s.client.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pins
		WHERE request_id = $1 AND verdict = $2
	`, requestID, verdict).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pins: %w", err)
	}
	return count, nil
}

// DeleteByRequest removes all pins for a request. Idempotent.
func (s *PinStore) DeleteByRequest(ctx context.Context, requestID uuid.UUID) error {
	_, err := s.client.db.ExecContext(ctx, `
		DELETE FROM pins
		WHERE request_id = $1
	`, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete pins: %w", err)
	}
	return nil
}

func scanPins(rows *sql.Rows) ([]models.Pin, error) {
	pins := []models.Pin{}
	for rows.Next() {
		var (
			pin      models.Pin
			metadata []byte
		)
		if err := rows.Scan(
			&pin.ID, &pin.RequestID, &pin.SourceURL, &pin.LandingURL, &pin.Title,
			&pin.Description, &pin.Score, &pin.Verdict, &pin.Explanation, &metadata, &pin.CollectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pin.Metadata = metadata
		pins = append(pins, pin)
	}
	return pins, rows.Err()
}
