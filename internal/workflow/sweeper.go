package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pinscout-backend/internal/models"
)

const (
	DefaultStaleAfter    = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Sweeper is the stale-session recovery policy: a session left pending
// past the staleness cutoff (crashed unit, process restart) is closed
// failed, and the parent request is advanced to error when nothing else
// is still running for it. Without this, a crashed run leaves a
// permanently processing request that polling clients wait on forever.
type Sweeper struct {
	ledger     SessionLedger
	requests   RequestStore
	staleAfter time.Duration
	interval   time.Duration
	log        zerolog.Logger
}

func NewSweeper(ledger SessionLedger, requests RequestStore, staleAfter, interval time.Duration, log zerolog.Logger) *Sweeper {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		ledger:     ledger,
		requests:   requests,
		staleAfter: staleAfter,
		interval:   interval,
		log:        log,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error().Err(err).Msg("recovery sweep failed")
			}
		}
	}
}

// Sweep performs one recovery pass. It is safe to run concurrently with
// live pipelines: a session closed by its own unit between listing and
// closing is simply skipped.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.staleAfter)

	stale, err := s.ledger.ListStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale sessions: %w", err)
	}

	for _, sess := range stale {
		log := s.log.With().
			Stringer("session_id", sess.ID).
			Stringer("request_id", sess.RequestID).
			Str("stage", string(sess.Stage)).
			Logger()

		line := fmt.Sprintf("Closed as failed by recovery sweep after %s without completion", s.staleAfter)
		if err := s.ledger.AppendLog(ctx, sess.ID, line); err != nil {
			if errors.Is(err, models.ErrInvalidState) {
				// The owning unit closed it after we listed; nothing stale here.
				continue
			}
			log.Error().Err(err).Msg("failed to record sweep log line")
		}

		if err := s.ledger.Close(ctx, sess.ID, models.SessionStatusFailed); err != nil {
			if errors.Is(err, models.ErrInvalidState) {
				continue
			}
			log.Error().Err(err).Msg("failed to close stale session")
			continue
		}
		log.Warn().Msg("closed stale session")

		if err := s.failAbandonedRequest(ctx, sess.RequestID); err != nil {
			log.Error().Err(err).Msg("failed to update request after sweep")
		}
	}

	return nil
}

// failAbandonedRequest advances the parent to error when no other stage
// is still open. Only a processing request is touched: completed and
// error are terminal, and a standalone re-validation that went stale
// must not revert a previously completed request.
func (s *Sweeper) failAbandonedRequest(ctx context.Context, requestID uuid.UUID) error {
	open, err := s.ledger.HasOpen(ctx, requestID)
	if err != nil {
		return err
	}
	if open {
		return nil
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Request was deleted while its sessions lingered.
			return nil
		}
		return err
	}
	if req.Status != models.RequestStatusProcessing {
		return nil
	}

	return s.requests.SetStatus(ctx, requestID, models.RequestStatusError)
}
