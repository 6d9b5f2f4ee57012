// Package workflow sequences the warm-up, collection and validation
// stages for a request, recording progress in the session ledger and
// tolerating partial failure of the external collaborators.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pinscout-backend/internal/classify"
	"pinscout-backend/internal/collab"
	"pinscout-backend/internal/models"
)

// RequestStore is the slice of request persistence the coordinator
// needs: reads plus forward-only status writes.
type RequestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
	BeginProcessing(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error
}

// SessionLedger records stage attempts. Open enforces the single
// non-terminal session per (request, stage) invariant; AppendLog and
// Close reject terminal sessions.
type SessionLedger interface {
	Open(ctx context.Context, requestID uuid.UUID, stage models.Stage) (*models.Session, error)
	AppendLog(ctx context.Context, sessionID uuid.UUID, line string) error
	Close(ctx context.Context, sessionID uuid.UUID, outcome models.SessionStatus) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Session, error)
	ListStalePending(ctx context.Context, before time.Time) ([]models.Session, error)
	HasOpen(ctx context.Context, requestID uuid.UUID) (bool, error)
}

// PinRepository stores collected candidates and their verdicts.
type PinRepository interface {
	Insert(ctx context.Context, pin *models.Pin) error
	ListUnscored(ctx context.Context, requestID uuid.UUID) ([]models.Pin, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score float64, verdict models.Verdict, explanation string) error
	CountByVerdict(ctx context.Context, requestID uuid.UUID, verdict models.Verdict) (int, error)
}

// Config carries the coordinator tunables.
type Config struct {
	// ScoreThreshold is the inclusive approval cutoff in [0, 1].
	ScoreThreshold float64
	// ScoreAttempts is how many times one pin is offered to the scorer
	// before its failure is logged and the pin is skipped.
	ScoreAttempts int
}

// Coordinator runs pipelines. Each StartFull or StartValidation call
// spawns one background unit of work; the per-stage open guard in the
// ledger keeps concurrent units from overlapping on the same request.
type Coordinator struct {
	requests  RequestStore
	ledger    SessionLedger
	pins      PinRepository
	browser   collab.BrowsingBias
	collector collab.Collector
	scorer    collab.Scorer

	threshold     float64
	scoreAttempts int

	log zerolog.Logger
	wg  sync.WaitGroup
}

func NewCoordinator(
	requests RequestStore,
	ledger SessionLedger,
	pins PinRepository,
	browser collab.BrowsingBias,
	collector collab.Collector,
	scorer collab.Scorer,
	cfg Config,
	log zerolog.Logger,
) *Coordinator {
	if cfg.ScoreAttempts < 1 {
		cfg.ScoreAttempts = 1
	}
	return &Coordinator{
		requests:      requests,
		ledger:        ledger,
		pins:          pins,
		browser:       browser,
		collector:     collector,
		scorer:        scorer,
		threshold:     cfg.ScoreThreshold,
		scoreAttempts: cfg.ScoreAttempts,
		log:           log,
	}
}

// StartFull acknowledges a full pipeline run and executes it in the
// background. It fails with ErrConflict when the request is already
// processing, so duplicate start calls are rejected rather than queued.
func (c *Coordinator) StartFull(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	req, err := c.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.requests.BeginProcessing(ctx, id); err != nil {
		return nil, err
	}
	req.Status = models.RequestStatusProcessing

	c.spawn(func() {
		// Detached from the HTTP request that triggered the run.
		c.runFull(context.Background(), *req)
	})

	return req, nil
}

// StartValidation acknowledges a standalone validation run and executes
// it in the background. The validation session is opened synchronously
// so a duplicate call observes ErrConflict before the ack. The parent
// request's status is never changed by a standalone run.
func (c *Coordinator) StartValidation(ctx context.Context, id uuid.UUID) (int, error) {
	req, err := c.requests.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	sess, err := c.ledger.Open(ctx, id, models.StageValidation)
	if err != nil {
		return 0, err
	}

	count, err := c.pins.CountByVerdict(ctx, id, models.VerdictUnscored)
	if err != nil {
		c.closeSession(ctx, sess.ID, models.SessionStatusFailed)
		return 0, err
	}

	c.spawn(func() {
		if err := c.runValidation(context.Background(), *req, sess); err != nil {
			c.log.Error().Err(err).Stringer("request_id", id).Msg("standalone validation failed")
		}
	})

	return count, nil
}

// Wait blocks until all background runs have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// runFull executes warm-up, collection and validation in order. Stages
// never overlap: each session closes before the next opens.
func (c *Coordinator) runFull(ctx context.Context, req models.Request) {
	log := c.log.With().Stringer("request_id", req.ID).Logger()

	if !c.runWarmup(ctx, req, log) {
		return
	}
	if !c.runCollection(ctx, req, log) {
		return
	}

	sess, err := c.ledger.Open(ctx, req.ID, models.StageValidation)
	if err != nil {
		log.Error().Err(err).Msg("failed to open validation session")
		c.failRequest(ctx, req.ID, log)
		return
	}

	if err := c.runValidation(ctx, req, sess); err != nil {
		c.failRequest(ctx, req.ID, log)
		return
	}

	if err := c.requests.SetStatus(ctx, req.ID, models.RequestStatusCompleted); err != nil {
		log.Error().Err(err).Msg("failed to complete request")
		return
	}
	log.Info().Msg("pipeline completed")
}

// runWarmup biases the feed. Any failure here is fatal to the whole
// run: a mis-biased feed would corrupt every downstream result.
func (c *Coordinator) runWarmup(ctx context.Context, req models.Request, log zerolog.Logger) bool {
	sess, err := c.ledger.Open(ctx, req.ID, models.StageWarmup)
	if err != nil {
		log.Error().Err(err).Msg("failed to open warm-up session")
		c.failRequest(ctx, req.ID, log)
		return false
	}

	c.append(ctx, sess.ID, fmt.Sprintf("Starting warm-up for %q", req.Text))

	err = c.browser.Warmup(ctx, req.Text, func(line string) {
		c.append(ctx, sess.ID, line)
	})
	if err != nil {
		log.Warn().Err(err).Msg("warm-up failed")
		c.append(ctx, sess.ID, "Warm-up failed: "+err.Error())
		c.closeSession(ctx, sess.ID, models.SessionStatusFailed)
		c.failRequest(ctx, req.ID, log)
		return false
	}

	c.append(ctx, sess.ID, "Warm-up completed")
	c.closeSession(ctx, sess.ID, models.SessionStatusCompleted)
	return true
}

// runCollection harvests candidates, persisting each as it arrives so
// partial results survive. A failure with at least one pin collected is
// downgraded to a completed stage; validation scores whatever exists.
func (c *Coordinator) runCollection(ctx context.Context, req models.Request, log zerolog.Logger) bool {
	sess, err := c.ledger.Open(ctx, req.ID, models.StageCollection)
	if err != nil {
		log.Error().Err(err).Msg("failed to open collection session")
		c.failRequest(ctx, req.ID, log)
		return false
	}

	c.append(ctx, sess.ID, fmt.Sprintf("Starting collection for %q", req.Text))

	collected := 0
	var insertErr error
	err = c.collector.Collect(ctx, req.Text, func(pin models.Pin) error {
		pin.RequestID = req.ID
		pin.Verdict = models.VerdictUnscored
		if err := c.pins.Insert(ctx, &pin); err != nil {
			insertErr = err
			return err
		}
		collected++
		c.append(ctx, sess.ID, fmt.Sprintf("Collected pin %d: %s", collected, pin.LandingURL))
		return nil
	})
	if insertErr != nil {
		// Repository failures are not collaborator noise; no amount of
		// collected pins downgrades them.
		log.Error().Err(insertErr).Int("collected", collected).Msg("failed to persist collected pin")
		c.append(ctx, sess.ID, "Collection aborted: "+insertErr.Error())
		c.closeSession(ctx, sess.ID, models.SessionStatusFailed)
		c.failRequest(ctx, req.ID, log)
		return false
	}
	if err != nil {
		log.Warn().Err(err).Int("collected", collected).Msg("collection failed")
		c.append(ctx, sess.ID, "Collection failed: "+err.Error())
		if collected == 0 {
			c.closeSession(ctx, sess.ID, models.SessionStatusFailed)
			c.failRequest(ctx, req.ID, log)
			return false
		}
		c.append(ctx, sess.ID, fmt.Sprintf("Continuing with %d collected pins", collected))
		c.closeSession(ctx, sess.ID, models.SessionStatusCompleted)
		return true
	}

	c.append(ctx, sess.ID, fmt.Sprintf("Collection completed with %d pins", collected))
	c.closeSession(ctx, sess.ID, models.SessionStatusCompleted)
	return true
}

// runValidation scores every unscored pin sequentially, earliest
// collected first. Per-pin scoring failures are logged and skipped; the
// run only fails when the scorer fails for every single pin attempted.
// The caller owns the parent request's status.
func (c *Coordinator) runValidation(ctx context.Context, req models.Request, sess *models.Session) error {
	unscored, err := c.pins.ListUnscored(ctx, req.ID)
	if err != nil {
		c.append(ctx, sess.ID, "Validation failed: "+err.Error())
		c.closeSession(ctx, sess.ID, models.SessionStatusFailed)
		return err
	}

	c.append(ctx, sess.ID, fmt.Sprintf("Starting validation of %d pins", len(unscored)))

	var successes, approved, rejected int
	for i, pin := range unscored {
		score, explanation, err := c.scorePin(ctx, pin, req.Text)
		if err != nil {
			c.append(ctx, sess.ID, fmt.Sprintf("Scoring failed for pin %d/%d: %v", i+1, len(unscored), err))
			continue
		}

		verdict, err := classify.Classify(score, c.threshold)
		if err != nil {
			c.append(ctx, sess.ID, fmt.Sprintf("Pin %d/%d returned out-of-range score %v, leaving unscored", i+1, len(unscored), score))
			continue
		}

		if err := c.pins.UpdateScore(ctx, pin.ID, score, verdict, explanation); err != nil {
			// Repository failures are not collaborator noise; abort loudly.
			c.append(ctx, sess.ID, "Validation aborted: "+err.Error())
			c.closeSession(ctx, sess.ID, models.SessionStatusFailed)
			return err
		}

		successes++
		if verdict == models.VerdictApproved {
			approved++
		} else {
			rejected++
		}
		c.append(ctx, sess.ID, fmt.Sprintf("Validated pin %d/%d - %s (score %.2f)", i+1, len(unscored), verdict, score))
	}

	if len(unscored) > 0 && successes == 0 {
		c.append(ctx, sess.ID, "Validation failed: scoring service failed for every pin")
		c.closeSession(ctx, sess.ID, models.SessionStatusFailed)
		return fmt.Errorf("scoring failed for all %d pins", len(unscored))
	}

	c.append(ctx, sess.ID, fmt.Sprintf(
		"Validation completed: %d approved, %d rejected, %d still unscored",
		approved, rejected, len(unscored)-successes,
	))
	c.closeSession(ctx, sess.ID, models.SessionStatusCompleted)
	return nil
}

func (c *Coordinator) scorePin(ctx context.Context, pin models.Pin, text string) (float64, string, error) {
	var lastErr error
	for attempt := 0; attempt < c.scoreAttempts; attempt++ {
		score, explanation, err := c.scorer.Score(ctx, pin, text)
		if err == nil {
			return score, explanation, nil
		}
		lastErr = err
	}
	return 0, "", lastErr
}

func (c *Coordinator) append(ctx context.Context, sessionID uuid.UUID, line string) {
	if err := c.ledger.AppendLog(ctx, sessionID, line); err != nil {
		c.log.Error().Err(err).Stringer("session_id", sessionID).Str("line", line).
			Msg("failed to append session log")
	}
}

func (c *Coordinator) closeSession(ctx context.Context, sessionID uuid.UUID, outcome models.SessionStatus) {
	if err := c.ledger.Close(ctx, sessionID, outcome); err != nil {
		c.log.Error().Err(err).Stringer("session_id", sessionID).
			Msg("failed to close session")
	}
}

func (c *Coordinator) failRequest(ctx context.Context, id uuid.UUID, log zerolog.Logger) {
	if err := c.requests.SetStatus(ctx, id, models.RequestStatusError); err != nil {
		log.Error().Err(err).Msg("failed to mark request as error")
	}
}
