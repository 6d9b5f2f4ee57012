package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinscout-backend/internal/models"
	"pinscout-backend/internal/workflow"
)

type fakeBrowser struct {
	lines []string
	err   error
}

func (b *fakeBrowser) Warmup(_ context.Context, _ string, emit func(string)) error {
	for _, line := range b.lines {
		emit(line)
	}
	return b.err
}

type fakeCollector struct {
	pins []models.Pin
	err  error
}

func (c *fakeCollector) Collect(_ context.Context, _ string, emit func(models.Pin) error) error {
	for _, pin := range c.pins {
		if err := emit(pin); err != nil {
			return err
		}
	}
	return c.err
}

type scriptedScore struct {
	score       float64
	explanation string
	err         error
}

// fakeScorer scripts one response per source URL and counts calls.
type fakeScorer struct {
	mu      sync.Mutex
	scripts map[string]scriptedScore
	calls   map[string]int

	// failFirst makes the first call for every URL fail before the
	// scripted response is served.
	failFirst bool
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{
		scripts: make(map[string]scriptedScore),
		calls:   make(map[string]int),
	}
}

func (s *fakeScorer) set(url string, score float64, err error) {
	s.scripts[url] = scriptedScore{score: score, explanation: "because " + url, err: err}
}

func (s *fakeScorer) Score(_ context.Context, pin models.Pin, _ string) (float64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[pin.SourceURL]++
	if s.failFirst && s.calls[pin.SourceURL] == 1 {
		return 0, "", errors.New("transient scorer failure")
	}

	script, ok := s.scripts[pin.SourceURL]
	if !ok {
		return 0, "", fmt.Errorf("no script for %s", pin.SourceURL)
	}
	return script.score, script.explanation, script.err
}

func somePins(n int) []models.Pin {
	pins := make([]models.Pin, n)
	for i := range pins {
		url := fmt.Sprintf("https://i.pinimg.com/pin-%d.jpg", i)
		pins[i] = models.Pin{SourceURL: url, LandingURL: url, Title: fmt.Sprintf("pin %d", i)}
	}
	return pins
}

func newCoordinator(store *memStore, browser *fakeBrowser, collector *fakeCollector, scorer *fakeScorer, cfg workflow.Config) *workflow.Coordinator {
	return workflow.NewCoordinator(store, store, store, browser, collector, scorer, cfg, zerolog.Nop())
}

func TestStartFullHappyPath(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("cozy cabin interiors", models.RequestStatusPending)

	pins := somePins(2)
	scorer := newFakeScorer()
	scorer.set(pins[0].SourceURL, 0.9, nil)
	scorer.set(pins[1].SourceURL, 0.2, nil)

	coord := newCoordinator(store,
		&fakeBrowser{lines: []string{"Browsing feed 1/3", "Browsing feed 2/3", "Browsing feed 3/3"}},
		&fakeCollector{pins: pins},
		scorer,
		workflow.Config{ScoreThreshold: 0.5},
	)

	acked, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusProcessing, acked.Status)

	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status)

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 3)

	assert.Equal(t, models.StageWarmup, sessions[0].Stage)
	assert.Equal(t, models.SessionStatusCompleted, sessions[0].Status)
	assert.Contains(t, sessions[0].Log, "Browsing feed 2/3")
	assert.Contains(t, sessions[0].Log, "Warm-up completed")

	assert.Equal(t, models.StageCollection, sessions[1].Stage)
	assert.Equal(t, models.SessionStatusCompleted, sessions[1].Status)
	assert.Contains(t, sessions[1].Log, "Collection completed with 2 pins")

	assert.Equal(t, models.StageValidation, sessions[2].Stage)
	assert.Equal(t, models.SessionStatusCompleted, sessions[2].Status)
	assert.Contains(t, sessions[2].Log, "Validation completed: 1 approved, 1 rejected, 0 still unscored")

	stored := store.pinsFor(req.ID)
	require.Len(t, stored, 2)
	assert.Equal(t, models.VerdictApproved, stored[0].Verdict)
	assert.InDelta(t, 0.9, stored[0].Score.Float64, 1e-9)
	assert.Equal(t, models.VerdictRejected, stored[1].Verdict)
	assert.NotEmpty(t, stored[1].Explanation)
}

func TestStartFullWarmupFailureIsFatal(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("brutalist architecture", models.RequestStatusPending)

	coord := newCoordinator(store,
		&fakeBrowser{err: errors.New("browse service timed out")},
		&fakeCollector{pins: somePins(3)},
		newFakeScorer(),
		workflow.Config{ScoreThreshold: 0.5},
	)

	_, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusError, updated.Status)

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 1, "no collection or validation session after fatal warm-up")
	assert.Equal(t, models.StageWarmup, sessions[0].Stage)
	assert.Equal(t, models.SessionStatusFailed, sessions[0].Status)
	assert.Contains(t, sessions[0].Log, "Warm-up failed: browse service timed out")

	assert.Empty(t, store.pinsFor(req.ID))
}

func TestStartFullPartialScoringCompletes(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("mid-century lamps", models.RequestStatusPending)

	pins := somePins(5)
	scorer := newFakeScorer()
	scorer.set(pins[0].SourceURL, 0.8, nil)
	scorer.set(pins[1].SourceURL, 0, errors.New("scorer 500"))
	scorer.set(pins[2].SourceURL, 0.5, nil)
	scorer.set(pins[3].SourceURL, 0, errors.New("scorer 500"))
	scorer.set(pins[4].SourceURL, 0.3, nil)

	coord := newCoordinator(store,
		&fakeBrowser{},
		&fakeCollector{pins: pins},
		scorer,
		workflow.Config{ScoreThreshold: 0.5},
	)

	_, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status,
		"per-pin scoring failures must not fail the run")

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 3)
	validation := sessions[2]
	assert.Equal(t, models.SessionStatusCompleted, validation.Status)
	assert.Contains(t, validation.Log, "Starting validation of 5 pins")
	assert.Contains(t, validation.Log, "Validated pin 3/5 - approved (score 0.50)")
	assert.Contains(t, validation.Log, "Validation completed: 2 approved, 1 rejected, 2 still unscored")

	unscored, err := store.ListUnscored(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, unscored, 2)
}

func TestStartFullCollectionFailureWithNothingCollected(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("street photography", models.RequestStatusPending)

	coord := newCoordinator(store,
		&fakeBrowser{},
		&fakeCollector{err: errors.New("feed returned no pins")},
		newFakeScorer(),
		workflow.Config{ScoreThreshold: 0.5},
	)

	_, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusError, updated.Status)

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 2, "validation never opens when collection yields nothing")
	assert.Equal(t, models.SessionStatusFailed, sessions[1].Status)
	assert.Contains(t, sessions[1].Log, "Collection failed: feed returned no pins")
}

func TestStartFullCollectionFailureWithPartialHarvest(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("japanese gardens", models.RequestStatusPending)

	pins := somePins(2)
	scorer := newFakeScorer()
	scorer.set(pins[0].SourceURL, 0.7, nil)
	scorer.set(pins[1].SourceURL, 0.6, nil)

	coord := newCoordinator(store,
		&fakeBrowser{},
		&fakeCollector{pins: pins, err: errors.New("connection reset mid-page")},
		scorer,
		workflow.Config{ScoreThreshold: 0.5},
	)

	_, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status,
		"a partial harvest still proceeds to validation")

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 3)
	assert.Equal(t, models.SessionStatusCompleted, sessions[1].Status)
	assert.Contains(t, sessions[1].Log, "Continuing with 2 collected pins")

	for _, pin := range store.pinsFor(req.ID) {
		assert.Equal(t, models.VerdictApproved, pin.Verdict)
	}
}

func TestStartFullInsertFailureFailsCollection(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("terrazzo floors", models.RequestStatusPending)
	store.insertErrAt = 2
	store.insertErr = errors.New("pq: connection reset")

	coord := newCoordinator(store,
		&fakeBrowser{},
		&fakeCollector{pins: somePins(3)},
		newFakeScorer(),
		workflow.Config{ScoreThreshold: 0.5},
	)

	_, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusError, updated.Status,
		"a repository failure is never downgraded, even with pins already collected")

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 2, "validation never opens after a repository failure")
	assert.Equal(t, models.SessionStatusFailed, sessions[1].Status)
	assert.Contains(t, sessions[1].Log, "Collection aborted: pq: connection reset")
	assert.Contains(t, sessions[1].Log, "Collected pin 1: https://i.pinimg.com/pin-0.jpg",
		"the pin persisted before the failure stays recorded")
}

func TestStartFullRejectsAlreadyProcessing(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("alpine lakes", models.RequestStatusProcessing)

	coord := newCoordinator(store, &fakeBrowser{}, &fakeCollector{}, newFakeScorer(), workflow.Config{})

	_, err := coord.StartFull(context.Background(), req.ID)
	require.ErrorIs(t, err, models.ErrConflict)
	coord.Wait()

	assert.Empty(t, store.sessionsFor(req.ID), "rejected start must not open any session")
}

func TestStartFullUnknownRequest(t *testing.T) {
	store := newMemStore()
	coord := newCoordinator(store, &fakeBrowser{}, &fakeCollector{}, newFakeScorer(), workflow.Config{})

	_, err := coord.StartFull(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestScoringRetriesTransientFailure(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("vintage posters", models.RequestStatusPending)

	pins := somePins(1)
	scorer := newFakeScorer()
	scorer.failFirst = true
	scorer.set(pins[0].SourceURL, 0.9, nil)

	coord := newCoordinator(store,
		&fakeBrowser{},
		&fakeCollector{pins: pins},
		scorer,
		workflow.Config{ScoreThreshold: 0.5, ScoreAttempts: 2},
	)

	_, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status)

	assert.Equal(t, 2, scorer.calls[pins[0].SourceURL])
	stored := store.pinsFor(req.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, models.VerdictApproved, stored[0].Verdict)
}

func TestOutOfRangeScoreLeavesPinUnscored(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("desert sunsets", models.RequestStatusPending)

	pins := somePins(2)
	scorer := newFakeScorer()
	scorer.set(pins[0].SourceURL, 1.5, nil)
	scorer.set(pins[1].SourceURL, 0.4, nil)

	coord := newCoordinator(store,
		&fakeBrowser{},
		&fakeCollector{pins: pins},
		scorer,
		workflow.Config{ScoreThreshold: 0.5},
	)

	_, err := coord.StartFull(context.Background(), req.ID)
	require.NoError(t, err)
	coord.Wait()

	stored := store.pinsFor(req.ID)
	require.Len(t, stored, 2)
	assert.Equal(t, models.VerdictUnscored, stored[0].Verdict)
	assert.False(t, stored[0].Score.Valid, "out-of-range score must not be persisted")
	assert.Equal(t, models.VerdictRejected, stored[1].Verdict)

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status)
}

func TestStartValidationStandalone(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("watercolor birds", models.RequestStatusCompleted)
	first := store.addPin(req.ID, "https://i.pinimg.com/left-over-1.jpg")
	second := store.addPin(req.ID, "https://i.pinimg.com/left-over-2.jpg")

	scorer := newFakeScorer()
	scorer.set(first.SourceURL, 0.6, nil)
	scorer.set(second.SourceURL, 0.1, nil)

	coord := newCoordinator(store, &fakeBrowser{}, &fakeCollector{}, scorer, workflow.Config{ScoreThreshold: 0.5})

	count, err := coord.StartValidation(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	coord.Wait()

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status,
		"standalone validation never touches the request status")

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.StageValidation, sessions[0].Stage)
	assert.Equal(t, models.SessionStatusCompleted, sessions[0].Status)

	stored := store.pinsFor(req.ID)
	assert.Equal(t, models.VerdictApproved, stored[0].Verdict)
	assert.Equal(t, models.VerdictRejected, stored[1].Verdict)
}

func TestStartValidationConflictsWithOpenSession(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("tiled courtyards", models.RequestStatusCompleted)
	store.addSession(req.ID, models.StageValidation, models.SessionStatusPending, store.tick())

	coord := newCoordinator(store, &fakeBrowser{}, &fakeCollector{}, newFakeScorer(), workflow.Config{})

	_, err := coord.StartValidation(context.Background(), req.ID)
	require.ErrorIs(t, err, models.ErrConflict)
	coord.Wait()

	assert.Len(t, store.sessionsFor(req.ID), 1, "conflicting start must not open a second session")
}

func TestStartValidationNothingToScore(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("stained glass", models.RequestStatusCompleted)

	coord := newCoordinator(store, &fakeBrowser{}, &fakeCollector{}, newFakeScorer(), workflow.Config{})

	count, err := coord.StartValidation(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	coord.Wait()

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.SessionStatusCompleted, sessions[0].Status)
	assert.Contains(t, sessions[0].Log, "Starting validation of 0 pins")
	assert.Contains(t, sessions[0].Log, "Validation completed: 0 approved, 0 rejected, 0 still unscored")
	for _, line := range sessions[0].Log {
		assert.NotContains(t, line, "Validated pin")
	}
}

func TestStartValidationCatastrophicFailure(t *testing.T) {
	store := newMemStore()
	req := store.addRequest("antique maps", models.RequestStatusCompleted)
	pin := store.addPin(req.ID, "https://i.pinimg.com/unreachable.jpg")

	scorer := newFakeScorer()
	scorer.set(pin.SourceURL, 0, errors.New("scorer unreachable"))

	coord := newCoordinator(store, &fakeBrowser{}, &fakeCollector{}, scorer, workflow.Config{ScoreThreshold: 0.5})

	count, err := coord.StartValidation(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	coord.Wait()

	sessions := store.sessionsFor(req.ID)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.SessionStatusFailed, sessions[0].Status)
	assert.Contains(t, sessions[0].Log, "Validation failed: scoring service failed for every pin")

	updated, err := store.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status,
		"a failed standalone validation leaves the request alone")
}
