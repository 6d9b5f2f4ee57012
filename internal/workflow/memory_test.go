package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pinscout-backend/internal/models"
)

// memStore is an in-memory stand-in for the database stores, honoring
// the same ledger and status-transition contracts.
type memStore struct {
	mu sync.Mutex

	requests map[uuid.UUID]*models.Request

	sessions     map[uuid.UUID]*models.Session
	sessionOrder []uuid.UUID

	pins     map[uuid.UUID]*models.Pin
	pinOrder []uuid.UUID

	// insertErrAt, when positive, fails the Nth Insert call with insertErr.
	insertErrAt int
	insertErr   error
	inserts     int

	clock time.Time
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[uuid.UUID]*models.Request),
		sessions: make(map[uuid.UUID]*models.Session),
		pins:     make(map[uuid.UUID]*models.Pin),
		clock:    time.Now().Add(-time.Hour),
	}
}

// tick hands out strictly increasing timestamps so ordering by
// started_at / collected_at is deterministic.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) addRequest(text string, status models.RequestStatus) *models.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := &models.Request{
		ID:        uuid.New(),
		Text:      text,
		Status:    status,
		CreatedAt: m.tick(),
	}
	m.requests[req.ID] = req
	return req
}

func (m *memStore) addPin(requestID uuid.UUID, sourceURL string) *models.Pin {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(&models.Pin{
		RequestID:  requestID,
		SourceURL:  sourceURL,
		LandingURL: sourceURL,
		Verdict:    models.VerdictUnscored,
	})
}

func (m *memStore) addSession(requestID uuid.UUID, stage models.Stage, status models.SessionStatus, startedAt time.Time) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := &models.Session{
		ID:        uuid.New(),
		RequestID: requestID,
		Stage:     stage,
		Status:    status,
		StartedAt: startedAt,
	}
	m.sessions[sess.ID] = sess
	m.sessionOrder = append(m.sessionOrder, sess.ID)
	return sess
}

func (m *memStore) sessionsFor(requestID uuid.UUID) []models.Session {
	sessions, _ := m.ListByRequest(context.Background(), requestID)
	return sessions
}

func (m *memStore) pinsFor(requestID uuid.UUID) []models.Pin {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pins []models.Pin
	for _, id := range m.pinOrder {
		if pin := m.pins[id]; pin.RequestID == requestID {
			pins = append(pins, *pin)
		}
	}
	return pins
}

// --- workflow.RequestStore ---

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, models.ErrNotFound)
	}
	copied := *req
	return &copied, nil
}

func (m *memStore) BeginProcessing(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, models.ErrNotFound)
	}
	if req.Status == models.RequestStatusProcessing {
		return fmt.Errorf("request %s is already processing: %w", id, models.ErrConflict)
	}
	req.Status = models.RequestStatusProcessing
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id uuid.UUID, status models.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, models.ErrNotFound)
	}
	if status == models.RequestStatusPending {
		return fmt.Errorf("cannot reset to pending: %w", models.ErrInvalidState)
	}
	req.Status = status
	return nil
}

// --- workflow.SessionLedger ---

func (m *memStore) Open(_ context.Context, requestID uuid.UUID, stage models.Stage) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.sessionOrder {
		sess := m.sessions[id]
		if sess.RequestID == requestID && sess.Stage == stage && sess.Status == models.SessionStatusPending {
			return nil, fmt.Errorf("%s session already open: %w", stage, models.ErrConflict)
		}
	}

	sess := &models.Session{
		ID:        uuid.New(),
		RequestID: requestID,
		Stage:     stage,
		Status:    models.SessionStatusPending,
		StartedAt: m.tick(),
	}
	m.sessions[sess.ID] = sess
	m.sessionOrder = append(m.sessionOrder, sess.ID)

	copied := *sess
	return &copied, nil
}

func (m *memStore) AppendLog(_ context.Context, sessionID uuid.UUID, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if sess.Status.Terminal() {
		return fmt.Errorf("session %s is closed: %w", sessionID, models.ErrInvalidState)
	}
	sess.Log = append(sess.Log, line)
	return nil
}

func (m *memStore) Close(_ context.Context, sessionID uuid.UUID, outcome models.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if !outcome.Terminal() {
		return fmt.Errorf("close outcome must be terminal: %w", models.ErrInvalidState)
	}
	if sess.Status.Terminal() {
		return fmt.Errorf("session %s already closed: %w", sessionID, models.ErrInvalidState)
	}
	sess.Status = outcome
	return nil
}

func (m *memStore) ListByRequest(_ context.Context, requestID uuid.UUID) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := []models.Session{}
	for _, id := range m.sessionOrder {
		if sess := m.sessions[id]; sess.RequestID == requestID {
			sessions = append(sessions, *sess)
		}
	}
	return sessions, nil
}

func (m *memStore) ListStalePending(_ context.Context, before time.Time) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stale := []models.Session{}
	for _, id := range m.sessionOrder {
		sess := m.sessions[id]
		if sess.Status == models.SessionStatusPending && sess.StartedAt.Before(before) {
			stale = append(stale, *sess)
		}
	}
	return stale, nil
}

func (m *memStore) HasOpen(_ context.Context, requestID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.sessionOrder {
		sess := m.sessions[id]
		if sess.RequestID == requestID && sess.Status == models.SessionStatusPending {
			return true, nil
		}
	}
	return false, nil
}

// --- workflow.PinRepository ---

func (m *memStore) Insert(_ context.Context, pin *models.Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inserts++
	if m.insertErrAt > 0 && m.inserts == m.insertErrAt {
		return m.insertErr
	}
	m.insertLocked(pin)
	return nil
}

func (m *memStore) insertLocked(pin *models.Pin) *models.Pin {
	if pin.ID == uuid.Nil {
		pin.ID = uuid.New()
	}
	pin.CollectedAt = m.tick()
	copied := *pin
	m.pins[pin.ID] = &copied
	m.pinOrder = append(m.pinOrder, pin.ID)
	return &copied
}

func (m *memStore) ListUnscored(_ context.Context, requestID uuid.UUID) ([]models.Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pins := []models.Pin{}
	for _, id := range m.pinOrder {
		pin := m.pins[id]
		if pin.RequestID == requestID && pin.Verdict == models.VerdictUnscored {
			pins = append(pins, *pin)
		}
	}
	return pins, nil
}

func (m *memStore) UpdateScore(_ context.Context, id uuid.UUID, score float64, verdict models.Verdict, explanation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pin, ok := m.pins[id]
	if !ok {
		return fmt.Errorf("pin %s: %w", id, models.ErrNotFound)
	}
	pin.Score.Float64 = score
	pin.Score.Valid = true
	pin.Verdict = verdict
	pin.Explanation = explanation
	return nil
}

func (m *memStore) CountByVerdict(_ context.Context, requestID uuid.UUID, verdict models.Verdict) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, id := range m.pinOrder {
		pin := m.pins[id]
		if pin.RequestID == requestID && pin.Verdict == verdict {
			count++
		}
	}
	return count, nil
}
