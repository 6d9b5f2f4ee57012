package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage is one of the three sequential phases of a pipeline run.
type Stage string

const (
	StageWarmup     Stage = "warmup"
	StageCollection Stage = "collection"
	StageValidation Stage = "validation"
)

func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageWarmup, StageCollection, StageValidation:
		return Stage(s), nil
	}
	return "", fmt.Errorf("%w: unknown stage %q", ErrValidation, s)
}

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// Terminal reports whether the session is frozen.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// Session records one execution attempt of one stage for one request.
// Log is append-only in emission order and freezes once the session
// reaches a terminal status.
type Session struct {
	ID        uuid.UUID     `json:"id"`
	RequestID uuid.UUID     `json:"request_id"`
	Stage     Stage         `json:"stage"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Log       []string      `json:"log"`
}
