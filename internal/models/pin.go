package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Verdict is the classification of a collected pin. A pin with no score
// yet is unscored; validation flips it to approved or rejected.
type Verdict string

const (
	VerdictUnscored Verdict = "unscored"
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

func ParseVerdict(s string) (Verdict, error) {
	switch Verdict(s) {
	case VerdictUnscored, VerdictApproved, VerdictRejected:
		return Verdict(s), nil
	}
	return "", fmt.Errorf("%w: unknown verdict %q", ErrValidation, s)
}

// PinFilter narrows pin listings. Nil fields mean no filtering on that
// dimension.
type PinFilter struct {
	Verdict  *Verdict
	MinScore *float64
}

// Pin is one candidate image collected for a request. Score is NULL in
// storage until the validation stage scores the pin.
type Pin struct {
	ID          uuid.UUID
	RequestID   uuid.UUID
	SourceURL   string
	LandingURL  string
	Title       string
	Description string
	Score       sql.NullFloat64
	Verdict     Verdict
	Explanation string
	Metadata    json.RawMessage
	CollectedAt time.Time
}
