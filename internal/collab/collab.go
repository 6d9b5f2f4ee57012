// Package collab defines the external collaborators the workflow
// coordinator depends on, and HTTP clients implementing them. The
// coordinator only sees these interfaces; failures surface as
// *CollaboratorError and are handled per the stage's failure policy.
package collab

import (
	"context"
	"fmt"

	"pinscout-backend/internal/models"
)

// BrowsingBias warms up the recommendation feed for a text intent,
// relaying human-readable progress lines through emit.
type BrowsingBias interface {
	Warmup(ctx context.Context, text string, emit func(line string)) error
}

// Collector harvests candidate pins for a text intent, streaming each
// pin through emit as it is found. A non-nil error from emit aborts the
// stream and is returned unchanged.
type Collector interface {
	Collect(ctx context.Context, text string, emit func(pin models.Pin) error) error
}

// Scorer rates one pin against the original intent, returning a score
// in [0, 1] and a human-readable explanation.
type Scorer interface {
	Score(ctx context.Context, pin models.Pin, text string) (float64, string, error)
}

// CollaboratorError wraps a failure of an external service call.
type CollaboratorError struct {
	Service string
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator: %v", e.Service, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collaboratorErr(service string, err error) error {
	return &CollaboratorError{Service: service, Err: err}
}
