package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxRequestTextLength = 500

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusError      RequestStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusError
}

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case RequestStatusPending, RequestStatusProcessing, RequestStatusCompleted, RequestStatusError:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown request status %q", ErrValidation, s)
}

// Request is one user-submitted visual intent driving one pipeline run.
type Request struct {
	ID        uuid.UUID     `json:"id"`
	Text      string        `json:"text"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

type CreateRequestBody struct {
	Text string `json:"text" example:"boho minimalist bedroom"`
}

// Validate rejects empty or oversized intent text before any state mutation.
func (b CreateRequestBody) Validate() error {
	text := strings.TrimSpace(b.Text)
	if text == "" {
		return fmt.Errorf("%w: text must not be empty", ErrValidation)
	}
	if len(text) > maxRequestTextLength {
		return fmt.Errorf("%w: text must be at most %d characters", ErrValidation, maxRequestTextLength)
	}
	return nil
}
