// Package handlers exposes the HTTP surface. Each resource gets its own
// handler struct wired with the narrow store interfaces it needs, so
// tests can drive them with in-memory fakes.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pinscout-backend/internal/models"
)

// RequestDirectory is the request persistence the handlers consume.
type RequestDirectory interface {
	Create(ctx context.Context, text string) (*models.Request, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
	List(ctx context.Context, skip, limit int) ([]models.Request, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionDirectory reads and clears the session ledger.
type SessionDirectory interface {
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Session, error)
	DeleteByRequest(ctx context.Context, requestID uuid.UUID) error
}

// PinDirectory reads and clears collected pins.
type PinDirectory interface {
	List(ctx context.Context, requestID uuid.UUID, filter models.PinFilter) ([]models.Pin, error)
	DeleteByRequest(ctx context.Context, requestID uuid.UUID) error
}

// Orchestrator starts background pipeline runs.
type Orchestrator interface {
	StartFull(ctx context.Context, id uuid.UUID) (*models.Request, error)
	StartValidation(ctx context.Context, id uuid.UUID) (int, error)
}

// ProgressSource reconstructs a run's current state from the ledger.
type ProgressSource interface {
	Progress(ctx context.Context, requestID uuid.UUID) (*models.ProgressView, error)
}

// respondError maps the store sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with the caller's fallback label.
func respondError(c *gin.Context, fallback string, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found", Message: err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "conflict", Message: err.Error()})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Message: err.Error()})
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid state", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fallback, Message: err.Error()})
	}
}

// requestID parses the :request_id path parameter, writing the 400
// itself so callers can just return on false.
func requestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request id"})
		return uuid.Nil, false
	}
	return id, true
}
