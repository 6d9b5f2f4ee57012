package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pinscout-backend/internal/models"
)

type WorkflowHandler struct {
	orchestrator Orchestrator
	progress     ProgressSource
}

func NewWorkflowHandler(orchestrator Orchestrator, progress ProgressSource) *WorkflowHandler {
	return &WorkflowHandler{
		orchestrator: orchestrator,
		progress:     progress,
	}
}

// StartWorkflow godoc
// @Summary     Start the full pipeline for a request
// @Description Kicks off warm-up, collection and validation in the background and returns immediately. A request already processing is rejected with 409.
// @Tags        workflow
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Success     202 {object} models.StartWorkflowResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /requests/{request_id}/start-workflow [post]
func (h *WorkflowHandler) StartWorkflow(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.orchestrator.StartFull(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to start workflow", err)
		return
	}

	c.JSON(http.StatusAccepted, models.StartWorkflowResponse{
		RequestID: req.ID.String(),
		Status:    req.Status,
		Message:   "workflow started",
	})
}

// StartValidation godoc
// @Summary     Re-run validation for a request
// @Description Scores the request's unscored pins in the background without touching the request status. Rejected with 409 when a validation session is already open.
// @Tags        workflow
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Success     202 {object} models.StartValidationResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /requests/{request_id}/validate [post]
func (h *WorkflowHandler) StartValidation(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	count, err := h.orchestrator.StartValidation(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to start validation", err)
		return
	}

	c.JSON(http.StatusAccepted, models.StartValidationResponse{
		RequestID:     id.String(),
		UnscoredCount: count,
		Message:       fmt.Sprintf("validation started for %d unscored pins", count),
	})
}

// GetProgress godoc
// @Summary     Get live progress for a request
// @Description Snapshot of the run for polling clients: overall status, the stage currently open and the latest log line.
// @Tags        workflow
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Success     200 {object} models.ProgressView
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /requests/{request_id}/progress [get]
func (h *WorkflowHandler) GetProgress(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	view, err := h.progress.Progress(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to get progress", err)
		return
	}

	c.JSON(http.StatusOK, view)
}
