package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pinscout-backend/internal/models"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

type RequestsHandler struct {
	requests RequestDirectory
	sessions SessionDirectory
	pins     PinDirectory
}

func NewRequestsHandler(requests RequestDirectory, sessions SessionDirectory, pins PinDirectory) *RequestsHandler {
	return &RequestsHandler{
		requests: requests,
		sessions: sessions,
		pins:     pins,
	}
}

// CreateRequest godoc
// @Summary     Create a new search request
// @Description Registers a visual intent. The request starts pending and does nothing until its workflow is started.
// @Tags        requests
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateRequestBody true "Intent text"
// @Success     201 {object} models.Request
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /requests [post]
func (h *RequestsHandler) CreateRequest(c *gin.Context) {
	var body models.CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		respondError(c, "validation failed", err)
		return
	}

	req, err := h.requests.Create(c.Request.Context(), strings.TrimSpace(body.Text))
	if err != nil {
		respondError(c, "failed to create request", err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// ListRequests godoc
// @Summary     List search requests
// @Description Returns requests newest first, paginated with skip and limit.
// @Tags        requests
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       skip  query int false "Number of requests to skip" default(0)
// @Param       limit query int false "Maximum number of requests to return" default(10)
// @Success     200 {array} models.Request
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /requests [get]
func (h *RequestsHandler) ListRequests(c *gin.Context) {
	skip, ok := intQuery(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultListLimit)
	if !ok {
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	requests, err := h.requests.List(c.Request.Context(), skip, limit)
	if err != nil {
		respondError(c, "failed to list requests", err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetRequest godoc
// @Summary     Get a search request
// @Tags        requests
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Success     200 {object} models.Request
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /requests/{request_id} [get]
func (h *RequestsHandler) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to get request", err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// DeleteRequest godoc
// @Summary     Delete a request and everything recorded for it
// @Description Removes the request, then its sessions and pins. The request row goes first so the id disappears immediately; the whole cascade is idempotent, so a delete that failed partway can simply be retried.
// @Tags        requests
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Success     200 {object} map[string]string "message"
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /requests/{request_id} [delete]
func (h *RequestsHandler) DeleteRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	// A missing row is fine: a retry after a partial failure still has
	// orphaned sessions and pins to clean up.
	if err := h.requests.Delete(c.Request.Context(), id); err != nil && !errors.Is(err, models.ErrNotFound) {
		respondError(c, "failed to delete request", err)
		return
	}
	if err := h.sessions.DeleteByRequest(c.Request.Context(), id); err != nil {
		respondError(c, "failed to delete sessions", err)
		return
	}
	if err := h.pins.DeleteByRequest(c.Request.Context(), id); err != nil {
		respondError(c, "failed to delete pins", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request deleted successfully"})
}

// GetResults godoc
// @Summary     Get a request with its sessions and pins
// @Description One-shot fetch of the request, its full session history and every collected pin, best scores first.
// @Tags        requests
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Success     200 {object} models.ResultsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /requests/{request_id}/results [get]
func (h *RequestsHandler) GetResults(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to get request", err)
		return
	}

	sessions, err := h.sessions.ListByRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to list sessions", err)
		return
	}

	pins, err := h.pins.List(c.Request.Context(), id, models.PinFilter{})
	if err != nil {
		respondError(c, "failed to list pins", err)
		return
	}

	c.JSON(http.StatusOK, models.ResultsResponse{
		Request:  *req,
		Sessions: sessions,
		Pins:     models.NewPinResponses(pins),
	})
}

// intQuery parses a non-negative integer query parameter, writing the
// 400 itself so callers can just return on false.
func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + name + " parameter"})
		return 0, false
	}
	return value, true
}
