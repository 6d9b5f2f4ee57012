package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pinscout-backend/internal/models"
)

type PinsHandler struct {
	requests RequestDirectory
	pins     PinDirectory
}

func NewPinsHandler(requests RequestDirectory, pins PinDirectory) *PinsHandler {
	return &PinsHandler{
		requests: requests,
		pins:     pins,
	}
}

// ListPins godoc
// @Summary     List a request's collected pins
// @Description Returns pins best score first, unscored last. Optionally filtered by verdict and a minimum score.
// @Tags        pins
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Param       status     query string false "Filter by verdict" Enums(unscored, approved, rejected)
// @Param       min_score  query number false "Only pins scored at or above this value"
// @Success     200 {array} models.PinResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /requests/{request_id}/pins [get]
func (h *PinsHandler) ListPins(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var filter models.PinFilter
	if raw := c.Query("status"); raw != "" {
		verdict, err := models.ParseVerdict(raw)
		if err != nil {
			respondError(c, "invalid status parameter", err)
			return
		}
		filter.Verdict = &verdict
	}
	if raw := c.Query("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil || minScore < 0 || minScore > 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "min_score must be a number between 0 and 1"})
			return
		}
		filter.MinScore = &minScore
	}

	if _, err := h.requests.Get(c.Request.Context(), id); err != nil {
		respondError(c, "failed to get request", err)
		return
	}

	pins, err := h.pins.List(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, "failed to list pins", err)
		return
	}

	c.JSON(http.StatusOK, models.NewPinResponses(pins))
}
