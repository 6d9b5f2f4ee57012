package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SessionsHandler struct {
	requests RequestDirectory
	sessions SessionDirectory
}

func NewSessionsHandler(requests RequestDirectory, sessions SessionDirectory) *SessionsHandler {
	return &SessionsHandler{
		requests: requests,
		sessions: sessions,
	}
}

// ListSessions godoc
// @Summary     List a request's sessions
// @Description Returns every stage session recorded for the request, oldest first, each with its full log.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request_id path string true "Request ID (UUID)"
// @Success     200 {array} models.Session
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /requests/{request_id}/sessions [get]
func (h *SessionsHandler) ListSessions(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	if _, err := h.requests.Get(c.Request.Context(), id); err != nil {
		respondError(c, "failed to get request", err)
		return
	}

	sessions, err := h.sessions.ListByRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, "failed to list sessions", err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}
