package models

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type PinResponse struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	SourceURL   string          `json:"source_url"`
	LandingURL  string          `json:"landing_url"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Score       *float64        `json:"score,omitempty"`
	Verdict     Verdict         `json:"verdict"`
	Explanation string          `json:"explanation,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CollectedAt time.Time       `json:"collected_at"`
}

func NewPinResponse(p Pin) PinResponse {
	resp := PinResponse{
		ID:          p.ID.String(),
		RequestID:   p.RequestID.String(),
		SourceURL:   p.SourceURL,
		LandingURL:  p.LandingURL,
		Title:       p.Title,
		Description: p.Description,
		Verdict:     p.Verdict,
		Explanation: p.Explanation,
		Metadata:    p.Metadata,
		CollectedAt: p.CollectedAt,
	}
	if p.Score.Valid {
		score := p.Score.Float64
		resp.Score = &score
	}
	return resp
}

func NewPinResponses(pins []Pin) []PinResponse {
	responses := make([]PinResponse, len(pins))
	for i, p := range pins {
		responses[i] = NewPinResponse(p)
	}
	return responses
}

type StartWorkflowResponse struct {
	RequestID string        `json:"request_id"`
	Status    RequestStatus `json:"status"`
	Message   string        `json:"message"`
}

type StartValidationResponse struct {
	RequestID     string `json:"request_id"`
	UnscoredCount int    `json:"unscored_count"`
	Message       string `json:"message"`
}

// ResultsResponse bundles a request with everything collected for it,
// for clients that want a single fetch instead of three.
type ResultsResponse struct {
	Request  Request       `json:"request"`
	Sessions []Session     `json:"sessions"`
	Pins     []PinResponse `json:"pins"`
}

// StageProgress summarizes one session for the polling client.
type StageProgress struct {
	Stage     Stage         `json:"stage"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	LogLines  int           `json:"log_lines"`
}

// ProgressView is the read-side snapshot a polling client uses to
// reconstruct where a run currently stands.
type ProgressView struct {
	RequestID    string          `json:"request_id"`
	Status       RequestStatus   `json:"status"`
	CurrentStage *Stage          `json:"current_stage,omitempty"`
	LatestLog    string          `json:"latest_log,omitempty"`
	Stages       []StageProgress `json:"stages"`
}
