package workflow

import (
	"context"

	"github.com/google/uuid"

	"pinscout-backend/internal/models"
)

// ProgressReader is the read side polled by clients every few seconds.
// It reconstructs the current stage, the latest log line and the
// terminal outcome from the ledger, and never mutates anything.
type ProgressReader struct {
	requests RequestStore
	ledger   SessionLedger
}

func NewProgressReader(requests RequestStore, ledger SessionLedger) *ProgressReader {
	return &ProgressReader{requests: requests, ledger: ledger}
}

func (r *ProgressReader) Progress(ctx context.Context, requestID uuid.UUID) (*models.ProgressView, error) {
	req, err := r.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	sessions, err := r.ledger.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	view := &models.ProgressView{
		RequestID: requestID.String(),
		Status:    req.Status,
		Stages:    make([]models.StageProgress, 0, len(sessions)),
	}

	for _, sess := range sessions {
		view.Stages = append(view.Stages, models.StageProgress{
			Stage:     sess.Stage,
			Status:    sess.Status,
			StartedAt: sess.StartedAt,
			LogLines:  len(sess.Log),
		})
		if sess.Status == models.SessionStatusPending {
			stage := sess.Stage
			view.CurrentStage = &stage
		}
	}

	// Latest log line comes from the most recent session that said anything.
	for i := len(sessions) - 1; i >= 0; i-- {
		if n := len(sessions[i].Log); n > 0 {
			view.LatestLog = sessions[i].Log[n-1]
			break
		}
	}

	return view, nil
}
