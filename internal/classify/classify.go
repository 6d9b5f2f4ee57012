// Package classify maps match scores to pin verdicts.
package classify

import (
	"fmt"

	"pinscout-backend/internal/models"
)

// DefaultThreshold is the approval cutoff used when no override is configured.
const DefaultThreshold = 0.5

// Classify maps a score in [0, 1] to a verdict. The threshold is an
// inclusive lower bound: score == threshold approves. Scores outside
// [0, 1] are a contract violation and are rejected, never clamped.
func Classify(score, threshold float64) (models.Verdict, error) {
	if score < 0 || score > 1 {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidScore, score)
	}
	if score >= threshold {
		return models.VerdictApproved, nil
	}
	return models.VerdictRejected, nil
}
