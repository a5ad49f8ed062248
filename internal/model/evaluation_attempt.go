package model

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationAttempt is one audit-log row for a call to the AI judge.
type EvaluationAttempt struct {
	SessionID   uuid.UUID `json:"session_id"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Outcome     string    `json:"outcome"`
	LatencyMS   int       `json:"latency_ms"`
	AttemptedAt time.Time `json:"attempted_at"`
}
