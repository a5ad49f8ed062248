package evaluator

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies one judge attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeQuota     Outcome = "quota"
	OutcomeError     Outcome = "error"
	OutcomeMalformed Outcome = "malformed"
)

// Attempt describes one call to a Generator.
type Attempt struct {
	SessionID uuid.UUID
	Provider  string
	Model     string
	Outcome   Outcome
	Latency   time.Duration
	At        time.Time
}

// AttemptRecorder receives every judge attempt. Implementations must not
// block the caller for long and must swallow their own failures.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, a Attempt)
}

// Recorders fans an attempt out to several recorders.
type Recorders []AttemptRecorder

func (rs Recorders) RecordAttempt(ctx context.Context, a Attempt) {
	for _, r := range rs {
		r.RecordAttempt(ctx, a)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordAttempt(context.Context, Attempt) {}
