package metrics

import (
	"context"

	"github.com/stemsi/mockview-backend/internal/evaluator"
)

// AttemptRecorder feeds judge attempts into the AI collectors.
type AttemptRecorder struct{}

func (AttemptRecorder) RecordAttempt(_ context.Context, a evaluator.Attempt) {
	RecordAIAttempt(a.Provider, a.Model, string(a.Outcome), a.Latency.Seconds())
}
