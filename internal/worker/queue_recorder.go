package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/config"
	"github.com/stemsi/mockview-backend/internal/evaluator"
	"github.com/stemsi/mockview-backend/internal/model"
)

const pushTimeout = 500 * time.Millisecond

// QueueRecorder enqueues judge attempts for EvaluationAttemptWorker.
type QueueRecorder struct {
	push func(ctx context.Context, raw []byte) error
	log  zerolog.Logger
}

func NewQueueRecorder(rdb *redis.Client, log zerolog.Logger) *QueueRecorder {
	return &QueueRecorder{
		push: func(ctx context.Context, raw []byte) error {
			return rdb.RPush(ctx, config.WorkerKey.PersistEvaluationAttemptsQueue, raw).Err()
		},
		log: log.With().Str("component", "attempt_queue").Logger(),
	}
}

// RecordAttempt implements evaluator.AttemptRecorder. A failed push is logged
// and dropped.
func (q *QueueRecorder) RecordAttempt(ctx context.Context, a evaluator.Attempt) {
	raw, err := json.Marshal(toRow(a))
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := q.push(ctx, raw); err != nil {
		q.log.Warn().Err(err).Str("session_id", a.SessionID.String()).Msg("Failed to enqueue evaluation attempt")
	}
}

func toRow(a evaluator.Attempt) model.EvaluationAttempt {
	return model.EvaluationAttempt{
		SessionID:   a.SessionID,
		Provider:    a.Provider,
		Model:       a.Model,
		Outcome:     string(a.Outcome),
		LatencyMS:   int(a.Latency.Milliseconds()),
		AttemptedAt: a.At,
	}
}
