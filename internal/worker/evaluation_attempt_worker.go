package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/config"
	"github.com/stemsi/mockview-backend/internal/model"
)

const (
	AttemptBatchSize    = 50
	AttemptBatchTimeout = 2 * time.Second
	AttemptPollTimeout  = 1 * time.Second
)

// AttemptWriter persists audit-log rows.
type AttemptWriter interface {
	InsertBatch(ctx context.Context, batch []model.EvaluationAttempt) error
	Insert(ctx context.Context, a model.EvaluationAttempt) error
}

// EvaluationAttemptWorker drains the evaluation attempt queue into Postgres
// in batches.
type EvaluationAttemptWorker struct {
	writer AttemptWriter
	rdb    *redis.Client
	log    zerolog.Logger

	requeue func(ctx context.Context, raw []byte) error
}

func NewEvaluationAttemptWorker(writer AttemptWriter, rdb *redis.Client, log zerolog.Logger) *EvaluationAttemptWorker {
	w := &EvaluationAttemptWorker{
		writer: writer,
		rdb:    rdb,
		log:    log.With().Str("component", "evaluation_attempt_worker").Logger(),
	}
	w.requeue = func(ctx context.Context, raw []byte) error {
		return w.rdb.RPush(ctx, config.WorkerKey.PersistEvaluationAttemptsQueue, raw).Err()
	}
	return w
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *EvaluationAttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EvaluationAttemptWorker started")

	batch := make([]model.EvaluationAttempt, 0, AttemptBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AttemptBatchSize || time.Since(lastFlush) >= AttemptBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.WithoutCancel(ctx), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, AttemptPollTimeout, config.WorkerKey.PersistEvaluationAttemptsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var a model.EvaluationAttempt
			if err := json.Unmarshal([]byte(item[1]), &a); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, a)
		}
	}
}

// flush writes the batch in one statement, falling back to row-by-row
// inserts. Rows that still fail go back on the queue.
func (w *EvaluationAttemptWorker) flush(ctx context.Context, batch []model.EvaluationAttempt) {
	if len(batch) == 0 {
		return
	}

	err := w.writer.InsertBatch(ctx, batch)
	if err == nil {
		return
	}
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("Bulk insert failed, using fallback")

	for _, a := range batch {
		if err := w.writer.Insert(ctx, a); err != nil {
			w.log.Error().Err(err).Str("session_id", a.SessionID.String()).Msg("Insert failed, requeueing")
			raw, _ := json.Marshal(a)
			if err := w.requeue(ctx, raw); err != nil {
				w.log.Error().Err(err).Msg("Requeue failed, attempt dropped")
			}
		}
	}
}
