package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/mockview-backend/internal/config"
	"github.com/stemsi/mockview-backend/internal/evaluator"
	"github.com/stemsi/mockview-backend/internal/model"
)

type fakeWriter struct {
	mu       sync.Mutex
	batchErr error
	failOne  uuid.UUID
	rows     []model.EvaluationAttempt
}

func (f *fakeWriter) InsertBatch(_ context.Context, batch []model.EvaluationAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.rows = append(f.rows, batch...)
	return nil
}

func (f *fakeWriter) Insert(_ context.Context, a model.EvaluationAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.SessionID == f.failOne {
		return errors.New("constraint violation")
	}
	f.rows = append(f.rows, a)
	return nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func attempts(n int) []model.EvaluationAttempt {
	out := make([]model.EvaluationAttempt, n)
	for i := range out {
		out[i] = model.EvaluationAttempt{SessionID: uuid.New(), Provider: "gemini", Model: "m", Outcome: "success"}
	}
	return out
}

func TestFlushWritesBatch(t *testing.T) {
	fw := &fakeWriter{}
	w := NewEvaluationAttemptWorker(fw, nil, zerolog.Nop())

	w.flush(context.Background(), attempts(3))
	assert.Equal(t, 3, fw.count())
}

func TestFlushFallsBackAndRequeues(t *testing.T) {
	batch := attempts(3)
	fw := &fakeWriter{batchErr: errors.New("bulk failed"), failOne: batch[1].SessionID}
	w := NewEvaluationAttemptWorker(fw, nil, zerolog.Nop())

	var requeued [][]byte
	w.requeue = func(_ context.Context, raw []byte) error {
		requeued = append(requeued, raw)
		return nil
	}

	w.flush(context.Background(), batch)

	assert.Equal(t, 2, fw.count())
	require.Len(t, requeued, 1)
	var back model.EvaluationAttempt
	require.NoError(t, json.Unmarshal(requeued[0], &back))
	assert.Equal(t, batch[1].SessionID, back.SessionID)
}

func TestQueueRecorderConvertsAttempt(t *testing.T) {
	var pushed []byte
	q := &QueueRecorder{
		push: func(_ context.Context, raw []byte) error {
			pushed = raw
			return nil
		},
		log: zerolog.Nop(),
	}

	id := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q.RecordAttempt(context.Background(), evaluator.Attempt{
		SessionID: id, Provider: "openai", Model: "gpt-4o-mini",
		Outcome: evaluator.OutcomeQuota, Latency: 1500 * time.Millisecond, At: at,
	})

	var row model.EvaluationAttempt
	require.NoError(t, json.Unmarshal(pushed, &row))
	assert.Equal(t, model.EvaluationAttempt{
		SessionID: id, Provider: "openai", Model: "gpt-4o-mini",
		Outcome: "quota", LatencyMS: 1500, AttemptedAt: at,
	}, row)
}

func TestQueueRecorderSwallowsPushErrors(t *testing.T) {
	q := &QueueRecorder{
		push: func(context.Context, []byte) error { return errors.New("redis down") },
		log:  zerolog.Nop(),
	}
	assert.NotPanics(t, func() {
		q.RecordAttempt(context.Background(), evaluator.Attempt{SessionID: uuid.New()})
	})
}

func TestWorkerDrainsRedisQueue(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rdb.Del(ctx, config.WorkerKey.PersistEvaluationAttemptsQueue).Err())

	rec := NewQueueRecorder(rdb, zerolog.Nop())
	for i := 0; i < 3; i++ {
		rec.RecordAttempt(ctx, evaluator.Attempt{SessionID: uuid.New(), Outcome: evaluator.OutcomeSuccess, At: time.Now()})
	}

	fw := &fakeWriter{}
	done := make(chan struct{})
	go func() {
		NewEvaluationAttemptWorker(fw, rdb, zerolog.Nop()).Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return fw.count() == 3 }, 10*time.Second, 50*time.Millisecond)
	cancel()
	<-done
}
