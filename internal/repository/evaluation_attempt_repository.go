package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/mockview-backend/internal/model"
)

// EvaluationAttemptRepository writes the AI judge audit log.
type EvaluationAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewEvaluationAttemptRepository(pool *pgxpool.Pool) *EvaluationAttemptRepository {
	return &EvaluationAttemptRepository{pool: pool}
}

// InsertBatch writes all rows in one statement.
func (r *EvaluationAttemptRepository) InsertBatch(ctx context.Context, batch []model.EvaluationAttempt) error {
	n := len(batch)
	sessionIDs := make([]uuid.UUID, n)
	providers := make([]string, n)
	models := make([]string, n)
	outcomes := make([]string, n)
	latencies := make([]int32, n)
	attemptedAts := make([]time.Time, n)

	for i, a := range batch {
		sessionIDs[i] = a.SessionID
		providers[i] = a.Provider
		models[i] = a.Model
		outcomes[i] = a.Outcome
		latencies[i] = int32(a.LatencyMS)
		attemptedAts[i] = a.AttemptedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO evaluation_attempts (session_id, provider, model, outcome, latency_ms, attempted_at)
		SELECT * FROM UNNEST(
			$1::uuid[],
			$2::varchar[],
			$3::varchar[],
			$4::varchar[],
			$5::int[],
			$6::timestamptz[]
		)`,
		sessionIDs, providers, models, outcomes, latencies, attemptedAts,
	)
	return err
}

// Insert writes a single row.
func (r *EvaluationAttemptRepository) Insert(ctx context.Context, a model.EvaluationAttempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO evaluation_attempts (session_id, provider, model, outcome, latency_ms, attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.SessionID, a.Provider, a.Model, a.Outcome, a.LatencyMS, a.AttemptedAt,
	)
	return err
}
