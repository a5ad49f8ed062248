package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/mockview-backend/internal/model"
)

// ErrStaleWrite is returned when a conditional update finds the session
// already advanced or completed by another writer.
var ErrStaleWrite = errors.New("session was modified concurrently")

// InterviewSessionRepository handles interview session data access. Questions,
// answers and the report are stored as JSONB documents.
type InterviewSessionRepository struct {
	pool *pgxpool.Pool
}

// NewInterviewSessionRepository creates a new InterviewSessionRepository.
func NewInterviewSessionRepository(pool *pgxpool.Pool) *InterviewSessionRepository {
	return &InterviewSessionRepository{pool: pool}
}

// Create inserts a new session.
func (r *InterviewSessionRepository) Create(ctx context.Context, s *model.InterviewSession) error {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO interview_sessions (id, user_id, category, difficulty, questions, answers, current_question_index)
		 VALUES ($1, $2, $3, $4, $5, '[]'::jsonb, 0)
		 RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.Category, s.Difficulty, questions,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a session. It returns pgx.ErrNoRows when absent.
func (r *InterviewSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.InterviewSession, error) {
	var (
		s                          model.InterviewSession
		questions, answers, report []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, category, difficulty, questions, answers, current_question_index,
		        completed, completed_at, report, created_at, updated_at
		 FROM interview_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Category, &s.Difficulty, &questions, &answers, &s.CurrentQuestionIndex,
		&s.Completed, &s.CompletedAt, &report, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if report != nil {
		s.Report = &model.Report{}
		if err := json.Unmarshal(report, s.Report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
	}
	return &s, nil
}

// AppendAnswer adds an answer and advances the question index, provided the
// session is still open at expectedIndex.
func (r *InterviewSessionRepository) AppendAnswer(ctx context.Context, id uuid.UUID, expectedIndex int, a model.Answer) error {
	answer, err := json.Marshal([]model.Answer{a})
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE interview_sessions
		 SET answers = answers || $1::jsonb,
		     current_question_index = current_question_index + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2 AND current_question_index = $3 AND completed = FALSE`,
		answer, id, expectedIndex,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleWrite
	}
	return nil
}

// Complete stores the final answers and report and closes the session,
// provided it is still open at expectedIndex.
func (r *InterviewSessionRepository) Complete(ctx context.Context, s *model.InterviewSession, expectedIndex int) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	report, err := json.Marshal(s.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE interview_sessions
		 SET answers = $1::jsonb,
		     current_question_index = $2,
		     completed = TRUE,
		     completed_at = $3,
		     report = $4::jsonb,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5 AND current_question_index = $6 AND completed = FALSE`,
		answers, s.CurrentQuestionIndex, s.CompletedAt, report, s.ID, expectedIndex,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleWrite
	}
	return nil
}

// ListByUser returns the user's most recent sessions, newest first.
func (r *InterviewSessionRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.SessionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, difficulty, jsonb_array_length(questions), completed,
		        (report->>'overall_score')::float8, created_at, completed_at
		 FROM interview_sessions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]model.SessionSummary, 0, limit)
	for rows.Next() {
		var s model.SessionSummary
		if err := rows.Scan(&s.ID, &s.Category, &s.Difficulty, &s.TotalQuestions, &s.Completed,
			&s.OverallScore, &s.CreatedAt, &s.CompletedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// StatsByUser aggregates session counts and raw per-axis averages over the
// user's completed sessions.
func (r *InterviewSessionRepository) StatsByUser(ctx context.Context, userID int) (*model.UserStats, error) {
	var st model.UserStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE completed),
		        COALESCE(AVG((report->>'overall_score')::float8) FILTER (WHERE completed), 0),
		        COALESCE(AVG((report->>'communication_score')::float8) FILTER (WHERE completed), 0),
		        COALESCE(AVG((report->>'confidence_score')::float8) FILTER (WHERE completed), 0),
		        COALESCE(AVG((report->>'technical_score')::float8) FILTER (WHERE completed), 0)
		 FROM interview_sessions
		 WHERE user_id = $1`, userID,
	).Scan(&st.TotalSessions, &st.CompletedSessions,
		&st.AverageScores.Overall, &st.AverageScores.Communication,
		&st.AverageScores.Confidence, &st.AverageScores.Technical)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
