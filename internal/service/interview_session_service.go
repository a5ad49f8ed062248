package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/config"
	"github.com/stemsi/mockview-backend/internal/evaluator"
	"github.com/stemsi/mockview-backend/internal/lock"
	"github.com/stemsi/mockview-backend/internal/metrics"
	"github.com/stemsi/mockview-backend/internal/model"
	"github.com/stemsi/mockview-backend/internal/repository"
)

// Session defaults applied when the start request leaves a field empty.
const (
	DefaultCategory      = model.CategoryMixed
	DefaultDifficulty    = model.DifficultyMedium
	DefaultQuestionCount = 5

	// HistoryLimit is the number of sessions returned by History.
	HistoryLimit = 20
)

// SessionStore persists interview sessions. GetByID returns pgx.ErrNoRows for
// unknown ids; AppendAnswer and Complete return repository.ErrStaleWrite when
// the session is no longer open at expectedIndex.
type SessionStore interface {
	Create(ctx context.Context, s *model.InterviewSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.InterviewSession, error)
	AppendAnswer(ctx context.Context, id uuid.UUID, expectedIndex int, a model.Answer) error
	Complete(ctx context.Context, s *model.InterviewSession, expectedIndex int) error
	ListByUser(ctx context.Context, userID, limit int) ([]model.SessionSummary, error)
	StatsByUser(ctx context.Context, userID int) (*model.UserStats, error)
}

// QuestionSelector draws the question list of a new session.
type QuestionSelector interface {
	Generate(category, difficulty string, count int) ([]model.Question, error)
}

// ReportGenerator scores a finished session. It never fails.
type ReportGenerator interface {
	Generate(ctx context.Context, sub evaluator.Submission) model.Report
}

// StartResult is returned when a session is created.
type StartResult struct {
	SessionID       uuid.UUID          `json:"session_id"`
	TotalQuestions  int                `json:"total_questions"`
	CurrentQuestion int                `json:"current_question"`
	Question        model.QuestionView `json:"question"`
}

// AnswerResult is either the next question or, after the last answer, the
// report.
type AnswerResult struct {
	Finished        bool                `json:"finished"`
	SessionID       uuid.UUID           `json:"session_id"`
	CurrentQuestion int                 `json:"current_question"`
	TotalQuestions  int                 `json:"total_questions"`
	NextQuestion    *model.QuestionView `json:"next_question,omitempty"`
	Report          *model.Report       `json:"report,omitempty"`
}

// InterviewSessionService runs the session state machine. Every mutation holds
// the session's lock, so answers to one session are applied one at a time.
type InterviewSessionService struct {
	store    SessionStore
	selector QuestionSelector
	reports  ReportGenerator
	locker   lock.Locker
	lockWait time.Duration
	log      zerolog.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewInterviewSessionService creates a new InterviewSessionService. lockWait
// bounds how long a request waits for another request on the same session.
func NewInterviewSessionService(
	store SessionStore,
	selector QuestionSelector,
	reports ReportGenerator,
	locker lock.Locker,
	lockWait time.Duration,
	log zerolog.Logger,
) *InterviewSessionService {
	return &InterviewSessionService{
		store:    store,
		selector: selector,
		reports:  reports,
		locker:   locker,
		lockWait: lockWait,
		log:      log.With().Str("component", "interview_session_service").Logger(),
		now:      time.Now,
		newID:    uuid.New,
	}
}

// Start creates a session and returns its first question.
func (s *InterviewSessionService) Start(ctx context.Context, userID int, req model.StartInterviewRequest) (*StartResult, error) {
	category := req.Category
	if category == "" {
		category = DefaultCategory
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	count := req.TotalQuestions
	if count == 0 {
		count = DefaultQuestionCount
	}

	questions, err := s.selector.Generate(category, difficulty, count)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: question bank is empty", ErrValidation)
	}

	sess := &model.InterviewSession{
		ID:         s.newID(),
		UserID:     userID,
		Category:   category,
		Difficulty: difficulty,
		Questions:  questions,
		Answers:    []model.Answer{},
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, &PersistenceError{Op: "create session", Err: err}
	}

	metrics.RecordSessionStarted(category, difficulty)
	s.log.Info().
		Str("session_id", sess.ID.String()).
		Int("user_id", userID).
		Str("category", category).
		Str("difficulty", difficulty).
		Int("questions", len(questions)).
		Msg("Interview session started")

	return &StartResult{
		SessionID:       sess.ID,
		TotalQuestions:  len(questions),
		CurrentQuestion: 0,
		Question:        questions[0].View(),
	}, nil
}

// SubmitAnswer records the answer to the current question. The last answer
// finalizes the session synchronously, AI call included.
func (s *InterviewSessionService) SubmitAnswer(ctx context.Context, userID int, sessionID uuid.UUID, transcript string, duration int) (*AnswerResult, error) {
	release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Completed {
		return nil, ErrAlreadyCompleted
	}

	expected := sess.CurrentQuestionIndex
	answer := model.Answer{
		QuestionIndex: expected,
		Transcript:    transcript,
		Duration:      duration,
		SubmittedAt:   s.now(),
	}
	next := expected + 1

	if next >= len(sess.Questions) {
		sess.Answers = append(sess.Answers, answer)
		sess.CurrentQuestionIndex = next
		report, err := s.finalize(ctx, sess, expected)
		if err != nil {
			return nil, err
		}
		return &AnswerResult{
			Finished:        true,
			SessionID:       sess.ID,
			CurrentQuestion: next,
			TotalQuestions:  len(sess.Questions),
			Report:          report,
		}, nil
	}

	if err := s.store.AppendAnswer(ctx, sess.ID, expected, answer); err != nil {
		return nil, storeError("append answer", err)
	}

	q := sess.Questions[next].View()
	return &AnswerResult{
		SessionID:       sess.ID,
		CurrentQuestion: next,
		TotalQuestions:  len(sess.Questions),
		NextQuestion:    &q,
	}, nil
}

// ForceComplete finalizes the session with the answers so far. On a completed
// session it returns the stored report unchanged.
func (s *InterviewSessionService) ForceComplete(ctx context.Context, userID int, sessionID uuid.UUID) (*model.Report, error) {
	release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Completed {
		return sess.Report, nil
	}
	return s.finalize(ctx, sess, sess.CurrentQuestionIndex)
}

// GetReport returns a completed session with its report.
func (s *InterviewSessionService) GetReport(ctx context.Context, userID int, sessionID uuid.UUID) (*model.InterviewSession, error) {
	sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Completed {
		return nil, ErrNotCompleted
	}
	return sess, nil
}

// History lists the user's most recent sessions.
func (s *InterviewSessionService) History(ctx context.Context, userID int) ([]model.SessionSummary, error) {
	sessions, err := s.store.ListByUser(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, &PersistenceError{Op: "list sessions", Err: err}
	}
	return sessions, nil
}

// Stats aggregates the user's sessions, averages rounded to one decimal.
func (s *InterviewSessionService) Stats(ctx context.Context, userID int) (*model.UserStats, error) {
	st, err := s.store.StatsByUser(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "session stats", Err: err}
	}
	avg := &st.AverageScores
	avg.Overall = evaluator.Round1(avg.Overall)
	avg.Communication = evaluator.Round1(avg.Communication)
	avg.Confidence = evaluator.Round1(avg.Confidence)
	avg.Technical = evaluator.Round1(avg.Technical)
	return st, nil
}

// finalize scores the session and stores it as completed. It keeps going if
// the caller disconnects; the AI timeout still bounds it.
func (s *InterviewSessionService) finalize(ctx context.Context, sess *model.InterviewSession, expected int) (*model.Report, error) {
	ctx = context.WithoutCancel(ctx)

	report := s.reports.Generate(ctx, evaluator.Submission{
		SessionID:  sess.ID,
		Category:   sess.Category,
		Difficulty: sess.Difficulty,
		Questions:  sess.Questions,
		Answers:    sess.Answers,
	})

	now := s.now()
	sess.Completed = true
	sess.CompletedAt = &now
	sess.Report = &report

	if err := s.store.Complete(ctx, sess, expected); err != nil {
		return nil, storeError("complete session", err)
	}

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("source", string(report.Provenance.Source)).
		Str("reason", string(report.Provenance.Reason)).
		Float64("overall", report.OverallScore).
		Msg("Interview session completed")
	return &report, nil
}

func (s *InterviewSessionService) acquire(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	release, err := s.locker.Acquire(lockCtx, config.CacheKey.SessionLockKey(sessionID.String()))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrConcurrentUpdate
		}
		return nil, &PersistenceError{Op: "acquire session lock", Err: err}
	}
	return release, nil
}

// load fetches a session owned by userID. Sessions of other users look
// missing.
func (s *InterviewSessionService) load(ctx context.Context, userID int, sessionID uuid.UUID) (*model.InterviewSession, error) {
	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, &PersistenceError{Op: "get session", Err: err}
	}
	if sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrStaleWrite) {
		return ErrConcurrentUpdate
	}
	return &PersistenceError{Op: op, Err: err}
}
