package model

import (
	"time"

	"github.com/google/uuid"
)

// Interview categories. CategoryMixed is only valid as a session parameter;
// questions always carry a concrete category.
const (
	CategoryTechnical    = "technical"
	CategoryBehavioral   = "behavioral"
	CategorySystemDesign = "system-design"
	CategoryGeneral      = "general"
	CategoryMixed        = "mixed"
)

// Difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// SessionStatus enumerates interview session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// Question is one prompt inside a session.
type Question struct {
	Text             string   `json:"text"`
	Order            int      `json:"order"`
	Category         string   `json:"category"`
	ExpectedKeywords []string `json:"expected_keywords,omitempty"`
}

// QuestionView is the candidate-facing form of a Question. It never carries
// the expected keywords.
type QuestionView struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Order    int    `json:"order"`
}

// View strips the answer key from q.
func (q Question) View() QuestionView {
	return QuestionView{Text: q.Text, Category: q.Category, Order: q.Order}
}

// Answer is one submitted transcript. QuestionIndex matches Question.Order.
type Answer struct {
	QuestionIndex int       `json:"question_index"`
	Transcript    string    `json:"transcript"`
	Duration      int       `json:"duration"` // seconds
	SubmittedAt   time.Time `json:"submitted_at"`
}

// InterviewSession is one complete interview attempt.
type InterviewSession struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               int        `json:"user_id"`
	Category             string     `json:"category"`
	Difficulty           string     `json:"difficulty"`
	Questions            []Question `json:"questions"`
	Answers              []Answer   `json:"answers"`
	CurrentQuestionIndex int        `json:"current_question"`
	Completed            bool       `json:"completed"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	Report               *Report    `json:"report,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Status derives the lifecycle state from the completed flag.
func (s *InterviewSession) Status() SessionStatus {
	if s.Completed {
		return SessionStatusCompleted
	}
	return SessionStatusInProgress
}

// TotalQuestions is the fixed length of the session.
func (s *InterviewSession) TotalQuestions() int {
	return len(s.Questions)
}

// SessionSummary is the history-list view of a session.
type SessionSummary struct {
	ID             uuid.UUID  `json:"id"`
	Category       string     `json:"category"`
	Difficulty     string     `json:"difficulty"`
	TotalQuestions int        `json:"total_questions"`
	Completed      bool       `json:"completed"`
	OverallScore   *float64   `json:"overall_score,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// AverageScores holds per-axis averages across completed sessions.
type AverageScores struct {
	Overall       float64 `json:"overall"`
	Communication float64 `json:"communication"`
	Confidence    float64 `json:"confidence"`
	Technical     float64 `json:"technical"`
}

// UserStats aggregates a user's interview history.
type UserStats struct {
	TotalSessions     int           `json:"total_sessions"`
	CompletedSessions int           `json:"completed_sessions"`
	AverageScores     AverageScores `json:"average_scores"`
}

// StartInterviewRequest is the payload for starting a session.
type StartInterviewRequest struct {
	Category       string `json:"category" binding:"omitempty,interview_category"`
	Difficulty     string `json:"difficulty" binding:"omitempty,interview_difficulty"`
	TotalQuestions int    `json:"total_questions" binding:"omitempty,min=3,max=10"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	SessionID  string `json:"session_id" binding:"required,uuid"`
	Transcript string `json:"transcript" binding:"max=20000"`
	Duration   int    `json:"duration" binding:"min=0,max=7200"`
}

// CompleteInterviewRequest is the payload for force-completing a session.
type CompleteInterviewRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
}
