package model

// ReportSource records which evaluator produced a report.
type ReportSource string

const (
	ReportSourceAI    ReportSource = "ai"
	ReportSourceLocal ReportSource = "local"
)

// FallbackReason explains why the AI judge did not produce the report.
type FallbackReason string

const (
	FallbackNone              FallbackReason = ""
	FallbackMissingCredential FallbackReason = "missing_credential"
	FallbackQuotaExhausted    FallbackReason = "quota_exhausted"
	FallbackAPIError          FallbackReason = "api_error"
	FallbackMalformed         FallbackReason = "malformed_response"
)

// Report is the scored outcome of a finished session. Scores are on 1–10.
type Report struct {
	OverallScore       float64           `json:"overall_score"`
	CommunicationScore float64           `json:"communication_score"`
	ConfidenceScore    float64           `json:"confidence_score"`
	TechnicalScore     float64           `json:"technical_score"`
	Strengths          []string          `json:"strengths"`
	Improvements       []string          `json:"improvements"`
	QuestionScores     []QuestionScore   `json:"question_scores"`
	Suggestions        []ImprovementIdea `json:"improvement_suggestions,omitempty"`
	OverallFeedback    string            `json:"overall_feedback"`
	Provenance         Provenance        `json:"provenance"`
	TotalAnswered      int               `json:"total_answered"`
	TotalQuestions     int               `json:"total_questions"`
}

// QuestionScore is the evaluation of one question, in question order.
type QuestionScore struct {
	QuestionIndex      int      `json:"question_index"`
	Score              float64  `json:"score"`
	CommunicationScore float64  `json:"communication_score,omitempty"`
	ConfidenceScore    float64  `json:"confidence_score,omitempty"`
	TechnicalScore     float64  `json:"technical_score,omitempty"`
	Feedback           string   `json:"feedback"`
	MatchedKeywords    []string `json:"matched_keywords,omitempty"`
	WordCount          int      `json:"word_count"`
}

// ImprovementIdea is a suggestion card shown under the report.
type ImprovementIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // high | medium | low
	Category    string `json:"category"`
}

// Provenance states where the scores came from.
type Provenance struct {
	Source ReportSource   `json:"source"`
	Model  string         `json:"model,omitempty"`
	Reason FallbackReason `json:"reason,omitempty"`
}
