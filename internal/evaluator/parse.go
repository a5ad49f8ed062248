package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stemsi/mockview-backend/internal/model"
)

const maxListItems = 5

var (
	errNoJSON        = errors.New("no JSON object in judge output")
	errMissingField  = errors.New("judge output is missing a required field")
	errQuestionCount = errors.New("judge output has the wrong number of question scores")
)

type judgeQuestionScore struct {
	QuestionIndex      int      `json:"questionIndex"`
	Score              *float64 `json:"score"`
	CommunicationScore *float64 `json:"communicationScore"`
	ConfidenceScore    *float64 `json:"confidenceScore"`
	TechnicalScore     *float64 `json:"technicalScore"`
	Feedback           string   `json:"feedback"`
}

type judgeReport struct {
	OverallScore       *float64                `json:"overallScore"`
	CommunicationScore *float64                `json:"communicationScore"`
	ConfidenceScore    *float64                `json:"confidenceScore"`
	TechnicalScore     *float64                `json:"technicalScore"`
	Strengths          []string                `json:"strengths"`
	Improvements       []string                `json:"improvements"`
	QuestionScores     []judgeQuestionScore    `json:"questionScores"`
	Suggestions        []model.ImprovementIdea `json:"improvementSuggestions"`
	OverallFeedback    string                  `json:"overallFeedback"`
}

// parseReport extracts, validates and normalizes the judge output for a
// session of n questions.
func parseReport(raw string, n int) (*model.Report, error) {
	obj := extractJSONObject(raw)
	if obj == "" {
		return nil, errNoJSON
	}

	var jr judgeReport
	if err := json.Unmarshal([]byte(obj), &jr); err != nil {
		return nil, fmt.Errorf("decode judge output: %w", err)
	}

	if jr.OverallScore == nil || jr.CommunicationScore == nil ||
		jr.ConfidenceScore == nil || jr.TechnicalScore == nil {
		return nil, errMissingField
	}
	if len(jr.QuestionScores) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", errQuestionCount, len(jr.QuestionScores), n)
	}

	report := &model.Report{
		OverallScore:       score(*jr.OverallScore),
		CommunicationScore: score(*jr.CommunicationScore),
		ConfidenceScore:    score(*jr.ConfidenceScore),
		TechnicalScore:     score(*jr.TechnicalScore),
		Strengths:          DedupeCap(jr.Strengths, maxListItems),
		Improvements:       DedupeCap(jr.Improvements, maxListItems),
		OverallFeedback:    strings.TrimSpace(jr.OverallFeedback),
		QuestionScores:     make([]model.QuestionScore, n),
	}

	for i, qs := range jr.QuestionScores {
		if qs.Score == nil {
			return nil, fmt.Errorf("%w: questionScores[%d].score", errMissingField, i)
		}
		overall := score(*qs.Score)
		report.QuestionScores[i] = model.QuestionScore{
			QuestionIndex:      i,
			Score:              overall,
			CommunicationScore: scoreOr(qs.CommunicationScore, overall),
			ConfidenceScore:    scoreOr(qs.ConfidenceScore, overall),
			TechnicalScore:     scoreOr(qs.TechnicalScore, overall),
			Feedback:           strings.TrimSpace(qs.Feedback),
		}
	}

	for _, s := range jr.Suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		s.Priority = normalizePriority(s.Priority)
		report.Suggestions = append(report.Suggestions, s)
	}

	return report, nil
}

// extractJSONObject returns the first balanced {...} in s, skipping braces
// inside JSON strings.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func score(v float64) float64 {
	return Round1(Clamp(v, 1, 10))
}

func scoreOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return score(*v)
}

func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}

// DedupeCap drops blank and repeated entries, keeping first-seen order, and
// truncates to limit items.
func DedupeCap(items []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}
