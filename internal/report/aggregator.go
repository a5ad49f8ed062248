// Package report turns a finished session into a scored Report, preferring
// the AI judge and falling back to the local heuristic.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/evaluator"
	"github.com/stemsi/mockview-backend/internal/metrics"
	"github.com/stemsi/mockview-backend/internal/model"
)

const (
	maxListItems        = 5
	defaultStrength     = "Completed the interview session"
	defaultImprovement  = "Continue practicing with more interview questions"
	improvementNoSkip   = "Do not skip questions; attempt an answer even if unsure"
	improvementMoreText = "Provide more detailed and comprehensive answers"
)

// Judge is the AI tier.
type Judge interface {
	Evaluate(ctx context.Context, sub evaluator.Submission) evaluator.AIResult
}

// Aggregator builds session reports.
type Aggregator struct {
	judge Judge
	local *evaluator.LocalEvaluator
	log   zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(judge Judge, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		judge: judge,
		local: evaluator.NewLocalEvaluator(),
		log:   log.With().Str("component", "report_aggregator").Logger(),
	}
}

// Generate always returns a complete report. AI failures only show up in the
// report's provenance and overall feedback.
func (a *Aggregator) Generate(ctx context.Context, sub evaluator.Submission) model.Report {
	res := a.judge.Evaluate(ctx, sub)

	var r model.Report
	if res.OK() {
		r = *res.Report
	} else {
		a.log.Info().
			Str("session_id", sub.SessionID.String()).
			Str("reason", string(res.Reason)).
			Str("model", res.Model).
			Msg("Using local evaluation")
		r = a.localReport(sub, res.Reason)
	}

	r.TotalQuestions = len(sub.Questions)
	r.TotalAnswered = countAnswered(sub)
	metrics.RecordReport(r.Provenance.Source, r.Provenance.Reason)
	return r
}

func (a *Aggregator) localReport(sub evaluator.Submission, reason model.FallbackReason) model.Report {
	transcripts := make(map[int]string, len(sub.Answers))
	for _, ans := range sub.Answers {
		if _, seen := transcripts[ans.QuestionIndex]; !seen {
			transcripts[ans.QuestionIndex] = ans.Transcript
		}
	}

	scores := make([]model.QuestionScore, len(sub.Questions))
	var strengths, improvements []string
	var sumOverall, sumComm, sumConf, sumTech float64

	for i, q := range sub.Questions {
		ev := a.local.Evaluate(transcripts[i], q.ExpectedKeywords)
		tech := evaluator.Round1(evaluator.Clamp(ev.KeywordScore, 1, 10))

		scores[i] = model.QuestionScore{
			QuestionIndex:      i,
			Score:              ev.Overall,
			CommunicationScore: ev.CommunicationScore,
			ConfidenceScore:    ev.ConfidenceScore,
			TechnicalScore:     tech,
			Feedback:           ev.Feedback,
			MatchedKeywords:    ev.MatchedKeywords,
			WordCount:          ev.WordCount,
		}
		sumOverall += ev.Overall
		sumComm += ev.CommunicationScore
		sumConf += ev.ConfidenceScore
		sumTech += tech

		if ev.Overall >= 7 {
			strengths = append(strengths, fmt.Sprintf("Strong answer on: %q", excerpt(q.Text)))
		}
		if len(ev.MatchedKeywords) >= 3 {
			strengths = append(strengths, fmt.Sprintf("Good use of relevant terminology (%s)", strings.Join(ev.MatchedKeywords, ", ")))
		}
		if ev.CommunicationScore >= 8 {
			strengths = append(strengths, "Clear and articulate communication")
		}
		if ev.ConfidenceScore >= 8 {
			strengths = append(strengths, "Confident and assertive delivery")
		}

		if ev.Overall < 3 {
			improvements = append(improvements, fmt.Sprintf("Review concepts related to: %q", excerpt(q.Text)))
		}
		switch {
		case ev.WordCount == 0:
			improvements = append(improvements, improvementNoSkip)
		case ev.WordCount < 15:
			improvements = append(improvements, improvementMoreText)
		}
	}

	strengths = evaluator.DedupeCap(strengths, maxListItems)
	if len(strengths) == 0 {
		strengths = []string{defaultStrength}
	}
	improvements = evaluator.DedupeCap(improvements, maxListItems)
	if len(improvements) == 0 {
		improvements = []string{defaultImprovement}
	}

	return model.Report{
		OverallScore:       mean(sumOverall, len(scores)),
		CommunicationScore: mean(sumComm, len(scores)),
		ConfidenceScore:    mean(sumConf, len(scores)),
		TechnicalScore:     mean(sumTech, len(scores)),
		Strengths:          strengths,
		Improvements:       improvements,
		QuestionScores:     scores,
		Suggestions:        genericSuggestions(),
		OverallFeedback:    localFeedback(reason),
		Provenance:         model.Provenance{Source: model.ReportSourceLocal, Reason: reason},
	}
}

func countAnswered(sub evaluator.Submission) int {
	seen := make(map[int]struct{}, len(sub.Answers))
	for _, ans := range sub.Answers {
		if ans.QuestionIndex < 0 || ans.QuestionIndex >= len(sub.Questions) || evaluator.IsSkipped(ans.Transcript) {
			continue
		}
		seen[ans.QuestionIndex] = struct{}{}
	}
	return len(seen)
}

// mean is the rounded per-axis average, held inside [1,10]. An empty session
// scores the floor.
func mean(sum float64, n int) float64 {
	if n == 0 {
		return 1
	}
	return evaluator.Round1(evaluator.Clamp(sum/float64(n), 1, 10))
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= 50 {
		return s
	}
	return string(r[:50]) + "..."
}
