package report

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/mockview-backend/internal/evaluator"
	"github.com/stemsi/mockview-backend/internal/model"
)

type stubJudge struct {
	res   evaluator.AIResult
	calls int
}

func (j *stubJudge) Evaluate(context.Context, evaluator.Submission) evaluator.AIResult {
	j.calls++
	return j.res
}

// quotaGenerator rejects every call as over quota.
type quotaGenerator struct{ calls int }

func (g *quotaGenerator) Name() string { return "quota" }

func (g *quotaGenerator) Generate(context.Context, evaluator.Request) (string, error) {
	g.calls++
	return "", fmt.Errorf("%w: 429", evaluator.ErrQuotaExceeded)
}

const detailedAnswer = "In a previous role I designed and implemented a caching layer for our product API. " +
	"We measured latency, chose a write-through cache, and added invalidation on every update. " +
	"I successfully delivered it ahead of schedule, optimized the hot paths, and documented the trade-offs " +
	"so the team could maintain it confidently after launch."

func submission(n int, answers ...model.Answer) evaluator.Submission {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			Text:             fmt.Sprintf("Tell me about a time you improved system performance, part %d of the story", i),
			Order:            i,
			Category:         model.CategoryTechnical,
			ExpectedKeywords: []string{"cache", "latency", "invalidation", "sharding"},
		}
	}
	return evaluator.Submission{
		SessionID:  uuid.New(),
		Category:   model.CategoryTechnical,
		Difficulty: model.DifficultyMedium,
		Questions:  qs,
		Answers:    answers,
	}
}

func TestGenerateUsesAIReportVerbatim(t *testing.T) {
	aiReport := &model.Report{
		OverallScore:   8,
		QuestionScores: []model.QuestionScore{{QuestionIndex: 0, Score: 8}},
		Strengths:      []string{"Depth"},
		Provenance:     model.Provenance{Source: model.ReportSourceAI, Model: "m"},
	}
	judge := &stubJudge{res: evaluator.AIResult{Report: aiReport, Model: "m"}}

	r := NewAggregator(judge, zerolog.Nop()).Generate(context.Background(),
		submission(1, model.Answer{QuestionIndex: 0, Transcript: detailedAnswer}))

	assert.Equal(t, 1, judge.calls)
	assert.Equal(t, 8.0, r.OverallScore)
	assert.Equal(t, []string{"Depth"}, r.Strengths)
	assert.Equal(t, model.ReportSourceAI, r.Provenance.Source)
	assert.Equal(t, 1, r.TotalQuestions)
	assert.Equal(t, 1, r.TotalAnswered)
}

func TestGenerateAllSkipped(t *testing.T) {
	judge := &stubJudge{res: evaluator.AIResult{Reason: model.FallbackMissingCredential}}
	sub := submission(3,
		model.Answer{QuestionIndex: 0, Transcript: "(skipped)"},
		model.Answer{QuestionIndex: 1, Transcript: ""},
	)

	r := NewAggregator(judge, zerolog.Nop()).Generate(context.Background(), sub)

	for _, v := range []float64{r.OverallScore, r.CommunicationScore, r.ConfidenceScore, r.TechnicalScore} {
		assert.LessOrEqual(t, v, 2.0)
		assert.GreaterOrEqual(t, v, 1.0)
	}
	require.Len(t, r.QuestionScores, 3)
	for i, qs := range r.QuestionScores {
		assert.Equal(t, i, qs.QuestionIndex)
		assert.Equal(t, 0, qs.WordCount)
	}
	assert.Contains(t, r.Improvements, improvementNoSkip)
	assert.Equal(t, []string{defaultStrength}, r.Strengths)
	assert.Equal(t, 0, r.TotalAnswered)
	assert.Equal(t, model.Provenance{Source: model.ReportSourceLocal, Reason: model.FallbackMissingCredential}, r.Provenance)
	assert.Contains(t, r.OverallFeedback, "local evaluation")
	assert.Contains(t, r.OverallFeedback, "not configured")
}

func TestGenerateCountsTooShortAnswersAsSkipped(t *testing.T) {
	for _, judge := range []*stubJudge{
		{res: evaluator.AIResult{Reason: model.FallbackMissingCredential}},
		{res: evaluator.AIResult{Report: &model.Report{OverallScore: 5}, Model: "m"}},
	} {
		sub := submission(2,
			model.Answer{QuestionIndex: 0, Transcript: " ok "},
			model.Answer{QuestionIndex: 1, Transcript: detailedAnswer},
		)

		r := NewAggregator(judge, zerolog.Nop()).Generate(context.Background(), sub)

		assert.Equal(t, 1, r.TotalAnswered)
		assert.Equal(t, 2, r.TotalQuestions)
	}
}

func TestGenerateLocalScoresAndLists(t *testing.T) {
	judge := &stubJudge{res: evaluator.AIResult{Reason: model.FallbackAPIError}}
	sub := submission(2,
		model.Answer{QuestionIndex: 0, Transcript: detailedAnswer},
		model.Answer{QuestionIndex: 1, Transcript: "A cache helps a lot"},
	)

	r := NewAggregator(judge, zerolog.Nop()).Generate(context.Background(), sub)

	require.Len(t, r.QuestionScores, 2)
	first := r.QuestionScores[0]
	assert.ElementsMatch(t, []string{"cache", "latency", "invalidation"}, first.MatchedKeywords)
	assert.Equal(t, 5, len(strings.Fields(sub.Answers[1].Transcript)))
	assert.Equal(t, 2.0, r.QuestionScores[1].Score)

	assert.Contains(t, r.Strengths, "Good use of relevant terminology (cache, latency, invalidation)")
	assert.Contains(t, r.Improvements, improvementMoreText)
	assert.Equal(t, evaluator.Round1((first.Score+2)/2), r.OverallScore)
	assert.Equal(t, 2, r.TotalAnswered)
	assert.NotEmpty(t, r.Suggestions)
	assert.Contains(t, r.OverallFeedback, "returned an error")
}

func TestGenerateListsAreDedupedAndCapped(t *testing.T) {
	judge := &stubJudge{res: evaluator.AIResult{Reason: model.FallbackMalformed}}
	answers := make([]model.Answer, 0, 8)
	for i := 0; i < 8; i++ {
		answers = append(answers, model.Answer{QuestionIndex: i, Transcript: "too short"})
	}
	sub := submission(8, answers...)
	// Distinct question texts give distinct "Review concepts" entries.
	for i := range sub.Questions {
		sub.Questions[i].Text = fmt.Sprintf("Question number %d", i)
	}

	r := NewAggregator(judge, zerolog.Nop()).Generate(context.Background(), sub)

	assert.Len(t, r.Improvements, maxListItems)
	seen := map[string]bool{}
	for _, s := range r.Improvements {
		assert.False(t, seen[s], "duplicate improvement %q", s)
		seen[s] = true
	}
	assert.Contains(t, r.OverallFeedback, "could not be read")
}

func TestGenerateSurvivesTotalQuotaFailure(t *testing.T) {
	gen := &quotaGenerator{}
	ai := evaluator.NewAIEvaluator(gen, evaluator.AIOptions{
		PrimaryModel:   "cheap",
		FallbackModels: []string{"better"},
	}, nil, zerolog.Nop())
	sub := submission(2, model.Answer{QuestionIndex: 0, Transcript: detailedAnswer})

	r := NewAggregator(ai, zerolog.Nop()).Generate(context.Background(), sub)

	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, model.ReportSourceLocal, r.Provenance.Source)
	assert.Equal(t, model.FallbackQuotaExhausted, r.Provenance.Reason)
	assert.Contains(t, r.OverallFeedback, "quota")
	assert.NotEmpty(t, r.Strengths)
	assert.NotEmpty(t, r.Improvements)
	assert.NotEmpty(t, r.Suggestions)
	require.Len(t, r.QuestionScores, 2)
	for _, v := range []float64{r.OverallScore, r.CommunicationScore, r.ConfidenceScore, r.TechnicalScore} {
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 10.0)
	}
	assert.Equal(t, 2, r.TotalQuestions)
	assert.Equal(t, 1, r.TotalAnswered)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short"))
	assert.Equal(t, strings.Repeat("a", 50)+"...", excerpt(strings.Repeat("a", 60)))
}
