package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/mockview-backend/internal/model"
)

type reply struct {
	text string
	err  error
}

// scriptedGenerator answers calls from a fixed script and remembers which
// models were asked.
type scriptedGenerator struct {
	mu      sync.Mutex
	script  []reply
	models  []string
	prompts []string
}

func (g *scriptedGenerator) Name() string { return "fake" }

func (g *scriptedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.models = append(g.models, req.Model)
	g.prompts = append(g.prompts, req.Prompt)
	if len(g.script) == 0 {
		return "", errors.New("script exhausted")
	}
	r := g.script[0]
	g.script = g.script[1:]
	return r.text, r.err
}

type memRecorder struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (r *memRecorder) RecordAttempt(_ context.Context, a Attempt) {
	r.mu.Lock()
	r.attempts = append(r.attempts, a)
	r.mu.Unlock()
}

func (r *memRecorder) outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, len(r.attempts))
	for i, a := range r.attempts {
		out[i] = a.Outcome
	}
	return out
}

var quotaErr = fmt.Errorf("%w: 429 too many requests", ErrQuotaExceeded)

func judgeJSON(n int) string {
	scores := make([]string, n)
	for i := range scores {
		scores[i] = fmt.Sprintf(`{"questionIndex": %d, "score": 6, "communicationScore": 7, "confidenceScore": 5, "technicalScore": 6, "feedback": "ok"}`, i)
	}
	return `{"overallScore": 6.24, "communicationScore": 7, "confidenceScore": 5, "technicalScore": 6,
		"strengths": ["Clear structure"], "improvements": ["More depth"],
		"questionScores": [` + strings.Join(scores, ",") + `],
		"improvementSuggestions": [{"title": "Practice STAR", "description": "Use STAR.", "priority": "HIGH", "category": "behavioral"}],
		"overallFeedback": "Solid."}`
}

func testSubmission(n int) Submission {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{Text: fmt.Sprintf("Question %d?", i), Order: i, Category: model.CategoryTechnical}
	}
	return Submission{
		SessionID:  uuid.New(),
		Category:   model.CategoryTechnical,
		Difficulty: model.DifficultyMedium,
		Questions:  qs,
		Answers: []model.Answer{
			{QuestionIndex: 0, Transcript: "I would put a cache in front of the database and invalidate on write"},
		},
	}
}

type evaluatorHarness struct {
	ev    *AIEvaluator
	gen   *scriptedGenerator
	rec   *memRecorder
	slept []time.Duration
}

func newHarness(script ...reply) *evaluatorHarness {
	h := &evaluatorHarness{
		gen: &scriptedGenerator{script: script},
		rec: &memRecorder{},
	}
	h.ev = NewAIEvaluator(h.gen, AIOptions{
		PrimaryModel:   "cheap",
		FallbackModels: []string{"better", "best"},
		RetryBackoff:   5 * time.Second,
		Timeout:        time.Second,
	}, h.rec, zerolog.Nop())
	h.ev.sleep = func(_ context.Context, d time.Duration) error {
		h.slept = append(h.slept, d)
		return nil
	}
	return h
}

func TestAIEvaluatePrimarySucceeds(t *testing.T) {
	h := newHarness(reply{text: "Here you go:\n" + judgeJSON(2) + "\nThanks"})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	require.True(t, res.OK())
	assert.Equal(t, "cheap", res.Model)
	assert.Equal(t, []string{"cheap"}, h.gen.models)
	assert.Empty(t, h.slept)
	assert.Equal(t, model.Provenance{Source: model.ReportSourceAI, Model: "cheap"}, res.Report.Provenance)
	assert.Equal(t, 6.2, res.Report.OverallScore)
	require.Len(t, res.Report.QuestionScores, 2)
	assert.Equal(t, 14, res.Report.QuestionScores[0].WordCount)
	assert.Equal(t, 0, res.Report.QuestionScores[1].WordCount)
	require.Len(t, res.Report.Suggestions, 1)
	assert.Equal(t, "high", res.Report.Suggestions[0].Priority)
	assert.Equal(t, []Outcome{OutcomeSuccess}, h.rec.outcomes())
}

func TestAIEvaluateFallsBackOnQuota(t *testing.T) {
	h := newHarness(reply{err: quotaErr}, reply{text: judgeJSON(2)})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	require.True(t, res.OK())
	assert.Equal(t, "better", res.Model)
	assert.Equal(t, []string{"cheap", "better"}, h.gen.models)
	assert.Equal(t, h.gen.prompts[0], h.gen.prompts[1], "fallback must reuse the same prompt")
	assert.Equal(t, []Outcome{OutcomeQuota, OutcomeSuccess}, h.rec.outcomes())
}

func TestAIEvaluateQuotaEverywhere(t *testing.T) {
	h := newHarness(reply{err: quotaErr}, reply{err: quotaErr}, reply{err: quotaErr}, reply{err: quotaErr})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	assert.False(t, res.OK())
	assert.Equal(t, model.FallbackQuotaExhausted, res.Reason)
	assert.Equal(t, []string{"cheap", "better", "best", "cheap"}, h.gen.models)
	assert.Equal(t, []time.Duration{5 * time.Second}, h.slept, "exactly one delayed retry")
}

func TestAIEvaluateDelayedRetryRecovers(t *testing.T) {
	h := newHarness(reply{err: quotaErr}, reply{err: quotaErr}, reply{err: quotaErr}, reply{text: judgeJSON(2)})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	require.True(t, res.OK())
	assert.Equal(t, "cheap", res.Model)
	assert.Len(t, h.gen.models, 4)
}

func TestAIEvaluateCancelledDuringBackoffIsQuotaExhausted(t *testing.T) {
	h := newHarness(reply{err: quotaErr}, reply{err: quotaErr}, reply{err: quotaErr})
	h.ev.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	assert.False(t, res.OK())
	assert.Equal(t, model.FallbackQuotaExhausted, res.Reason)
	assert.Equal(t, []string{"cheap", "better", "best"}, h.gen.models)
}

func TestAIEvaluateMalformedIsNotRetried(t *testing.T) {
	h := newHarness(reply{text: "I think the candidate did fine."}, reply{text: judgeJSON(2)})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	assert.False(t, res.OK())
	assert.Equal(t, model.FallbackMalformed, res.Reason)
	assert.Equal(t, []string{"cheap"}, h.gen.models)
	assert.Equal(t, []Outcome{OutcomeMalformed}, h.rec.outcomes())
}

func TestAIEvaluateWrongQuestionCountIsMalformed(t *testing.T) {
	h := newHarness(reply{text: judgeJSON(1)})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	assert.False(t, res.OK())
	assert.Equal(t, model.FallbackMalformed, res.Reason)
	assert.Len(t, h.gen.models, 1)
}

func TestAIEvaluateOtherErrorStopsChain(t *testing.T) {
	h := newHarness(reply{err: errors.New("connection reset")}, reply{text: judgeJSON(2)})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	assert.False(t, res.OK())
	assert.Equal(t, model.FallbackAPIError, res.Reason)
	assert.Equal(t, []string{"cheap"}, h.gen.models)
	assert.Equal(t, []Outcome{OutcomeError}, h.rec.outcomes())
}

func TestAIEvaluateNonQuotaErrorOnFallbackStopsChain(t *testing.T) {
	h := newHarness(reply{err: quotaErr}, reply{err: errors.New("bad gateway")})

	res := h.ev.Evaluate(context.Background(), testSubmission(2))

	assert.Equal(t, model.FallbackAPIError, res.Reason)
	assert.Equal(t, "better", res.Model)
	assert.Empty(t, h.slept)
}

func TestAIEvaluateWithoutGenerator(t *testing.T) {
	ev := NewAIEvaluator(nil, AIOptions{PrimaryModel: "cheap"}, nil, zerolog.Nop())

	res := ev.Evaluate(context.Background(), testSubmission(2))

	assert.False(t, res.OK())
	assert.Equal(t, model.FallbackMissingCredential, res.Reason)
}

type blockingGenerator struct{}

func (blockingGenerator) Name() string { return "blocking" }

func (blockingGenerator) Generate(ctx context.Context, _ Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAIEvaluateAttemptIsBoundedByTimeout(t *testing.T) {
	ev := NewAIEvaluator(blockingGenerator{}, AIOptions{
		PrimaryModel: "cheap",
		Timeout:      20 * time.Millisecond,
	}, nil, zerolog.Nop())

	start := time.Now()
	res := ev.Evaluate(context.Background(), testSubmission(1))

	assert.Equal(t, model.FallbackAPIError, res.Reason)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTooShortAnswersAreSkippedForTheJudge(t *testing.T) {
	sub := testSubmission(2)
	sub.Answers = append(sub.Answers, model.Answer{QuestionIndex: 1, Transcript: "ok"})
	h := newHarness(reply{text: judgeJSON(2)})

	res := h.ev.Evaluate(context.Background(), sub)

	require.True(t, res.OK())
	assert.Equal(t, 0, res.Report.QuestionScores[1].WordCount)
	assert.Equal(t, 1, strings.Count(h.gen.prompts[0], SkippedMarker))
	assert.NotContains(t, h.gen.prompts[0], "Answer: ok")
}

func TestBuildPromptMarksSkippedAnswers(t *testing.T) {
	sub := testSubmission(3)
	sub.Answers = append(sub.Answers, model.Answer{QuestionIndex: 1, Transcript: "(skipped)"})

	prompt := buildPrompt(sub)

	assert.Equal(t, 2, strings.Count(prompt, SkippedMarker))
	assert.Contains(t, prompt, "invalidate on write")
	assert.Contains(t, prompt, "Skipped or no answer: 1")
	assert.Contains(t, prompt, "Perfect answer: 10 (rare)")
	assert.Contains(t, prompt, "There are 3 questions.")
}
