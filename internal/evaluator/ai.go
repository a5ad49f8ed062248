package evaluator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/model"
)

// Submission is everything the evaluators need to score one session.
type Submission struct {
	SessionID  uuid.UUID
	Category   string
	Difficulty string
	Questions  []model.Question
	Answers    []model.Answer
}

// AIOptions configures the model chain.
type AIOptions struct {
	PrimaryModel   string
	FallbackModels []string
	RetryBackoff   time.Duration
	Timeout        time.Duration
}

// AIResult is the outcome of an AI evaluation. Report is nil when the judge
// produced nothing usable; Reason then says why.
type AIResult struct {
	Report *model.Report
	Model  string
	Reason model.FallbackReason
}

// OK reports whether the judge produced a report.
func (r AIResult) OK() bool {
	return r.Report != nil
}

// strategy is one step of the model chain.
type strategy struct {
	model string
	delay time.Duration
}

// AIEvaluator scores a whole session with a generative judge.
type AIEvaluator struct {
	gen      Generator
	opts     AIOptions
	recorder AttemptRecorder
	log      zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewAIEvaluator creates an AIEvaluator. A nil gen means no credential is
// configured and every evaluation reports FallbackMissingCredential.
func NewAIEvaluator(gen Generator, opts AIOptions, recorder AttemptRecorder, log zerolog.Logger) *AIEvaluator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AIEvaluator{
		gen:      gen,
		opts:     opts,
		recorder: recorder,
		log:      log.With().Str("component", "ai_evaluator").Logger(),
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// strategies returns the primary model, each fallback model, then one delayed
// retry of the primary.
func (e *AIEvaluator) strategies() []strategy {
	out := make([]strategy, 0, len(e.opts.FallbackModels)+2)
	out = append(out, strategy{model: e.opts.PrimaryModel})
	for _, m := range e.opts.FallbackModels {
		out = append(out, strategy{model: m})
	}
	return append(out, strategy{model: e.opts.PrimaryModel, delay: e.opts.RetryBackoff})
}

// Evaluate runs the model chain. It never returns an error: every failure
// becomes a nil report with a reason.
func (e *AIEvaluator) Evaluate(ctx context.Context, sub Submission) AIResult {
	if e.gen == nil {
		return AIResult{Reason: model.FallbackMissingCredential}
	}

	req := Request{System: systemInstruction, Prompt: buildPrompt(sub)}
	log := e.log.With().Str("session_id", sub.SessionID.String()).Logger()

	var last string
	for i, s := range e.strategies() {
		last = s.model
		if s.delay > 0 {
			// Only quota failures reach the delayed retry.
			if err := e.sleep(ctx, s.delay); err != nil {
				return AIResult{Model: last, Reason: model.FallbackQuotaExhausted}
			}
		}

		req.Model = s.model
		raw, latency, err := e.attempt(ctx, req)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				e.record(ctx, sub.SessionID, s.model, OutcomeQuota, latency)
				log.Warn().Err(err).Str("model", s.model).Int("step", i).Msg("AI quota exhausted, trying next model")
				continue
			}
			e.record(ctx, sub.SessionID, s.model, OutcomeError, latency)
			log.Warn().Err(err).Str("model", s.model).Msg("AI evaluation failed")
			return AIResult{Model: last, Reason: model.FallbackAPIError}
		}

		report, err := parseReport(raw, len(sub.Questions))
		if err != nil {
			e.record(ctx, sub.SessionID, s.model, OutcomeMalformed, latency)
			log.Warn().Err(err).Str("model", s.model).Msg("AI judge returned an unusable response")
			return AIResult{Model: last, Reason: model.FallbackMalformed}
		}
		e.record(ctx, sub.SessionID, s.model, OutcomeSuccess, latency)

		fillWordCounts(report, sub.Answers)
		report.Provenance = model.Provenance{Source: model.ReportSourceAI, Model: s.model}
		return AIResult{Report: report, Model: s.model}
	}

	return AIResult{Model: last, Reason: model.FallbackQuotaExhausted}
}

// attempt performs one generator call bounded by the configured timeout.
func (e *AIEvaluator) attempt(ctx context.Context, req Request) (string, time.Duration, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := e.now()
	raw, err := e.gen.Generate(ctx, req)
	return raw, e.now().Sub(start), err
}

func (e *AIEvaluator) record(ctx context.Context, sessionID uuid.UUID, modelName string, outcome Outcome, latency time.Duration) {
	e.recorder.RecordAttempt(ctx, Attempt{
		SessionID: sessionID,
		Provider:  e.gen.Name(),
		Model:     modelName,
		Outcome:   outcome,
		Latency:   latency,
		At:        e.now(),
	})
}

// fillWordCounts copies answer lengths into the judge's per-question scores.
func fillWordCounts(report *model.Report, answers []model.Answer) {
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(report.QuestionScores) || IsSkipped(a.Transcript) {
			continue
		}
		report.QuestionScores[a.QuestionIndex].WordCount = len(strings.Fields(a.Transcript))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
