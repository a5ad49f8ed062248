package evaluator

import (
	"math"
	"strings"
)

// Fixed feedback texts of the local heuristic.
const (
	FeedbackNoAnswer  = "No answer was provided for this question."
	FeedbackTooBrief  = "This answer is too brief to evaluate. Aim for a few complete sentences that address the question directly."
	feedbackExcellent = "Excellent answer! You demonstrated strong knowledge and communicated clearly."
	feedbackGood      = "Good answer. You covered key points but could elaborate more on some areas."
	feedbackDecent    = "Decent attempt. Try to include more specific details and relevant terminology."
	feedbackWeak      = "This answer needs improvement. Focus on addressing the core question with specific examples."
)

// Evaluation is the local score of one answer. Axis scores are on 1–10,
// KeywordScore on 0–10.
type Evaluation struct {
	Overall            float64
	KeywordScore       float64
	CommunicationScore float64
	ConfidenceScore    float64
	Feedback           string
	MatchedKeywords    []string
	WordCount          int
	FillerCount        int
}

// LocalEvaluator scores answers from lexical signals only. It is
// deterministic and safe for concurrent use.
type LocalEvaluator struct{}

// NewLocalEvaluator creates a LocalEvaluator.
func NewLocalEvaluator() *LocalEvaluator {
	return &LocalEvaluator{}
}

// Evaluate scores one transcript against the question's expected keywords.
func (LocalEvaluator) Evaluate(transcript string, keywords []string) Evaluation {
	text := normalize(transcript)

	// Must run before tokenizing: an empty answer has no words to divide by.
	if isSkippedNormalized(text) {
		return Evaluation{
			Overall:            1,
			KeywordScore:       0,
			CommunicationScore: 1,
			ConfidenceScore:    1,
			Feedback:           FeedbackNoAnswer,
		}
	}

	words := strings.Fields(text)
	wordCount := len(words)
	if wordCount < 10 {
		return Evaluation{
			Overall:            2,
			KeywordScore:       1,
			CommunicationScore: 2,
			ConfidenceScore:    2,
			Feedback:           FeedbackTooBrief,
			WordCount:          wordCount,
		}
	}

	var matched []string
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	keywordScore := 5.0
	if len(keywords) > 0 {
		keywordScore = 10 * float64(len(matched)) / float64(len(keywords))
	}

	positive := countMatches(positivePatterns, text)
	weak := countMatches(weakPatterns, text)
	sentiment := clampInt(5+positive-2*weak, 1, 10)

	fillers := countMatches(fillerPatterns, text)
	fillerRatio := float64(fillers) / float64(wordCount)

	communication := 3
	for _, threshold := range []int{20, 40, 60, 100} {
		if wordCount >= threshold {
			communication++
		}
	}
	if fillerRatio < 0.05 {
		communication++
	}
	if fillerRatio < 0.02 {
		communication++
	}
	communication -= int(math.Floor(fillerRatio * 20))
	communication = clampInt(communication, 1, 10)

	confidence := 3
	switch {
	case weak == 0:
		confidence += 2
	case weak <= 1:
		confidence++
	default:
		confidence -= weak
	}
	if positive >= 2 {
		confidence++
	}
	if positive >= 4 {
		confidence++
	}
	for _, threshold := range []int{40, 80} {
		if wordCount >= threshold {
			confidence++
		}
	}
	confidence = clampInt(confidence, 1, 10)

	overall := Round1(keywordScore*0.35 +
		float64(sentiment)*0.15 +
		float64(communication)*0.25 +
		float64(confidence)*0.25)

	return Evaluation{
		Overall:            overall,
		KeywordScore:       Round1(keywordScore),
		CommunicationScore: float64(communication),
		ConfidenceScore:    float64(confidence),
		Feedback:           localFeedback(overall, matched, fillers, wordCount),
		MatchedKeywords:    matched,
		WordCount:          wordCount,
		FillerCount:        fillers,
	}
}

func localFeedback(overall float64, matched []string, fillers, wordCount int) string {
	var b strings.Builder
	switch {
	case overall >= 8:
		b.WriteString(feedbackExcellent)
	case overall >= 6:
		b.WriteString(feedbackGood)
	case overall >= 4:
		b.WriteString(feedbackDecent)
	default:
		b.WriteString(feedbackWeak)
	}
	if len(matched) > 0 {
		b.WriteString(" Good use of: ")
		b.WriteString(strings.Join(matched, ", "))
		b.WriteString(".")
	}
	if fillers > 2 {
		b.WriteString(" Try to reduce filler words for more polished delivery.")
	}
	if wordCount < 30 {
		b.WriteString(" Consider providing more detailed responses.")
	}
	return b.String()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
