package evaluator

import (
	"fmt"
	"strings"

	"github.com/stemsi/mockview-backend/internal/model"
)

// SkippedMarker stands in for a missing or skipped answer in the judge prompt.
const SkippedMarker = "[SKIPPED / NO ANSWER]"

const systemInstruction = "You are a strict, experienced interviewer scoring a mock interview. " +
	"Respond with a single JSON object and nothing else."

// scoringRubric keeps AI scores comparable with the local heuristic. Do not
// loosen it.
const scoringRubric = `SCORING RUBRIC (1-10, be strict and do not inflate scores):
- Skipped or no answer: 1
- Very short answer (under 15 words) or off-topic: 2-3
- Partial answer with some relevant points but little depth: 4-5
- Good answer with relevant detail and some depth: 6-7
- Excellent answer with clear structure, specific examples and strong depth: 8-9
- Perfect answer: 10 (rare)`

const responseSchema = `Return JSON with exactly this shape:
{
  "overallScore": number,
  "communicationScore": number,
  "confidenceScore": number,
  "technicalScore": number,
  "strengths": [string],
  "improvements": [string],
  "questionScores": [
    {"questionIndex": number, "score": number, "communicationScore": number, "confidenceScore": number, "technicalScore": number, "feedback": string}
  ],
  "improvementSuggestions": [
    {"title": string, "description": string, "priority": "high" | "medium" | "low", "category": string}
  ],
  "overallFeedback": string
}
"questionScores" must contain exactly one entry per question, in question order.`

// buildPrompt renders every question with its transcript, or SkippedMarker
// when the question has no usable answer.
func buildPrompt(sub Submission) string {
	answers := make(map[int]string, len(sub.Answers))
	for _, a := range sub.Answers {
		answers[a.QuestionIndex] = a.Transcript
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate this %s mock interview at %s difficulty.\n\n", sub.Category, sub.Difficulty)
	b.WriteString(scoringRubric)
	b.WriteString("\n\nINTERVIEW TRANSCRIPT:\n")

	for i, q := range sub.Questions {
		transcript, ok := answers[i]
		if !ok || IsSkipped(transcript) {
			transcript = SkippedMarker
		}
		fmt.Fprintf(&b, "\nQuestion %d (%s): %s\n", i+1, categoryOf(q, sub.Category), q.Text)
		if len(q.ExpectedKeywords) > 0 {
			fmt.Fprintf(&b, "Expected concepts: %s\n", strings.Join(q.ExpectedKeywords, ", "))
		}
		fmt.Fprintf(&b, "Answer: %s\n", strings.TrimSpace(transcript))
	}

	fmt.Fprintf(&b, "\nThere are %d questions.\n\n", len(sub.Questions))
	b.WriteString(responseSchema)
	return b.String()
}

func categoryOf(q model.Question, fallback string) string {
	if q.Category != "" {
		return q.Category
	}
	return fallback
}
