package report

import "github.com/stemsi/mockview-backend/internal/model"

var suggestionLibrary = []model.ImprovementIdea{
	{
		Title:       "Structure answers with STAR",
		Description: "Frame experience questions as Situation, Task, Action and Result so the interviewer can follow your reasoning.",
		Priority:    "high",
		Category:    "communication",
	},
	{
		Title:       "Back claims with specifics",
		Description: "Name the tools, numbers and trade-offs involved instead of speaking in general terms.",
		Priority:    "high",
		Category:    "technical",
	},
	{
		Title:       "Practice out loud",
		Description: "Rehearse answers aloud and record yourself to cut filler words and hedging.",
		Priority:    "medium",
		Category:    "confidence",
	},
	{
		Title:       "Review the fundamentals",
		Description: "Revisit core concepts for your target role and prepare one concrete example for each.",
		Priority:    "medium",
		Category:    "technical",
	},
	{
		Title:       "Keep a steady pace",
		Description: "Pause briefly before answering and aim for two to three minutes per question.",
		Priority:    "low",
		Category:    "communication",
	},
}

func genericSuggestions() []model.ImprovementIdea {
	out := make([]model.ImprovementIdea, len(suggestionLibrary))
	copy(out, suggestionLibrary)
	return out
}

// localFeedback is the user-visible note explaining why the local evaluator
// scored this session.
func localFeedback(reason model.FallbackReason) string {
	const prefix = "This report was scored with local evaluation based on keywords, answer length and delivery, not by the AI interviewer. "
	switch reason {
	case model.FallbackMissingCredential:
		return prefix + "AI evaluation is not configured on this server."
	case model.FallbackQuotaExhausted:
		return prefix + "The AI service quota was exhausted on every available model."
	case model.FallbackMalformed:
		return prefix + "The AI service returned a response that could not be read."
	default:
		return prefix + "The AI service returned an error."
	}
}
