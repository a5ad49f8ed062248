package evaluator

import (
	"regexp"
	"unicode/utf8"
)

// Word lists driving the local heuristic. Terms are matched as whole words
// or phrases against the lowercased transcript.
var (
	positiveTerms = []string{
		"achieved", "accomplished", "improved", "successfully", "effectively",
		"efficiently", "collaborated", "innovative", "solved", "implemented",
		"developed", "created", "designed", "optimized", "delivered", "led",
		"managed", "built", "enhanced", "streamlined", "excellent", "great",
		"best", "strong", "confident", "proactive", "initiative", "passionate",
		"dedicated", "committed",
	}

	weakTerms = []string{
		"maybe", "perhaps", "i think", "i guess", "not sure", "kind of",
		"sort of", "probably", "might", "um", "uh", "don't know", "confused",
		"difficult", "struggle", "hard to say", "no idea", "never",
	}

	fillerTerms = []string{
		"um", "uh", "like", "you know", "basically", "actually", "literally",
		"right", "so yeah", "i mean",
	}

	// skipSentinels are transcripts the client sends for a skipped question.
	skipSentinels = map[string]bool{
		"(skipped)":   true,
		"[skipped]":   true,
		"skipped":     true,
		"(no answer)": true,
		"no answer":   true,
	}
)

var (
	positivePatterns = compileTerms(positiveTerms)
	weakPatterns     = compileTerms(weakTerms)
	fillerPatterns   = compileTerms(fillerTerms)
)

func compileTerms(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(terms))
	for i, t := range terms {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
	}
	return out
}

// countMatches returns the total number of occurrences of all patterns in s.
func countMatches(patterns []*regexp.Regexp, s string) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllStringIndex(s, -1))
	}
	return n
}

// minAnswerRunes is the shortest trimmed transcript that counts as an answer.
const minAnswerRunes = 5

// IsSkipped reports whether a transcript is a skip marker or too short to be
// an answer. Scoring, answer counts and the judge prompt all use it.
func IsSkipped(transcript string) bool {
	return isSkippedNormalized(normalize(transcript))
}

func isSkippedNormalized(t string) bool {
	return utf8.RuneCountInString(t) < minAnswerRunes || skipSentinels[t]
}
