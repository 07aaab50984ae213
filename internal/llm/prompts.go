package llm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Scoring prompts instruct the model to answer with a bare number so
// responses parse without a JSON round-trip. Models occasionally wrap
// the number anyway; ParseScore tolerates that.

// ValidatorPrompt asks how precise and actionable a value is for a slot.
func ValidatorPrompt(slot, value string) string {
	return fmt.Sprintf(`You are scoring an answer extracted during an intake interview.

Slot: %s
Extracted value: %s

Rate how precise and actionable this value is as a filled-in answer for
the slot, from 0.0 (vague, useless) to 1.0 (specific, directly usable).

Respond with ONLY the number.`, slot, value)
}

// QualityPrompt asks how much usable detail a raw answer carries.
func QualityPrompt(answer string) string {
	return fmt.Sprintf(`You are scoring a respondent's answer during an intake interview.

Answer: %s

Rate how much usable detail the answer carries, from 0.0 (evasive or
empty) to 1.0 (rich, concrete detail).

Respond with ONLY the number.`, answer)
}

// SimilarityPrompt asks how semantically similar two questions are.
func SimilarityPrompt(a, b string) string {
	return fmt.Sprintf(`Rate the semantic similarity of these two interview questions,
from 0.0 (unrelated) to 1.0 (asking the same thing).

Question A: %s
Question B: %s

Respond with ONLY the number.`, a, b)
}

var reScore = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseScore extracts a [0,1] score from a model response. The first
// number found is used; values outside [0,1] are rejected rather than
// clamped, since they indicate the model misread the prompt.
func ParseScore(response string) (float64, error) {
	match := reScore.FindString(strings.TrimSpace(response))
	if match == "" {
		return 0, fmt.Errorf("no score in response %q", truncateResponse(response))
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing score %q: %w", match, err)
	}
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("score %.2f outside [0,1]", score)
	}
	return score, nil
}

func truncateResponse(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
