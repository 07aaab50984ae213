// Package fatigue scores how worn down a respondent is from the shape
// of their recent answers. The detector is a pure function of the
// answer window: brevity and "I don't know" patterns raise the score,
// detail-rich answers lower it.
package fatigue

import (
	"regexp"
	"strings"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/models"
)

// reDontKnow matches answers that signal the respondent has nothing to
// give: "i don't know", "unsure", "not sure", "n/a", "no idea".
// The apostrophe class covers straight and curly variants.
var reDontKnow = regexp.MustCompile(`(?i)\b(i\s+don['’]?t\s+know|unsure|not\s+sure|n/?a|no\s+idea)\b`)

// reExplanatory matches causal or elaborating language, a sign the
// respondent is still engaged.
var reExplanatory = regexp.MustCompile(`(?i)\b(because|so\s+that|for\s+example|such\s+as|which\s+means|in\s+order\s+to|specifically)\b`)

var reDigit = regexp.MustCompile(`[0-9]`)

// Detector scores answer windows for respondent fatigue.
type Detector struct {
	cfg config.FatigueConfig
}

// NewDetector creates a Detector with the given tuning. Zero-valued
// fields fall back to defaults.
func NewDetector(cfg config.FatigueConfig) *Detector {
	def := config.DefaultFatigueConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.ShortAnswerChars <= 0 {
		cfg.ShortAnswerChars = def.ShortAnswerChars
	}
	return &Detector{cfg: cfg}
}

// Detect scores up to WindowSize most recent answers and returns a
// fatigue score in [0,1]; higher = more fatigued. An empty window
// returns 0. Pure function of its input.
func (d *Detector) Detect(recentAnswers []string) float64 {
	window := recentAnswers
	if len(window) > d.cfg.WindowSize {
		window = window[len(window)-d.cfg.WindowSize:]
	}
	if len(window) == 0 {
		return 0
	}

	total := 0.0
	for _, answer := range window {
		total += d.scoreAnswer(answer)
	}

	// Average per-answer contribution so the score does not depend on
	// how full the window is.
	return models.Clamp01(total / float64(len(window)))
}

// DetectState is a convenience wrapper over the conversation's bounded
// answer history.
func (d *Detector) DetectState(state *models.ConversationState) float64 {
	return d.Detect(state.RecentAnswerTexts(d.cfg.WindowSize))
}

// scoreAnswer returns one answer's fatigue contribution. Penalties are
// positive (more fatigued), engagement credits negative.
func (d *Detector) scoreAnswer(answer string) float64 {
	trimmed := strings.TrimSpace(answer)
	score := 0.0

	if len(trimmed) < d.cfg.ShortAnswerChars {
		score += d.cfg.ShortPenalty
	}
	if reDontKnow.MatchString(trimmed) {
		score += d.cfg.DontKnowPenalty
	}

	explains := reExplanatory.MatchString(trimmed)
	if explains {
		score -= d.cfg.DetailBonus
	}
	if sentenceCount(trimmed) > 1 {
		score -= d.cfg.SentenceBonus
		if !explains {
			// Multiple sentences count as explanatory richness too.
			score -= d.cfg.DetailBonus
		}
	}
	if reDigit.MatchString(trimmed) {
		score -= d.cfg.NumericBonus
	}

	return score
}

// sentenceCount estimates sentences by terminal punctuation. A trailing
// fragment with no terminator still counts as one sentence.
func sentenceCount(s string) int {
	count := 0
	terminated := true
	for _, r := range s {
		switch r {
		case '.', '!', '?':
			if !terminated {
				count++
				terminated = true
			}
		default:
			if !isSpace(r) {
				terminated = false
			}
		}
	}
	if !terminated {
		count++
	}
	return count
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
