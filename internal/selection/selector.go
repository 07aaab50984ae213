// Package selection scores candidate questions and picks the best next
// one, or signals that the conversation should stop. Scoring blends
// expected information gain, slot-coverage need, topic cooldown, and
// respondent fatigue; near-duplicate questions are excluded via
// semantic similarity to recent history.
package selection

import (
	"context"
	"sort"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/scoring"
)

// ScoredCandidate is one candidate with its component scores, surfaced
// for transparency and tuning.
type ScoredCandidate struct {
	Candidate models.CandidateQuestion

	Score             float64
	EIG               float64
	CoverageNeed      float64
	CooldownPenalty   float64
	SimilarityPenalty float64

	// Excluded candidates carry the reason they were removed.
	Excluded       bool
	ExcludedReason string
}

// Result is the outcome of one selection pass.
type Result struct {
	// Question is the chosen candidate; nil means stop.
	Question *models.CandidateQuestion

	// StopReason is set when Question is nil.
	StopReason string

	// Scored holds every candidate's scoring breakdown, including
	// excluded ones, most attractive first.
	Scored []ScoredCandidate
}

// Selector picks the next question for a conversation.
type Selector struct {
	cfg     config.SelectionConfig
	scorers *scoring.Resilient
	fatigue FatigueFunc
	bank    *scoring.QuestionBank
}

// FatigueFunc supplies the current fatigue score for a conversation.
type FatigueFunc func(state *models.ConversationState) float64

// NewSelector creates a Selector. fatigue may be nil, in which case the
// fatigue penalty is zero.
func NewSelector(cfg config.SelectionConfig, scorers *scoring.Resilient, fatigue FatigueFunc) *Selector {
	if cfg.MaxTurns <= 0 {
		cfg = config.DefaultSelectionConfig()
	}
	return &Selector{cfg: cfg, scorers: scorers, fatigue: fatigue}
}

// WithBank attaches a cross-conversation question bank. When set, a
// candidate's similarity is also checked against the full asked
// history, not only the recent window. Returns s for chaining.
func (s *Selector) WithBank(bank *scoring.QuestionBank) *Selector {
	s.bank = bank
	return s
}

// Select scores candidates against the conversation state and returns
// the best surviving one, or a stop result when the turn budget is
// spent or no candidate survives exclusion.
func (s *Selector) Select(ctx context.Context, candidates []models.CandidateQuestion, state *models.ConversationState) Result {
	if state.Turn >= s.cfg.MaxTurns {
		return Result{StopReason: "turn budget exhausted"}
	}
	if len(candidates) == 0 {
		return Result{StopReason: "no candidate questions"}
	}

	fatigueScore := 0.0
	if s.fatigue != nil {
		fatigueScore = s.fatigue(state)
	}

	recent := recentQuestions(state, s.cfg.SemanticHistorySize)

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, cand := range candidates {
		sc := ScoredCandidate{Candidate: cand}
		if cand.EIG != nil {
			sc.EIG = *cand.EIG
		}

		// A topic asked TopicStreakLimit times in a row is off the
		// table entirely, not merely penalized.
		if state.TopicStreak(cand.Topic) >= s.cfg.TopicStreakLimit {
			sc.Excluded = true
			sc.ExcludedReason = "topic streak limit"
			scored = append(scored, sc)
			continue
		}

		sim, excluded := s.similarityPenalty(ctx, cand, recent)
		if excluded {
			sc.Excluded = true
			sc.ExcludedReason = "too similar to a recent question"
			scored = append(scored, sc)
			continue
		}
		sc.SimilarityPenalty = sim

		if cand.EIG == nil {
			// No externally attached estimate; ask the injected
			// estimator (neutral on failure).
			sc.EIG = s.scorers.Gain(ctx, cand, state).Score
		}
		sc.CoverageNeed = s.coverageNeed(cand.Slot, state)
		sc.CooldownPenalty = s.cooldownPenalty(cand.Topic, state)

		sc.Score = s.cfg.EIGWeight*sc.EIG +
			s.cfg.CoverageWeight*sc.CoverageNeed -
			s.cfg.CooldownWeight*sc.CooldownPenalty -
			s.cfg.FatigueWeight*fatigueScore -
			sc.SimilarityPenalty

		scored = append(scored, sc)
	}

	s.rank(scored, state)

	for i := range scored {
		if !scored[i].Excluded {
			q := scored[i].Candidate
			return Result{Question: &q, Scored: scored}
		}
	}
	return Result{StopReason: "all candidates excluded", Scored: scored}
}

// rank orders candidates by score descending; ties prefer the
// highest-priority unfilled target slot, then the least recently asked.
func (s *Selector) rank(scored []ScoredCandidate, state *models.ConversationState) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Excluded != b.Excluded {
			return !a.Excluded
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ra := s.tieRank(a.Candidate.Slot, state)
		rb := s.tieRank(b.Candidate.Slot, state)
		if ra != rb {
			return ra < rb
		}
		return state.LastAskedTurnFor(a.Candidate.Slot) < state.LastAskedTurnFor(b.Candidate.Slot)
	})
}

// tieRank ranks a slot for tie-breaking: unfilled slots beat filled
// ones, then priority tier decides.
func (s *Selector) tieRank(slot string, state *models.ConversationState) int {
	schema, err := state.SchemaFor(slot)
	if err != nil {
		return 100
	}
	rank := schema.Priority.Rank()
	if st, ok := state.Slots[slot]; ok && st.Filled() {
		rank += 10
	}
	return rank
}

// coverageNeed is higher for unfilled higher-priority slots and for
// filled slots still below their threshold.
func (s *Selector) coverageNeed(slot string, state *models.ConversationState) float64 {
	schema, err := state.SchemaFor(slot)
	if err != nil {
		return 0
	}
	st := state.Slots[slot]
	if st != nil && st.Filled() && st.Confidence >= schema.Threshold() && !st.Provisional {
		return 0
	}

	need := 0.0
	switch schema.Priority {
	case models.PriorityCritical:
		need = 1.0
	case models.PriorityImportant:
		need = 0.6
	default:
		need = 0.3
	}
	if st != nil && st.Filled() {
		// Partially satisfied: a provisional or sub-threshold value.
		need *= 0.5
	}
	return need
}

// cooldownPenalty grows the more recently the topic was asked within
// the cooldown window.
func (s *Selector) cooldownPenalty(topic string, state *models.ConversationState) float64 {
	since := state.TurnsSinceTopic(topic)
	if since < 0 || since > s.cfg.CooldownTurns {
		return 0
	}
	// since=1 (just asked) -> 1.0, fading linearly across the window.
	return 1.0 - float64(since-1)/float64(s.cfg.CooldownTurns)
}

// similarityPenalty compares a candidate against recent questions.
// Similarity above MaxSimilarity excludes the candidate; between
// SoftSimilarity and MaxSimilarity a linear graduated penalty applies.
func (s *Selector) similarityPenalty(ctx context.Context, cand models.CandidateQuestion, recent []models.AskedQuestion) (penalty float64, excluded bool) {
	maxSim := 0.0
	for _, prev := range recent {
		sim := s.scorers.Similarity(ctx, cand.Text, prev.Text).Score
		if sim > maxSim {
			maxSim = sim
		}
	}
	if s.bank != nil {
		// Bank errors read as dissimilar, matching the resilient
		// similarity fallback.
		if sim, err := s.bank.MaxSimilarity(ctx, cand.Text); err == nil && sim > maxSim {
			maxSim = sim
		}
	}
	if maxSim > s.cfg.MaxSimilarity {
		return 0, true
	}
	if maxSim <= s.cfg.SoftSimilarity {
		return 0, false
	}
	// Linear interpolation across the soft band. The curve shape is a
	// tunable, not a contract.
	band := s.cfg.MaxSimilarity - s.cfg.SoftSimilarity
	if band <= 0 {
		return 0, false
	}
	frac := (maxSim - s.cfg.SoftSimilarity) / band
	return s.cfg.SimilarityPenalty * frac, false
}

func recentQuestions(state *models.ConversationState, n int) []models.AskedQuestion {
	h := state.QuestionHistory
	if n <= 0 || len(h) == 0 {
		return nil
	}
	if len(h) > n {
		h = h[len(h)-n:]
	}
	return h
}
