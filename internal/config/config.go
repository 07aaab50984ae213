// Package config defines the versioned tuning surface for the intake
// engine. Every weight and threshold the engine consults lives here so
// operators can tune behavior without code changes. The config is
// constructed explicitly and passed into each component; there is no
// process-wide singleton.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Version is the current config schema version. Bump when fields change
// meaning so stored configs can be migrated or rejected.
const Version = "1"

// FileName is the config file name inside a .briefloop directory.
const FileName = "config.yaml"

// CalibrationConfig holds the confidence-calibration weights.
type CalibrationConfig struct {
	// SelfWeight weights the extractor's self-reported confidence.
	SelfWeight float64 `yaml:"self_weight"`

	// ValidatorWeight weights the validator re-score.
	ValidatorWeight float64 `yaml:"validator_weight"`

	// EvidenceWeight weights the tanh-squashed evidence-span count.
	EvidenceWeight float64 `yaml:"evidence_weight"`

	// QualityWeight weights the answer-quality score.
	QualityWeight float64 `yaml:"quality_weight"`

	// ConsistencyWeight weights the consistency score.
	ConsistencyWeight float64 `yaml:"consistency_weight"`

	// NoveltyBonus scales the novel-but-consistent reward term.
	NoveltyBonus float64 `yaml:"novelty_bonus"`

	// NoveltyFloor is subtracted from novelty before the bonus applies.
	NoveltyFloor float64 `yaml:"novelty_floor"`

	// CriticalCap is the confidence ceiling for critical slots.
	CriticalCap float64 `yaml:"critical_cap"`

	// GraceBand is how far below a slot's threshold an explicitly-asked
	// answer may fall and still be provisionally accepted.
	GraceBand float64 `yaml:"grace_band"`

	// EvidenceScale divides the evidence-span count inside the tanh, so
	// spans beyond ~2-3 yield diminishing returns.
	EvidenceScale float64 `yaml:"evidence_scale"`
}

// DefaultCalibrationConfig returns the calibration defaults.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		SelfWeight:        0.35,
		ValidatorWeight:   0.25,
		EvidenceWeight:    0.15,
		QualityWeight:     0.15,
		ConsistencyWeight: 0.10,
		NoveltyBonus:      0.05,
		NoveltyFloor:      0.3,
		CriticalCap:       0.85,
		GraceBand:         0.1,
		EvidenceScale:     2.0,
	}
}

// SelectionConfig holds the question-selector weights and limits.
type SelectionConfig struct {
	// EIGWeight weights expected information gain.
	EIGWeight float64 `yaml:"eig_weight"`

	// CoverageWeight weights the coverage-need boost for unfilled slots.
	CoverageWeight float64 `yaml:"coverage_weight"`

	// CooldownWeight weights the topic-cooldown penalty.
	CooldownWeight float64 `yaml:"cooldown_weight"`

	// FatigueWeight weights the fatigue penalty.
	FatigueWeight float64 `yaml:"fatigue_weight"`

	// CooldownTurns is how many turns a topic stays on cooldown.
	CooldownTurns int `yaml:"cooldown_turns"`

	// TopicStreakLimit is the maximum consecutive asks of one topic;
	// a candidate that would exceed it is excluded outright.
	TopicStreakLimit int `yaml:"topic_streak_limit"`

	// SemanticHistorySize is how many recent questions are compared for
	// semantic similarity.
	SemanticHistorySize int `yaml:"semantic_history_size"`

	// MaxSimilarity is the hard exclusion ceiling for semantic
	// similarity to a recent question.
	MaxSimilarity float64 `yaml:"max_similarity"`

	// SoftSimilarity is where the graduated similarity penalty begins.
	SoftSimilarity float64 `yaml:"soft_similarity"`

	// SimilarityPenalty scales the graduated penalty between
	// SoftSimilarity and MaxSimilarity.
	SimilarityPenalty float64 `yaml:"similarity_penalty"`

	// MaxTurns is the conversation turn budget.
	MaxTurns int `yaml:"max_turns"`
}

// DefaultSelectionConfig returns the selection defaults.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		EIGWeight:           1.0,
		CoverageWeight:      0.8,
		CooldownWeight:      0.5,
		FatigueWeight:       0.4,
		CooldownTurns:       2,
		TopicStreakLimit:    2,
		SemanticHistorySize: 5,
		MaxSimilarity:       0.85,
		SoftSimilarity:      0.6,
		SimilarityPenalty:   0.5,
		MaxTurns:            10,
	}
}

// CompletionConfig holds the stop-decision thresholds.
type CompletionConfig struct {
	// MinCoverage is the required-slot coverage ratio treated as "enough".
	MinCoverage float64 `yaml:"min_coverage"`

	// LowConfStreakLimit stops the conversation after this many
	// consecutive rejected extractions.
	LowConfStreakLimit int `yaml:"low_conf_streak_limit"`

	// HighFatigue stops the conversation once fatigue reaches this level
	// and minimum coverage is already met.
	HighFatigue float64 `yaml:"high_fatigue"`

	// MaxTurns is the hard turn budget. Kept equal to the selector's
	// budget by Validate.
	MaxTurns int `yaml:"max_turns"`
}

// DefaultCompletionConfig returns the completion defaults.
func DefaultCompletionConfig() CompletionConfig {
	return CompletionConfig{
		MinCoverage:        0.75,
		LowConfStreakLimit: 2,
		HighFatigue:        0.6,
		MaxTurns:           10,
	}
}

// FatigueConfig holds the fatigue-detector tuning.
type FatigueConfig struct {
	// WindowSize is how many recent answers are examined.
	WindowSize int `yaml:"window_size"`

	// ShortAnswerChars is the brevity cutoff in characters.
	ShortAnswerChars int `yaml:"short_answer_chars"`

	// ShortPenalty is added per short answer.
	ShortPenalty float64 `yaml:"short_penalty"`

	// DontKnowPenalty is added per "I don't know"-style answer.
	DontKnowPenalty float64 `yaml:"dont_know_penalty"`

	// DetailBonus is subtracted per answer with explanatory language.
	DetailBonus float64 `yaml:"detail_bonus"`

	// SentenceBonus is subtracted per multi-sentence answer.
	SentenceBonus float64 `yaml:"sentence_bonus"`

	// NumericBonus is subtracted per answer containing a digit.
	NumericBonus float64 `yaml:"numeric_bonus"`
}

// DefaultFatigueConfig returns the fatigue defaults.
func DefaultFatigueConfig() FatigueConfig {
	return FatigueConfig{
		WindowSize:       4,
		ShortAnswerChars: 10,
		ShortPenalty:     0.3,
		DontKnowPenalty:  0.6,
		DetailBonus:      0.2,
		SentenceBonus:    0.3,
		NumericBonus:     0.2,
	}
}

// Config is the full versioned engine configuration.
type Config struct {
	Version     string            `yaml:"version"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Selection   SelectionConfig   `yaml:"selection"`
	Completion  CompletionConfig  `yaml:"completion"`
	Fatigue     FatigueConfig     `yaml:"fatigue"`
}

// Default returns the full default configuration.
func Default() Config {
	return Config{
		Version:     Version,
		Calibration: DefaultCalibrationConfig(),
		Selection:   DefaultSelectionConfig(),
		Completion:  DefaultCompletionConfig(),
		Fatigue:     DefaultFatigueConfig(),
	}
}

// Validate checks ranges and cross-field consistency. It returns the
// first problem found.
func (c Config) Validate() error {
	if c.Version != Version {
		return fmt.Errorf("unsupported config version %q (want %q)", c.Version, Version)
	}
	cal := c.Calibration
	for _, check := range []struct {
		name string
		v    float64
	}{
		{"calibration.critical_cap", cal.CriticalCap},
		{"calibration.grace_band", cal.GraceBand},
		{"calibration.novelty_floor", cal.NoveltyFloor},
		{"completion.min_coverage", c.Completion.MinCoverage},
		{"completion.high_fatigue", c.Completion.HighFatigue},
		{"selection.max_similarity", c.Selection.MaxSimilarity},
		{"selection.soft_similarity", c.Selection.SoftSimilarity},
	} {
		if check.v < 0 || check.v > 1 {
			return fmt.Errorf("%s %.2f outside [0,1]", check.name, check.v)
		}
	}
	if cal.EvidenceScale <= 0 {
		return fmt.Errorf("calibration.evidence_scale must be positive")
	}
	if c.Selection.SoftSimilarity > c.Selection.MaxSimilarity {
		return fmt.Errorf("selection.soft_similarity %.2f exceeds max_similarity %.2f",
			c.Selection.SoftSimilarity, c.Selection.MaxSimilarity)
	}
	if c.Selection.MaxTurns <= 0 {
		return fmt.Errorf("selection.max_turns must be positive")
	}
	if c.Completion.MaxTurns != c.Selection.MaxTurns {
		return fmt.Errorf("completion.max_turns %d does not match selection.max_turns %d",
			c.Completion.MaxTurns, c.Selection.MaxTurns)
	}
	if c.Completion.LowConfStreakLimit <= 0 {
		return fmt.Errorf("completion.low_conf_streak_limit must be positive")
	}
	if c.Fatigue.WindowSize <= 0 {
		return fmt.Errorf("fatigue.window_size must be positive")
	}
	return nil
}

// Load reads a YAML config from path, filling unset sections with
// defaults and validating the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Version == "" {
		cfg.Version = Version
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML to path.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
