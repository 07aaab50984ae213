// Package calibration turns raw extraction signals into one calibrated
// confidence value and runs the accept/reject pipeline that is the only
// writer of per-slot conversation state.
package calibration

import (
	"math"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/models"
)

// Calibrator blends extraction features into a single confidence value.
// Pure: identical features always yield identical output.
type Calibrator struct {
	cfg config.CalibrationConfig
}

// NewCalibrator creates a Calibrator with the given weights. Zero-valued
// weight sets fall back to the defaults.
func NewCalibrator(cfg config.CalibrationConfig) *Calibrator {
	if cfg.SelfWeight == 0 && cfg.ValidatorWeight == 0 && cfg.EvidenceWeight == 0 &&
		cfg.QualityWeight == 0 && cfg.ConsistencyWeight == 0 {
		cfg = config.DefaultCalibrationConfig()
	}
	if cfg.EvidenceScale <= 0 {
		cfg.EvidenceScale = config.DefaultCalibrationConfig().EvidenceScale
	}
	return &Calibrator{cfg: cfg}
}

// Calibrate computes the weighted blend:
//
//	selfWeight*self + validatorWeight*validator
//	  + evidenceWeight*tanh(evidenceSpans/evidenceScale)
//	  + qualityWeight*answerQuality + consistencyWeight*consistency
//	  + noveltyBonus*max(0, novelty-noveltyFloor)*consistency
//
// clamped to [0,1], then capped at CriticalCap for critical slots. The
// tanh squashes unbounded span counts into a saturating [0,1)
// contribution; zero spans contribute tanh(0)=0, not a penalty.
func (c *Calibrator) Calibrate(f models.ConfidenceFeatures) float64 {
	f = f.Clamp()

	evidence := math.Tanh(float64(f.EvidenceSpans) / c.cfg.EvidenceScale)

	score := c.cfg.SelfWeight*f.Self +
		c.cfg.ValidatorWeight*f.Validator +
		c.cfg.EvidenceWeight*evidence +
		c.cfg.QualityWeight*f.AnswerQuality +
		c.cfg.ConsistencyWeight*f.Consistency

	// Reward novel-but-consistent new information.
	noveltyGain := f.Novelty - c.cfg.NoveltyFloor
	if noveltyGain > 0 {
		score += c.cfg.NoveltyBonus * noveltyGain * f.Consistency
	}

	score = models.Clamp01(score)
	if f.Critical && score > c.cfg.CriticalCap {
		score = c.cfg.CriticalCap
	}
	return score
}
