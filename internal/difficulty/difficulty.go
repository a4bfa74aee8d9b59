// Package difficulty implements the skill-rate model that drives question
// banding: an exponential moving average over answer correctness, a banding
// function with hysteresis to prevent flapping near thresholds, and a coarser
// count-gated function used before a learner has enough history.
package difficulty

import "math"

// Band is a question difficulty band.
type Band string

const (
	BandEasy   Band = "easy"
	BandMedium Band = "medium"
	BandHard   Band = "hard"
)

// Valid reports whether b is one of the three known bands.
func (b Band) Valid() bool {
	switch b {
	case BandEasy, BandMedium, BandHard:
		return true
	}
	return false
}

// Config holds the tunable constants of the rate model.
type Config struct {
	// Alpha is the EMA smoothing constant.
	Alpha float64

	// EasyMax is the rate below which a learner is banded easy.
	EasyMax float64

	// MedMax is the rate at or below which a learner is banded medium.
	MedMax float64

	// Hysteresis is the margin that must be fully crossed before the
	// band changes once a learner is settled in one.
	Hysteresis float64
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		Alpha:      0.2,
		EasyMax:    0.38,
		MedMax:     0.72,
		Hysteresis: 0.03,
	}
}

// UpdateRate folds one answer into the skill rate. The result is clamped to
// [0,1] and rounded to 3 decimal places so that repeated updates can never
// accumulate float noise into a band boundary.
func (c Config) UpdateRate(oldRate float64, correct bool) float64 {
	outcome := 0.0
	if correct {
		outcome = 1.0
	}
	rate := c.Alpha*outcome + (1-c.Alpha)*oldRate
	return round3(clamp01(rate))
}

// SelectBand maps a skill rate to a difficulty band. When prev is a valid
// band, the hysteresis margin must be fully crossed before the band changes;
// an unknown prev (e.g. a fresh learner) falls through to the raw thresholds.
func (c Config) SelectBand(rate float64, prev Band) Band {
	r := round3(rate)

	switch prev {
	case BandEasy:
		if r < round3(c.EasyMax+c.Hysteresis) {
			return BandEasy
		}
	case BandHard:
		if r > round3(c.MedMax-c.Hysteresis) {
			return BandHard
		}
	case BandMedium:
		if r >= round3(c.EasyMax-c.Hysteresis) && r <= round3(c.MedMax+c.Hysteresis) {
			return BandMedium
		}
	}

	return c.rawBand(r)
}

// rawBand applies the base thresholds with no hysteresis.
func (c Config) rawBand(r float64) Band {
	switch {
	case r < c.EasyMax:
		return BandEasy
	case r <= c.MedMax:
		return BandMedium
	default:
		return BandHard
	}
}

// MinBootstrapSample is the number of recorded answers required before
// BootstrapBand trusts the observed accuracy.
const MinBootstrapSample = 5

// BootstrapBand places a learner with no in-flow history, using lifetime
// accuracy. It is intentionally coarser than SelectBand and the two are not
// interchangeable: this one gates on sample size and serves only first
// contact, before the EMA rate means anything.
func BootstrapBand(correctRate float64, totalAnswered int) Band {
	if totalAnswered < MinBootstrapSample {
		return BandMedium
	}
	switch {
	case correctRate >= 0.75:
		return BandHard
	case correctRate >= 0.55:
		return BandMedium
	default:
		return BandEasy
	}
}

// FallbackOrder returns the adjacent bands to try, in order, when a band has
// no questions left.
func FallbackOrder(b Band) []Band {
	switch b {
	case BandEasy:
		return []Band{BandMedium, BandHard}
	case BandHard:
		return []Band{BandMedium, BandEasy}
	default:
		return []Band{BandEasy, BandHard}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
