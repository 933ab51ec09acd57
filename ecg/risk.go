package ecg

import "math"

// Risk levels, ordered Low < Moderate < High.
const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

// RiskPolicy maps a predicted class and its probability map to a 0-100 risk
// score and an ordinal level. It is a pure function of its inputs: the cut
// points and the normal-class ceiling are fixed configuration, never derived
// at runtime.
type RiskPolicy struct {
	LowMax        int
	ModerateMax   int
	NormalCeiling float64
}

// DefaultRiskPolicy returns the standard cut points: <34 Low, 34-66
// Moderate, >66 High, with Normal predictions capped at 33.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{LowMax: 33, ModerateMax: 66, NormalCeiling: 33}
}

// Score computes the risk score and level. A Normal prediction scores with
// its own probability scaled into the low band, so the score falls as the
// abnormal probability mass grows; any abnormal class scores with its own
// confidence.
func (p RiskPolicy) Score(class ClassLabel, probs map[ClassLabel]float64) (int, string) {
	var score int
	if class == ClassNORM {
		score = int(math.Round(probs[ClassNORM] * p.NormalCeiling))
	} else {
		score = int(math.Round(probs[class] * 100))
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, p.Level(score)
}

// Level maps a score onto the ordinal risk level using the fixed cut points.
func (p RiskPolicy) Level(score int) string {
	switch {
	case score <= p.LowMax:
		return RiskLow
	case score <= p.ModerateMax:
		return RiskModerate
	default:
		return RiskHigh
	}
}
