package engine

import (
	"math"

	"github.com/courtedge/prop-engine/internal/models"
)

// Edge and confidence policy constants.
const (
	// edgeThreshold is the relative edge at which a recommendation flips
	// from HOLD to OVER/UNDER. The boundary itself belongs to the signal:
	// an edge of exactly +8% is an OVER.
	edgeThreshold = 0.08

	// edgeSaturation is the |edge| at which the edge component of
	// confidence maxes out.
	edgeSaturation = 0.20

	edgeConfidenceWeight        = 60.0
	consistencyConfidenceWeight = 40.0

	tierHighMin   = 75.0
	tierMediumMin = 45.0
)

// Assessment is the scorer's output: the market comparison and a 0-100
// confidence score.
type Assessment struct {
	Recommendation string  `json:"recommendation"`
	EdgePct        float64 `json:"edge_pct"`
	Confidence     float64 `json:"confidence_score"`
	ConfidenceTier string  `json:"confidence_tier"`
}

// Score compares a blended estimate to a market line. Without a usable line
// (absent or non-positive) there is no edge to act on, so the result is a
// HOLD with zero confidence - a degenerate but valid outcome. Confidence
// rises monotonically with |edge| and falls monotonically with the
// coefficient of variation of the athlete's recent history.
func Score(blended float64, marketLine *float64, consistency float64) Assessment {
	if marketLine == nil || *marketLine <= 0 {
		return Assessment{
			Recommendation: models.RecommendationHold,
			ConfidenceTier: tierFor(0),
		}
	}

	line := *marketLine
	edge := (blended - line) / line

	recommendation := models.RecommendationHold
	if edge >= edgeThreshold {
		recommendation = models.RecommendationOver
	} else if edge <= -edgeThreshold {
		recommendation = models.RecommendationUnder
	}

	confidence := confidenceScore(edge, consistency)

	return Assessment{
		Recommendation: recommendation,
		EdgePct:        edge,
		Confidence:     confidence,
		ConfidenceTier: tierFor(confidence),
	}
}

// confidenceScore maps |edge| and consistency onto [0, 100]. The edge
// component saturates at edgeSaturation; the consistency component decays
// linearly as the coefficient of variation grows, bottoming out at 0 for
// cv >= 1.
func confidenceScore(edge, consistency float64) float64 {
	edgeComponent := math.Abs(edge) / edgeSaturation
	if edgeComponent > 1 {
		edgeComponent = 1
	}

	consistencyComponent := 1 - consistency
	if consistencyComponent < 0 {
		consistencyComponent = 0
	}

	score := edgeConfidenceWeight*edgeComponent + consistencyConfidenceWeight*consistencyComponent
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func tierFor(confidence float64) string {
	switch {
	case confidence >= tierHighMin:
		return models.TierHigh
	case confidence >= tierMediumMin:
		return models.TierMedium
	default:
		return models.TierLow
	}
}
