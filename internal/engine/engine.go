// Package engine produces probabilistic player prop predictions. Per
// (athlete, stat, date) it derives rolling features from the supplied game
// log, blends a learned regression estimate with a weighted-moving-average
// baseline, and scores the result against an optional market line.
//
// The engine is stateless and synchronous: every invocation is a pure
// function of its inputs plus one optional call into the regression
// capability, so invocations may run concurrently without locking.
package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/models"
)

// Engine holds the caller-owned collaborators shared across invocations: the
// regression capability registry and a logger. It carries no mutable state.
type Engine struct {
	registry   RegressorRegistry
	minHistory int
	logger     *logrus.Logger
}

// New creates a prediction engine with the default regression history floor.
// The registry may be nil, in which case every prediction degrades to the
// weighted-average estimate.
func New(registry RegressorRegistry, logger *logrus.Logger) *Engine {
	return NewWithMinHistory(registry, DefaultMinHistoryGames, logger)
}

// NewWithMinHistory creates a prediction engine with an explicit floor on the
// games of history required before the regression estimate is used. A
// non-positive floor falls back to the default.
func NewWithMinHistory(registry RegressorRegistry, minHistory int, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if minHistory <= 0 {
		minHistory = DefaultMinHistoryGames
	}
	return &Engine{registry: registry, minHistory: minHistory, logger: logger}
}

// Input is everything one prediction needs. The engine fetches nothing: the
// game log (chronological, most recent last), opponent context and market
// line are all passed in by the caller.
type Input struct {
	AthleteID       string
	Stat            models.StatType
	AsOfDate        time.Time
	GameLog         []models.GameRecord
	IsHome          bool
	Opponent        *models.TeamContext
	TeamInjuryCount int
	MarketLine      *float64
}

// Diagnostics surfaces caller contract violations that were tolerated rather
// than propagated.
type Diagnostics struct {
	ExcludedRecords int `json:"excluded_records,omitempty"`
}

// PredictionResult is the structured prediction record for one (athlete,
// stat, date). It is created once and ownership transfers to the caller.
type PredictionResult struct {
	AthleteID       string          `json:"athlete_id"`
	Stat            models.StatType `json:"stat"`
	Date            time.Time       `json:"date"`
	BlendedEstimate float64         `json:"blended_estimate"`
	MarketLine      *float64        `json:"market_line,omitempty"`
	EdgePct         float64         `json:"edge_pct"`
	Recommendation  string          `json:"recommendation"`
	Confidence      float64         `json:"confidence_score"`
	ConfidenceTier  string          `json:"confidence_tier"`
	Estimates       EstimatePair    `json:"estimates"`
	Profile         RollingProfile  `json:"profile"`
	Diagnostics     Diagnostics     `json:"diagnostics,omitempty"`
}

// Predict runs the full pipeline for one athlete and stat. It is total: a
// degraded input (empty history, missing context, failing regressor) still
// yields a usable result, never an error.
func (e *Engine) Predict(in Input) PredictionResult {
	eligible, excluded := SanitizeGameLog(in.GameLog, in.AsOfDate)

	profiles := make(map[models.StatType]RollingProfile, len(models.ModelStats))
	for _, stat := range models.ModelStats {
		profiles[stat] = ComputeRollingProfile(eligible, stat)
	}

	target, ok := profiles[in.Stat]
	if !ok {
		// Composite stats (PRA) are profiled from per-game sums so the
		// consistency measure reflects real game-to-game variation.
		target = ComputeRollingProfile(eligible, in.Stat)
	}

	features := BuildFeatureVector(profiles, eligible, FeatureContext{
		IsHome:          in.IsHome,
		RestDays:        restDays(eligible, in.AsOfDate),
		Opponent:        in.Opponent,
		TeamInjuryCount: in.TeamInjuryCount,
	})

	pair := EstimatePair{
		WA: WeightedAverageEstimate(target),
		ML: e.regressionEstimate(in.Stat, features, target.GamesAvailable),
	}
	blended := BlendEstimates(pair)

	assessment := Score(blended, in.MarketLine, target.Consistency)

	return PredictionResult{
		AthleteID:       in.AthleteID,
		Stat:            in.Stat,
		Date:            in.AsOfDate,
		BlendedEstimate: blended,
		MarketLine:      in.MarketLine,
		EdgePct:         assessment.EdgePct,
		Recommendation:  assessment.Recommendation,
		Confidence:      assessment.Confidence,
		ConfidenceTier:  assessment.ConfidenceTier,
		Estimates:       pair,
		Profile:         target,
		Diagnostics:     Diagnostics{ExcludedRecords: excluded},
	}
}

// restDays counts whole days between the most recent eligible game and the
// as-of date, before the feature cap is applied. No history means 0.
func restDays(eligible []models.GameRecord, asOf time.Time) float64 {
	if len(eligible) == 0 {
		return 0
	}
	days := asOf.Sub(eligible[0].Date).Hours() / 24
	if days < 0 {
		return 0
	}
	return float64(int(days))
}
