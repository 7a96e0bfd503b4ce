package engine

import (
	"github.com/courtedge/prop-engine/internal/models"
)

// FeatureVectorSize is the fixed width of every feature vector. The canonical
// field ordering is documented in README.md and must match what the fitted
// regressors were trained against.
const FeatureVectorSize = 26

// Feature capping rules. Values beyond these caps carry no additional signal
// and were capped identically at training time.
const (
	maxGamesAvailable = 50
	maxRestDays       = 7
)

// FeatureContext carries the schedule and opponent context for one upcoming
// game. Opponent may be nil; every missing value is encoded as the neutral
// default 0 so the vector is always fully populated.
type FeatureContext struct {
	IsHome          bool
	RestDays        float64
	Opponent        *models.TeamContext
	TeamInjuryCount int
}

// BuildFeatureVector assembles the fixed 26-dimension feature vector from the
// per-stat rolling profiles, the sanitized game log (most recent first) and
// the game context. It never fails: absent inputs become neutral defaults and
// the result is always exactly FeatureVectorSize wide.
func BuildFeatureVector(profiles map[models.StatType]RollingProfile, eligible []models.GameRecord, fctx FeatureContext) []float64 {
	features := make([]float64, 0, FeatureVectorSize)

	// 4 stats x (avg3, avg5, avg10, trend) = 16
	for _, stat := range models.ModelStats {
		p := profiles[stat]
		features = append(features, p.Avg3, p.Avg5, p.Avg10, p.Trend)
	}

	// Minutes, usage rate, true shooting over the last 10 games = 3
	minutes, usage, trueShooting := contextAverages(eligible, windowLong)
	features = append(features, minutes, usage, trueShooting)

	// Games available, capped = 1
	games := len(eligible)
	if games > maxGamesAvailable {
		games = maxGamesAvailable
	}
	features = append(features, float64(games))

	// Home flag, exactly 1.0 or 0.0 = 1
	if fctx.IsHome {
		features = append(features, 1.0)
	} else {
		features = append(features, 0.0)
	}

	// Rest days, clamped to [0, 7] = 1
	rest := fctx.RestDays
	if rest < 0 {
		rest = 0
	}
	if rest > maxRestDays {
		rest = maxRestDays
	}
	features = append(features, rest)

	// Opponent defensive context = 3
	if fctx.Opponent != nil {
		features = append(features, fctx.Opponent.DefensiveRating, fctx.Opponent.Pace, fctx.Opponent.PointsAllowedAvg)
	} else {
		features = append(features, 0, 0, 0)
	}

	// Team injury count = 1
	features = append(features, float64(fctx.TeamInjuryCount))

	return features
}

// contextAverages averages minutes, usage rate and true shooting over the
// last `window` games of a sanitized log.
func contextAverages(eligible []models.GameRecord, window int) (minutes, usage, trueShooting float64) {
	if window > len(eligible) {
		window = len(eligible)
	}
	if window == 0 {
		return 0, 0, 0
	}
	for _, g := range eligible[:window] {
		minutes += g.Minutes
		usage += g.UsageRate
		trueShooting += g.TrueShootingPct
	}
	n := float64(window)
	return minutes / n, usage / n, trueShooting / n
}
