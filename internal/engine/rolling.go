package engine

import (
	"math"
	"time"

	"github.com/courtedge/prop-engine/internal/models"
)

// Rolling window sizes used throughout the engine.
const (
	windowShort  = 3
	windowMedium = 5
	windowLong   = 10
	windowSeason = 20
)

// RollingProfile holds the windowed averages, trend and consistency of one
// stat for one athlete as of a date. It is recomputed on every invocation
// and never persisted by the engine.
type RollingProfile struct {
	Stat           models.StatType `json:"stat"`
	Avg3           float64         `json:"avg_3"`
	Avg5           float64         `json:"avg_5"`
	Avg10          float64         `json:"avg_10"`
	Avg20          float64         `json:"avg_20"`
	Trend          float64         `json:"trend"`
	Consistency    float64         `json:"consistency"` // coefficient of variation
	GamesAvailable int             `json:"games_available"`
}

// SanitizeGameLog filters a chronological game log (most recent last) down to
// the records eligible for computation as of asOf: records dated after asOf
// are dropped (no lookahead), and malformed records - negative stat values or
// a date earlier than the record before it - are dropped individually rather
// than failing the whole computation. The returned slice is ordered most
// recent first; the second return value counts excluded malformed records.
func SanitizeGameLog(games []models.GameRecord, asOf time.Time) ([]models.GameRecord, int) {
	eligible := make([]models.GameRecord, 0, len(games))
	excluded := 0

	var prevDate time.Time
	for _, g := range games {
		if !prevDate.IsZero() && g.Date.Before(prevDate) {
			excluded++
			continue
		}
		prevDate = g.Date

		if g.Date.After(asOf) {
			continue
		}
		if isMalformed(&g) {
			excluded++
			continue
		}
		eligible = append(eligible, g)
	}

	// Reverse to most-recent-first, the order all window math indexes by.
	for i, j := 0, len(eligible)-1; i < j; i, j = i+1, j-1 {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}

	return eligible, excluded
}

func isMalformed(g *models.GameRecord) bool {
	return g.Minutes < 0 ||
		g.Points < 0 ||
		g.Rebounds < 0 ||
		g.Assists < 0 ||
		g.ThreesMade < 0 ||
		g.FieldGoalsMade < 0 ||
		g.FieldGoalsAtt < 0 ||
		g.UsageRate < 0 ||
		g.TrueShootingPct < 0
}

// ComputeRollingProfile derives the rolling profile of one stat from a
// sanitized game log (most recent first). Pure and deterministic: fewer games
// than a window means the average covers what exists, zero games yields the
// neutral default of 0 everywhere.
func ComputeRollingProfile(eligible []models.GameRecord, stat models.StatType) RollingProfile {
	values := make([]float64, len(eligible))
	for i := range eligible {
		values[i] = eligible[i].StatValue(stat)
	}

	return RollingProfile{
		Stat:           stat,
		Avg3:           meanOfFirst(values, windowShort),
		Avg5:           meanOfFirst(values, windowMedium),
		Avg10:          meanOfFirst(values, windowLong),
		Avg20:          meanOfFirst(values, windowSeason),
		Trend:          halfWindowTrend(values, windowLong),
		Consistency:    coefficientOfVariation(values, windowLong),
		GamesAvailable: len(values),
	}
}

// meanOfFirst averages the first n values (most recent n games), or all of
// them when fewer exist. Zero values returns 0.
func meanOfFirst(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	if n > len(values) {
		n = len(values)
	}
	sum := 0.0
	for _, v := range values[:n] {
		sum += v
	}
	return sum / float64(n)
}

// halfWindowTrend is the difference between the average of the most recent
// half and the older half of the last `window` games. Positive values signal
// upward momentum. Fewer than 2 games yields 0.
func halfWindowTrend(values []float64, window int) float64 {
	if window > len(values) {
		window = len(values)
	}
	if window < 2 {
		return 0
	}
	half := window / 2
	recent := values[:half]
	older := values[half:window]
	return mean(recent) - mean(older)
}

// coefficientOfVariation is the population standard deviation divided by the
// mean over the last `window` games. A zero mean is defined as 0 consistency
// rather than infinity.
func coefficientOfVariation(values []float64, window int) float64 {
	if window > len(values) {
		window = len(values)
	}
	if window == 0 {
		return 0
	}
	subset := values[:window]
	m := mean(subset)
	if m == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range subset {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(subset))
	return math.Sqrt(variance) / m
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
