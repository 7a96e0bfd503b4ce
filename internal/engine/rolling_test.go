package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtedge/prop-engine/internal/models"
)

var testAsOf = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

// gameLog builds a chronological log (most recent last) ending the day
// before testAsOf, with one game per day and the given points values.
func gameLog(points ...float64) []models.GameRecord {
	games := make([]models.GameRecord, len(points))
	for i, pts := range points {
		games[i] = models.GameRecord{
			AthleteID:       "athlete-1",
			Date:            testAsOf.AddDate(0, 0, -(len(points) - i)),
			Minutes:         34,
			Points:          pts,
			Rebounds:        6,
			Assists:         4,
			ThreesMade:      2,
			UsageRate:       0.28,
			TrueShootingPct: 0.58,
		}
	}
	return games
}

func TestSanitizeGameLog_ExcludesLookahead(t *testing.T) {
	games := gameLog(20, 22, 24)
	games = append(games, models.GameRecord{
		AthleteID: "athlete-1",
		Date:      testAsOf.AddDate(0, 0, 2),
		Points:    40,
	})

	eligible, excluded := SanitizeGameLog(games, testAsOf)

	assert.Len(t, eligible, 3)
	assert.Equal(t, 0, excluded, "future games are ineligible, not malformed")
	assert.Equal(t, 24.0, eligible[0].Points, "most recent eligible game first")
}

func TestSanitizeGameLog_RejectsMalformedRecords(t *testing.T) {
	games := gameLog(20, 22, 24)
	games[1].Points = -5 // negative stat value

	eligible, excluded := SanitizeGameLog(games, testAsOf)

	assert.Len(t, eligible, 2)
	assert.Equal(t, 1, excluded)
}

func TestSanitizeGameLog_RejectsOutOfOrderDates(t *testing.T) {
	games := gameLog(20, 22, 24, 26)
	games[2].Date = games[0].Date.AddDate(0, 0, -10) // regresses behind its predecessor

	eligible, excluded := SanitizeGameLog(games, testAsOf)

	assert.Len(t, eligible, 3)
	assert.Equal(t, 1, excluded)
}

func TestComputeRollingProfile_ZeroGames(t *testing.T) {
	profile := ComputeRollingProfile(nil, models.StatPoints)

	assert.Equal(t, 0, profile.GamesAvailable)
	assert.Zero(t, profile.Avg3)
	assert.Zero(t, profile.Avg5)
	assert.Zero(t, profile.Avg10)
	assert.Zero(t, profile.Avg20)
	assert.Zero(t, profile.Trend)
	assert.Zero(t, profile.Consistency)
}

func TestComputeRollingProfile_WindowAverages(t *testing.T) {
	eligible, excluded := SanitizeGameLog(gameLog(10, 20, 30, 24, 26, 28), testAsOf)
	require.Equal(t, 0, excluded)

	profile := ComputeRollingProfile(eligible, models.StatPoints)

	assert.Equal(t, 6, profile.GamesAvailable)
	assert.InDelta(t, 26.0, profile.Avg3, 1e-9)  // (28+26+24)/3
	assert.InDelta(t, 25.6, profile.Avg5, 1e-9)  // (28+26+24+30+20)/5
	assert.InDelta(t, 23.0, profile.Avg10, 1e-9) // all six games
	assert.InDelta(t, 23.0, profile.Avg20, 1e-9)
}

func TestComputeRollingProfile_AveragesBoundedByData(t *testing.T) {
	logs := [][]float64{
		{25, 30, 28, 22, 35},
		{0, 0, 0},
		{12},
		{8, 8, 8, 8, 8, 8, 8, 8},
		{1, 50, 3, 47, 9, 31},
	}
	for _, points := range logs {
		eligible, _ := SanitizeGameLog(gameLog(points...), testAsOf)
		profile := ComputeRollingProfile(eligible, models.StatPoints)

		lo, hi := points[0], points[0]
		n := len(points)
		window := 3
		if window > n {
			window = n
		}
		for _, v := range points[n-window:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		assert.GreaterOrEqual(t, profile.Avg3, lo)
		assert.LessOrEqual(t, profile.Avg3, hi)
	}
}

func TestComputeRollingProfile_Trend(t *testing.T) {
	// Newest-first halves of the last 10: recent (30,30,30,30,30) vs older
	// (20,20,20,20,20) => trend +10.
	eligible, _ := SanitizeGameLog(gameLog(20, 20, 20, 20, 20, 30, 30, 30, 30, 30), testAsOf)
	profile := ComputeRollingProfile(eligible, models.StatPoints)
	assert.InDelta(t, 10.0, profile.Trend, 1e-9)

	// Fewer than 2 games: trend defined as 0.
	single, _ := SanitizeGameLog(gameLog(25), testAsOf)
	assert.Zero(t, ComputeRollingProfile(single, models.StatPoints).Trend)
}

func TestComputeRollingProfile_ConsistencyZeroMean(t *testing.T) {
	eligible, _ := SanitizeGameLog(gameLog(0, 0, 0, 0), testAsOf)
	profile := ComputeRollingProfile(eligible, models.StatPoints)
	assert.Zero(t, profile.Consistency, "zero mean must not produce NaN or Inf")
}

func TestComputeRollingProfile_Consistency(t *testing.T) {
	// Values 10 and 20 alternating: mean 15, population stddev 5, cv 1/3.
	eligible, _ := SanitizeGameLog(gameLog(10, 20, 10, 20, 10, 20, 10, 20, 10, 20), testAsOf)
	profile := ComputeRollingProfile(eligible, models.StatPoints)
	assert.InDelta(t, 1.0/3.0, profile.Consistency, 1e-9)
}

func TestComputeRollingProfile_CompositePRA(t *testing.T) {
	games := gameLog(20, 24)
	// pts+reb+ast = 20+6+4 and 24+6+4
	eligible, _ := SanitizeGameLog(games, testAsOf)
	profile := ComputeRollingProfile(eligible, models.StatPRA)
	assert.InDelta(t, 32.0, profile.Avg3, 1e-9)
}
