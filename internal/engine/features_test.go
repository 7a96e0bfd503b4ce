package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtedge/prop-engine/internal/models"
)

func profilesFor(eligible []models.GameRecord) map[models.StatType]RollingProfile {
	profiles := make(map[models.StatType]RollingProfile)
	for _, stat := range models.ModelStats {
		profiles[stat] = ComputeRollingProfile(eligible, stat)
	}
	return profiles
}

func TestBuildFeatureVector_AlwaysLength26(t *testing.T) {
	opponent := &models.TeamContext{DefensiveRating: 110, Pace: 100, PointsAllowedAvg: 112}

	cases := []struct {
		name     string
		games    []models.GameRecord
		fctx     FeatureContext
	}{
		{"full context", gameLog(20, 22, 24, 26, 28), FeatureContext{IsHome: true, RestDays: 2, Opponent: opponent, TeamInjuryCount: 1}},
		{"no opponent context", gameLog(20, 22), FeatureContext{RestDays: 1}},
		{"empty history", nil, FeatureContext{Opponent: opponent}},
		{"nothing at all", nil, FeatureContext{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eligible, _ := SanitizeGameLog(tc.games, testAsOf)
			vector := BuildFeatureVector(profilesFor(eligible), eligible, tc.fctx)
			assert.Len(t, vector, FeatureVectorSize)
		})
	}
}

func TestBuildFeatureVector_NeutralDefaults(t *testing.T) {
	vector := BuildFeatureVector(profilesFor(nil), nil, FeatureContext{})
	require.Len(t, vector, FeatureVectorSize)
	for i, v := range vector {
		assert.Zerof(t, v, "feature %d should default to 0", i)
	}
}

func TestBuildFeatureVector_CappingRules(t *testing.T) {
	// 60 games on record: games-available must cap at 50.
	points := make([]float64, 60)
	for i := range points {
		points[i] = 20
	}
	eligible, _ := SanitizeGameLog(gameLog(points...), testAsOf)

	vector := BuildFeatureVector(profilesFor(eligible), eligible, FeatureContext{
		IsHome:   true,
		RestDays: 12,
	})

	// Layout: 16 per-stat features, then minutes/usage/ts, then
	// games-available, home flag, rest days.
	assert.Equal(t, 50.0, vector[19], "games available capped at 50")
	assert.Equal(t, 1.0, vector[20], "home flag encoded as exactly 1.0")
	assert.Equal(t, 7.0, vector[21], "rest days capped at 7")
}

func TestBuildFeatureVector_Ordering(t *testing.T) {
	eligible, _ := SanitizeGameLog(gameLog(20, 22, 24, 26, 28), testAsOf)
	profiles := profilesFor(eligible)
	opponent := &models.TeamContext{DefensiveRating: 108.5, Pace: 99.2, PointsAllowedAvg: 114.3}

	vector := BuildFeatureVector(profiles, eligible, FeatureContext{
		RestDays:        3,
		Opponent:        opponent,
		TeamInjuryCount: 2,
	})

	pts := profiles[models.StatPoints]
	assert.Equal(t, pts.Avg3, vector[0])
	assert.Equal(t, pts.Avg5, vector[1])
	assert.Equal(t, pts.Avg10, vector[2])
	assert.Equal(t, pts.Trend, vector[3])

	reb := profiles[models.StatRebounds]
	assert.Equal(t, reb.Avg3, vector[4])

	assert.Equal(t, 34.0, vector[16], "minutes average")
	assert.InDelta(t, 0.28, vector[17], 1e-9, "usage rate average")
	assert.InDelta(t, 0.58, vector[18], 1e-9, "true shooting average")
	assert.Equal(t, 5.0, vector[19], "games available")
	assert.Equal(t, 0.0, vector[20], "away game encoded as exactly 0.0")
	assert.Equal(t, 3.0, vector[21])
	assert.Equal(t, 108.5, vector[22])
	assert.Equal(t, 99.2, vector[23])
	assert.Equal(t, 114.3, vector[24])
	assert.Equal(t, 2.0, vector[25])
}
