package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtedge/prop-engine/internal/models"
)

func linePtr(v float64) *float64 { return &v }

func TestGradePredictionOverHit(t *testing.T) {
	prediction := models.PredictionRecord{
		AthleteID:       "237",
		Stat:            models.StatPoints,
		Date:            time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Recommendation:  models.RecommendationOver,
		MarketLine:      linePtr(25.5),
		BlendedEstimate: 28.2,
	}
	actual := &models.GameRecord{Points: 31}

	result := gradePrediction(prediction, actual)

	assert.Equal(t, models.RecommendationOver, result.ActualResult)
	require.NotNil(t, result.Correct)
	assert.True(t, *result.Correct)
	assert.Equal(t, 31.0, result.ActualValue)
	assert.InDelta(t, -2.8, result.Difference, 1e-9)
}

func TestGradePredictionOverMiss(t *testing.T) {
	prediction := models.PredictionRecord{
		Stat:           models.StatRebounds,
		Recommendation: models.RecommendationOver,
		MarketLine:     linePtr(8.5),
	}
	actual := &models.GameRecord{Rebounds: 6}

	result := gradePrediction(prediction, actual)

	assert.Equal(t, models.RecommendationUnder, result.ActualResult)
	require.NotNil(t, result.Correct)
	assert.False(t, *result.Correct)
}

func TestGradePredictionUnderHit(t *testing.T) {
	prediction := models.PredictionRecord{
		Stat:           models.StatAssists,
		Recommendation: models.RecommendationUnder,
		MarketLine:     linePtr(7.5),
	}
	actual := &models.GameRecord{Assists: 5}

	result := gradePrediction(prediction, actual)

	require.NotNil(t, result.Correct)
	assert.True(t, *result.Correct)
}

func TestGradePredictionPush(t *testing.T) {
	// Whole-number lines can land exactly; neither side wins.
	prediction := models.PredictionRecord{
		Stat:           models.StatPoints,
		Recommendation: models.RecommendationOver,
		MarketLine:     linePtr(25),
	}
	actual := &models.GameRecord{Points: 25}

	result := gradePrediction(prediction, actual)

	assert.Equal(t, "PUSH", result.ActualResult)
	assert.Nil(t, result.Correct)
}

func TestGradePredictionCompositeStat(t *testing.T) {
	prediction := models.PredictionRecord{
		Stat:           models.StatPRA,
		Recommendation: models.RecommendationOver,
		MarketLine:     linePtr(38.5),
	}
	actual := &models.GameRecord{Points: 25, Rebounds: 8, Assists: 7}

	result := gradePrediction(prediction, actual)

	assert.Equal(t, 40.0, result.ActualValue)
	require.NotNil(t, result.Correct)
	assert.True(t, *result.Correct)
}
