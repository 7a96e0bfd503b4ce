package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courtedge/prop-engine/internal/models"
)

func pick(rec string, confidence float64) models.PredictionRecord {
	return models.PredictionRecord{Recommendation: rec, Confidence: confidence}
}

func TestSplitPicksRespectsCaps(t *testing.T) {
	var actionable []models.PredictionRecord
	for i := 0; i < 12; i++ {
		actionable = append(actionable, pick(models.RecommendationOver, float64(90-i)))
	}
	for i := 0; i < 10; i++ {
		actionable = append(actionable, pick(models.RecommendationUnder, float64(80-i)))
	}

	overs, unders := splitPicks(actionable)

	assert.Len(t, overs, maxOverPicks)
	assert.Len(t, unders, maxUnderPicks)
	// Input is confidence-sorted, so the caps keep the best picks.
	assert.Equal(t, 90.0, overs[0].Confidence)
	assert.Equal(t, 80.0, unders[0].Confidence)
}

func TestSplitPicksIgnoresHolds(t *testing.T) {
	actionable := []models.PredictionRecord{
		pick(models.RecommendationOver, 70),
		pick(models.RecommendationHold, 60),
		pick(models.RecommendationUnder, 50),
	}

	overs, unders := splitPicks(actionable)

	assert.Len(t, overs, 1)
	assert.Len(t, unders, 1)
}

func TestNotifierDisabledWithoutWebhook(t *testing.T) {
	notifier := NewNotifierService("", 0, nil, nil, nil, nil)
	assert.False(t, notifier.Enabled())
}
