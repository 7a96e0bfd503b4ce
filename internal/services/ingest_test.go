package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsAllowedOrBaseline(t *testing.T) {
	assert.Equal(t, 108.3, pointsAllowedOrBaseline(108.3, 12))
	// Points allowed falls back to a scoring baseline, not a defensive rating.
	assert.Equal(t, defaultPointsAllowed, pointsAllowedOrBaseline(0, 0))
	assert.NotEqual(t, defaultDefensiveRating, pointsAllowedOrBaseline(0, 0))
}

func TestIsFinal(t *testing.T) {
	assert.True(t, isFinal("Final"))
	assert.True(t, isFinal("final"))
	assert.False(t, isFinal("4th Qtr"))
	assert.False(t, isFinal("2026-01-15T00:00:00.000Z")) // scheduled games carry a timestamp status
	assert.False(t, isFinal(""))
}
