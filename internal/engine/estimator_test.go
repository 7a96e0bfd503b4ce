package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedAverageEstimate_AllWindows(t *testing.T) {
	p := RollingProfile{
		Avg5:           28,
		Avg10:          26,
		Avg20:          24,
		GamesAvailable: 20,
	}

	// 0.45*28 + 0.30*26 + 0.25*24 = 26.4
	assert.InDelta(t, 26.4, WeightedAverageEstimate(p), 1e-9)
}

func TestWeightedAverageEstimate_ZeroHistory(t *testing.T) {
	assert.Zero(t, WeightedAverageEstimate(RollingProfile{}))
}

func TestWeightedAverageEstimate_RenormalizesMissingWindows(t *testing.T) {
	// 8 games: the 20-game window adds nothing beyond the 10-game one, so
	// the 0.45/0.30 weights renormalize over avg5 and avg10.
	p := RollingProfile{
		Avg5:           30,
		Avg10:          27,
		Avg20:          27,
		GamesAvailable: 8,
	}
	expected := (0.45*30 + 0.30*27) / 0.75
	assert.InDelta(t, expected, WeightedAverageEstimate(p), 1e-9)
}

func TestWeightedAverageEstimate_ShortHistoryUsesAvg5Alone(t *testing.T) {
	// 3 games: only the 5-game window is distinct, so its weight
	// renormalizes to 1.0 and the estimate is avg5 itself.
	p := RollingProfile{
		Avg5:           22,
		Avg10:          22,
		Avg20:          22,
		GamesAvailable: 3,
	}
	assert.InDelta(t, 22.0, WeightedAverageEstimate(p), 1e-9)
}

func TestWeightedAverageEstimate_WeightsSumToOne(t *testing.T) {
	// Identical window averages must pass through unchanged regardless of
	// how many windows participate.
	for _, games := range []int{1, 3, 6, 8, 11, 20, 40} {
		p := RollingProfile{Avg5: 18, Avg10: 18, Avg20: 18, GamesAvailable: games}
		assert.InDeltaf(t, 18.0, WeightedAverageEstimate(p), 1e-9, "games=%d", games)
	}
}
