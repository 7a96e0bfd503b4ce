package engine

// Window weights for the baseline weighted-average estimate. The recent
// 5-game window dominates, with the 10 and 20 game windows anchoring it.
const (
	weightAvg5  = 0.45
	weightAvg10 = 0.30
	weightAvg20 = 0.25
)

// Longer windows only contribute when they cover more games than the next
// shorter window; otherwise they would just repeat the shorter average and
// silently double its weight.
const (
	minGamesAvg5  = 1
	minGamesAvg10 = windowMedium + 1
	minGamesAvg20 = windowLong + 1
)

// WeightedAverageEstimate computes the stable baseline estimate
// 0.45*avg5 + 0.30*avg10 + 0.25*avg20. When a window is unavailable for lack
// of history, the remaining weights are renormalized so they still sum to 1.
// Zero history returns the neutral default 0. This estimator never fails.
func WeightedAverageEstimate(p RollingProfile) float64 {
	weightedSum := 0.0
	totalWeight := 0.0

	if p.GamesAvailable >= minGamesAvg5 {
		weightedSum += weightAvg5 * p.Avg5
		totalWeight += weightAvg5
	}
	if p.GamesAvailable >= minGamesAvg10 {
		weightedSum += weightAvg10 * p.Avg10
		totalWeight += weightAvg10
	}
	if p.GamesAvailable >= minGamesAvg20 {
		weightedSum += weightAvg20 * p.Avg20
		totalWeight += weightAvg20
	}

	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
