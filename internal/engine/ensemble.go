package engine

// mlBlendWeight is the share of the blended estimate the regression model
// contributes when it is available; the weighted average carries the rest.
const mlBlendWeight = 0.6

// BlendEstimates combines the two estimates under the fixed ensemble rule:
// 0.6*ml + 0.4*wa when the ml estimate is present, otherwise the weighted
// average alone is the full estimate. Pure and total.
func BlendEstimates(pair EstimatePair) float64 {
	if pair.ML == nil {
		return pair.WA
	}
	return mlBlendWeight**pair.ML + (1-mlBlendWeight)*pair.WA
}
