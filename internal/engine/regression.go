package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/models"
)

// DefaultMinHistoryGames is the default floor below which the regression
// estimate is skipped in favor of the weighted-average fallback. Matches the
// minimum history the models were fitted with.
const DefaultMinHistoryGames = 5

// Regressor is the opaque predict capability of one fitted per-stat model.
// How the model was produced is a collaborator concern; the engine only
// invokes it.
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// RegressorRegistry exposes, per stat, either a callable regressor or
// "unavailable". The caller owns the registry lifecycle and reuses it across
// invocations.
type RegressorRegistry interface {
	Regressor(stat models.StatType) (Regressor, bool)
}

// EstimatePair carries the two independent estimates feeding the blender.
// WA is always computable; ML is nil when the regression capability is
// unavailable, history is insufficient, or the capability failed.
type EstimatePair struct {
	ML *float64 `json:"ml_estimate,omitempty"`
	WA float64  `json:"wa_estimate"`
}

// regressionEstimate invokes the fitted regressor for the stat, degrading to
// an absent estimate on every fallback trigger: no dedicated model for the
// stat, insufficient history, a registry miss, or the capability erroring or
// panicking. A model failure never fails the prediction.
func (e *Engine) regressionEstimate(stat models.StatType, features []float64, gamesAvailable int) (estimate *float64) {
	if !stat.HasDedicatedModel() || gamesAvailable < e.minHistory {
		return nil
	}
	if e.registry == nil {
		return nil
	}
	regressor, ok := e.registry.Regressor(stat)
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(logrus.Fields{
				"stat":  stat,
				"panic": r,
			}).Warn("Regression capability panicked, falling back to weighted average")
			estimate = nil
		}
	}()

	value, err := regressor.Predict(features)
	if err != nil {
		e.logger.WithError(err).WithField("stat", stat).Warn("Regression prediction failed, falling back to weighted average")
		return nil
	}
	return &value
}
