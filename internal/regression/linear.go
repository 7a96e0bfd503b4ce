// Package regression hosts the fitted per-stat regressors the engine
// consumes as opaque predict capabilities. Models are fitted out of band by
// the weekly training job and published as versioned JSON coefficient files;
// this package only loads and evaluates them.
package regression

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/engine"
	"github.com/courtedge/prop-engine/internal/models"
)

// LinearModel is a fitted linear regressor over the engine's fixed feature
// vector: prediction = intercept + weights . features.
type LinearModel struct {
	Stat      models.StatType `json:"stat"`
	Version   string          `json:"version"`
	TrainedAt string          `json:"trained_at"`
	Intercept float64         `json:"intercept"`
	Weights   []float64       `json:"weights"`
}

// Predict evaluates the model on a feature vector.
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("feature vector has %d dimensions, model %s expects %d",
			len(features), m.Stat, len(m.Weights))
	}
	prediction := m.Intercept
	for i, w := range m.Weights {
		prediction += w * features[i]
	}
	return prediction, nil
}

// Registry maps stats to their fitted regressors. Construct once at startup
// and share across invocations; it is read-only afterwards.
type Registry struct {
	regressors map[models.StatType]engine.Regressor
}

// NewRegistry builds a registry from pre-loaded regressors.
func NewRegistry(regressors map[models.StatType]engine.Regressor) *Registry {
	if regressors == nil {
		regressors = make(map[models.StatType]engine.Regressor)
	}
	return &Registry{regressors: regressors}
}

// Regressor returns the fitted model for a stat, or false when none is
// available - the engine treats that as its documented fallback trigger.
func (r *Registry) Regressor(stat models.StatType) (engine.Regressor, bool) {
	reg, ok := r.regressors[stat]
	return reg, ok
}

// Len reports how many stats have a loadable model.
func (r *Registry) Len() int {
	return len(r.regressors)
}

// LoadRegistry reads <stat>_model.json files for every stat that can have a
// dedicated model. Missing or unreadable files are logged and skipped, not
// fatal: the engine degrades to its weighted-average estimate for those
// stats.
func LoadRegistry(dir string, logger *logrus.Logger) *Registry {
	regressors := make(map[models.StatType]engine.Regressor)

	for _, stat := range models.ModelStats {
		path := filepath.Join(dir, fmt.Sprintf("%s_model.json", stat))
		model, err := loadModel(path, stat)
		if err != nil {
			logger.WithError(err).WithField("stat", stat).Warn("Could not load regression model")
			continue
		}
		regressors[stat] = model
		logger.WithFields(logrus.Fields{
			"stat":    stat,
			"version": model.Version,
		}).Info("Loaded regression model")
	}

	logger.WithField("count", len(regressors)).Info("Regression model registry ready")
	return NewRegistry(regressors)
}

func loadModel(path string, stat models.StatType) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var model LinearModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}
	if model.Stat == "" {
		model.Stat = stat
	}
	if len(model.Weights) != engine.FeatureVectorSize {
		return nil, fmt.Errorf("model %s has %d weights, expected %d",
			model.Stat, len(model.Weights), engine.FeatureVectorSize)
	}
	return &model, nil
}
