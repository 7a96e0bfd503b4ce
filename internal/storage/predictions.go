package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/pkg/database"
)

// PredictionRepository persists engine output and serves the read API.
type PredictionRepository struct {
	db *database.DB
}

func NewPredictionRepository(db *database.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// CreateBatch stores one run's prediction records.
func (r *PredictionRepository) CreateBatch(ctx context.Context, records []models.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(records, 200).Error; err != nil {
		return fmt.Errorf("failed to store predictions: %w", err)
	}
	return nil
}

// ForDate returns all predictions produced for a date, highest confidence
// first.
func (r *PredictionRepository) ForDate(ctx context.Context, date time.Time) ([]models.PredictionRecord, error) {
	var records []models.PredictionRecord
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", startOfDay(date), startOfDay(date).AddDate(0, 0, 1)).
		Order("confidence DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}
	return records, nil
}

// ActionableForDate returns the non-HOLD predictions with market lines for a
// date - the set worth verifying or notifying about.
func (r *PredictionRepository) ActionableForDate(ctx context.Context, date time.Time) ([]models.PredictionRecord, error) {
	var records []models.PredictionRecord
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", startOfDay(date), startOfDay(date).AddDate(0, 0, 1)).
		Where("market_line IS NOT NULL").
		Where("recommendation <> ?", models.RecommendationHold).
		Order("confidence DESC, abs(edge_pct) DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load actionable predictions: %w", err)
	}
	return records, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
