package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/pkg/database"
)

// ResultRepository persists graded predictions and accuracy rollups.
type ResultRepository struct {
	db *database.DB
}

func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// CreateBatch stores one verification run's graded results.
func (r *ResultRepository) CreateBatch(ctx context.Context, results []models.VerifiedResult) error {
	if len(results) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(results, 200).Error; err != nil {
		return fmt.Errorf("failed to store verified results: %w", err)
	}
	return nil
}

// ForDate returns the graded results for one date.
func (r *ResultRepository) ForDate(ctx context.Context, date time.Time) ([]models.VerifiedResult, error) {
	var results []models.VerifiedResult
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", startOfDay(date), startOfDay(date).AddDate(0, 0, 1)).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load verified results: %w", err)
	}
	return results, nil
}

// AccuracySummary aggregates graded predictions over a trailing window.
type AccuracySummary struct {
	Days        int     `json:"days"`
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Pushes      int     `json:"pushes"`
	AccuracyPct float64 `json:"accuracy_pct"`
}

// Accuracy computes hit rate over the trailing `days` window ending at asOf.
// Pushes are excluded from the denominator.
func (r *ResultRepository) Accuracy(ctx context.Context, asOf time.Time, days int) (*AccuracySummary, error) {
	var results []models.VerifiedResult
	since := startOfDay(asOf).AddDate(0, 0, -days)
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", since, startOfDay(asOf).AddDate(0, 0, 1)).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load results for accuracy: %w", err)
	}

	summary := &AccuracySummary{Days: days}
	for _, res := range results {
		if res.Correct == nil {
			summary.Pushes++
			continue
		}
		summary.Total++
		if *res.Correct {
			summary.Correct++
		} else {
			summary.Incorrect++
		}
	}
	if summary.Total > 0 {
		summary.AccuracyPct = float64(summary.Correct) / float64(summary.Total) * 100
	}
	return summary, nil
}
