package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/pkg/database"
)

// TeamContextRepository persists per-team defensive snapshots. Snapshots are
// superseded by later ones, never mutated.
type TeamContextRepository struct {
	db *database.DB
}

func NewTeamContextRepository(db *database.DB) *TeamContextRepository {
	return &TeamContextRepository{db: db}
}

// Upsert writes a snapshot for (team, date), replacing a same-day snapshot
// produced by an earlier run.
func (r *TeamContextRepository) Upsert(ctx context.Context, snapshot *models.TeamContext) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "team_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"defensive_rating", "pace", "points_allowed_avg", "active_injury_count",
			}),
		}).
		Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to upsert team context: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for the team on or before asOf, or
// nil when none exists - the engine treats nil as neutral defaults.
func (r *TeamContextRepository) Latest(ctx context.Context, teamID string, asOf time.Time) (*models.TeamContext, error) {
	var snapshot models.TeamContext
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND date <= ?", teamID, asOf).
		Order("date DESC").
		First(&snapshot).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load team context: %w", err)
	}
	return &snapshot, nil
}
