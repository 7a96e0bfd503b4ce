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

// GameRecordRepository persists and reads athlete game logs.
type GameRecordRepository struct {
	db *database.DB
}

func NewGameRecordRepository(db *database.DB) *GameRecordRepository {
	return &GameRecordRepository{db: db}
}

// UpsertBatch inserts game records, ignoring rows that already exist for the
// same (athlete, date). Game logs are immutable once written.
func (r *GameRecordRepository) UpsertBatch(ctx context.Context, records []models.GameRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "athlete_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		CreateInBatches(records, 200).Error
	if err != nil {
		return fmt.Errorf("failed to upsert game records: %w", err)
	}
	return nil
}

// LogForAthlete returns up to limit games played on or before asOf,
// chronological with the most recent last - the order the engine expects.
func (r *GameRecordRepository) LogForAthlete(ctx context.Context, athleteID string, asOf time.Time, limit int) ([]models.GameRecord, error) {
	var records []models.GameRecord
	err := r.db.WithContext(ctx).
		Where("athlete_id = ? AND date <= ?", athleteID, asOf).
		Order("date DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load game log: %w", err)
	}

	// Reverse the newest-first query order to chronological.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// ActualForDate returns the game an athlete actually played on a date, if any.
func (r *GameRecordRepository) ActualForDate(ctx context.Context, athleteID string, date time.Time) (*models.GameRecord, error) {
	var record models.GameRecord
	err := r.db.WithContext(ctx).
		Where("athlete_id = ? AND date >= ? AND date < ?", athleteID, date, date.AddDate(0, 0, 1)).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load actual stats: %w", err)
	}
	return &record, nil
}

// RosterEntry identifies an athlete seen on a team's recent game logs.
type RosterEntry struct {
	AthleteID   string
	AthleteName string
	TeamAbbr    string
}

// RecentRoster returns the distinct athletes who logged a game for the team
// within the trailing window - the working definition of an active roster.
func (r *GameRecordRepository) RecentRoster(ctx context.Context, teamAbbr string, since time.Time) ([]RosterEntry, error) {
	var entries []RosterEntry
	err := r.db.WithContext(ctx).
		Model(&models.GameRecord{}).
		Select("DISTINCT athlete_id, athlete_name, team_abbr").
		Where("team_abbr = ? AND date >= ?", teamAbbr, since).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent roster: %w", err)
	}
	return entries, nil
}

// PointsAllowedPerGame averages the points scored against a team per game
// date over the trailing window, derived from opposing athletes' records.
func (r *GameRecordRepository) PointsAllowedPerGame(ctx context.Context, teamID string, since time.Time) (float64, int, error) {
	type row struct {
		Date   time.Time
		Points float64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.GameRecord{}).
		Select("date, SUM(points) AS points").
		Where("opponent_id = ? AND date >= ?", teamID, since).
		Group("date").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute points allowed: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	total := 0.0
	for _, r := range rows {
		total += r.Points
	}
	return total / float64(len(rows)), len(rows), nil
}
