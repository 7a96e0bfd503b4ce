package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatType identifies a tracked statistical category using the short keys the
// upstream box-score feed reports.
type StatType string

const (
	StatPoints   StatType = "pts"
	StatRebounds StatType = "reb"
	StatAssists  StatType = "ast"
	StatThrees   StatType = "fg3m"
	StatPRA      StatType = "pra"
)

// TrackedStats are the categories predictions are produced for. StatPRA is a
// composite (points+rebounds+assists) and never has a dedicated regressor.
var TrackedStats = []StatType{StatPoints, StatRebounds, StatAssists, StatThrees, StatPRA}

// ModelStats are the categories a dedicated regression model may exist for.
var ModelStats = []StatType{StatPoints, StatRebounds, StatAssists, StatThrees}

// ParseStatTypes converts configured stat keys into StatTypes, rejecting
// unknown keys. An empty list means all tracked stats.
func ParseStatTypes(keys []string) ([]StatType, error) {
	if len(keys) == 0 {
		return TrackedStats, nil
	}
	stats := make([]StatType, 0, len(keys))
	for _, key := range keys {
		stat := StatType(strings.ToLower(strings.TrimSpace(key)))
		switch stat {
		case StatPoints, StatRebounds, StatAssists, StatThrees, StatPRA:
			stats = append(stats, stat)
		default:
			return nil, fmt.Errorf("unknown stat %q", key)
		}
	}
	return stats, nil
}

// HasDedicatedModel reports whether a per-stat regressor can exist for the stat.
func (s StatType) HasDedicatedModel() bool {
	for _, m := range ModelStats {
		if s == m {
			return true
		}
	}
	return false
}

// Label returns the human-readable market label for the stat.
func (s StatType) Label() string {
	switch s {
	case StatPoints:
		return "Points"
	case StatRebounds:
		return "Rebounds"
	case StatAssists:
		return "Assists"
	case StatThrees:
		return "3-Pointers Made"
	case StatPRA:
		return "Pts+Reb+Ast"
	default:
		return string(s)
	}
}

// Recommendation values emitted by the scorer.
const (
	RecommendationOver  = "OVER"
	RecommendationUnder = "UNDER"
	RecommendationHold  = "HOLD"
)

// Confidence tiers derived from the 0-100 confidence score.
const (
	TierHigh   = "HIGH"
	TierMedium = "MEDIUM"
	TierLow    = "LOW"
)

// GameRecord is one completed game's observed stats for one athlete.
// Rows are immutable once written; (athlete_id, date) is unique.
type GameRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AthleteID       string    `gorm:"not null;uniqueIndex:idx_athlete_date" json:"athlete_id"`
	AthleteName     string    `json:"athlete_name"`
	TeamAbbr        string    `gorm:"index" json:"team_abbr"`
	Date            time.Time `gorm:"not null;uniqueIndex:idx_athlete_date;index" json:"date"`
	GameID          string    `json:"game_id"`
	Minutes         float64   `json:"minutes"`
	Points          float64   `json:"pts"`
	Rebounds        float64   `json:"reb"`
	Assists         float64   `json:"ast"`
	ThreesMade      float64   `json:"fg3m"`
	FieldGoalsMade  float64   `json:"fgm"`
	FieldGoalsAtt   float64   `json:"fga"`
	UsageRate       float64   `json:"usage_pct"`
	TrueShootingPct float64   `json:"true_shooting_pct"`
	IsHome          bool      `json:"is_home"`
	OpponentID      string    `json:"opponent_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// StatValue returns the observed value of a tracked stat for this game.
// StatPRA is computed from its components.
func (g *GameRecord) StatValue(stat StatType) float64 {
	switch stat {
	case StatPoints:
		return g.Points
	case StatRebounds:
		return g.Rebounds
	case StatAssists:
		return g.Assists
	case StatThrees:
		return g.ThreesMade
	case StatPRA:
		return g.Points + g.Rebounds + g.Assists
	default:
		return 0
	}
}

// TeamContext is a per-opponent aggregate snapshot as of a given date.
// Later snapshots supersede earlier ones; rows are never mutated.
type TeamContext struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TeamID            string    `gorm:"not null;uniqueIndex:idx_team_date" json:"team_id"`
	Date              time.Time `gorm:"not null;uniqueIndex:idx_team_date" json:"date"`
	DefensiveRating   float64   `json:"def_rating"`
	Pace              float64   `json:"pace"`
	PointsAllowedAvg  float64   `json:"pts_allowed_avg"`
	ActiveInjuryCount int       `json:"active_injury_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// PredictionRecord is the persisted form of one engine prediction.
// Created once per (athlete, stat, date) run and immutable afterwards.
type PredictionRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RunID           uuid.UUID `gorm:"type:uuid;index" json:"run_id"`
	AthleteID       string    `gorm:"not null;index" json:"athlete_id"`
	AthleteName     string    `json:"athlete_name"`
	TeamAbbr        string    `json:"team_abbr"`
	Stat            StatType  `gorm:"not null" json:"stat"`
	StatLabel       string    `json:"stat_label"`
	Date            time.Time `gorm:"not null;index" json:"date"`
	Matchup         string    `json:"matchup"`
	OpponentAbbr    string    `json:"opponent"`
	IsHome          bool      `json:"is_home"`
	BlendedEstimate float64   `json:"prediction"`
	WAEstimate      float64   `json:"wa_prediction"`
	MLEstimate      *float64  `json:"ml_prediction,omitempty"`
	MarketLine      *float64  `json:"line,omitempty"`
	EdgePct         float64   `json:"edge_pct"`
	Recommendation  string    `json:"recommendation"`
	Confidence      float64   `json:"confidence_score"`
	ConfidenceTier  string    `json:"confidence_tier"`
	ExcludedRecords int       `json:"excluded_records,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// VerifiedResult records the graded outcome of a prior prediction against
// the actual box score.
type VerifiedResult struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Date           time.Time `gorm:"not null;index" json:"date"`
	AthleteID      string    `gorm:"not null" json:"athlete_id"`
	AthleteName    string    `json:"athlete_name"`
	TeamAbbr       string    `json:"team_abbr"`
	Stat           StatType  `gorm:"not null" json:"stat"`
	Matchup        string    `json:"matchup"`
	Recommendation string    `json:"recommendation"`
	Line           float64   `json:"line"`
	PredictedValue float64   `json:"predicted_value"`
	ActualValue    float64   `json:"actual_value"`
	ActualResult   string    `json:"actual_result"` // OVER, UNDER, or PUSH
	Correct        *bool     `json:"correct"`       // nil on a push
	Difference     float64   `json:"difference"`
	Confidence     float64   `json:"confidence_score"`
	ConfidenceTier string    `json:"confidence_tier"`
	EdgePct        float64   `json:"edge_pct"`
	CreatedAt      time.Time `json:"created_at"`
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
