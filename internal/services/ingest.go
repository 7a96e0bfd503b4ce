package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/internal/providers"
	"github.com/courtedge/prop-engine/internal/storage"
)

const (
	// Trailing window for derived team aggregates.
	teamContextLookbackDays = 30

	defaultDefensiveRating = 110.0
	defaultPace            = 100.0
	// League-average points scored per team per game, used until a team has
	// stored history to derive points allowed from.
	defaultPointsAllowed = 112.0
)

// IngestService pulls completed box scores into game records and refreshes
// per-team context snapshots.
type IngestService struct {
	statsClient *providers.BallDontLieClient
	breaker     *CircuitBreakerService
	games       *storage.GameRecordRepository
	teams       *storage.TeamContextRepository
	logger      *logrus.Logger
}

func NewIngestService(
	statsClient *providers.BallDontLieClient,
	breaker *CircuitBreakerService,
	games *storage.GameRecordRepository,
	teams *storage.TeamContextRepository,
	logger *logrus.Logger,
) *IngestService {
	return &IngestService{
		statsClient: statsClient,
		breaker:     breaker,
		games:       games,
		teams:       teams,
		logger:      logger,
	}
}

// IngestSummary reports what one ingest run wrote.
type IngestSummary struct {
	Date           string `json:"date"`
	GamesFound     int    `json:"games_found"`
	GamesCompleted int    `json:"games_completed"`
	RecordsWritten int    `json:"records_written"`
	TeamSnapshots  int    `json:"team_snapshots"`
}

// IngestDate fetches the slate for a date, stores box scores for every
// completed game, and refreshes team context for every team that played.
func (s *IngestService) IngestDate(ctx context.Context, date time.Time) (*IngestSummary, error) {
	dateStr := date.Format("2006-01-02")
	log := s.logger.WithField("date", dateStr)

	games, err := s.fetchGames(ctx, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slate for %s: %w", dateStr, err)
	}

	summary := &IngestSummary{Date: dateStr, GamesFound: len(games)}
	teamIDs := make(map[int]string)

	var records []models.GameRecord
	for _, game := range games {
		if !isFinal(game.Status) {
			continue
		}
		summary.GamesCompleted++
		teamIDs[game.HomeTeam.ID] = game.HomeTeam.Abbreviation
		teamIDs[game.VisitorTeam.ID] = game.VisitorTeam.Abbreviation

		gameRecords, err := s.fetchBoxScores(ctx, game, date)
		if err != nil {
			log.WithError(err).WithField("game_id", game.ID).Warn("Skipping game, box scores unavailable")
			continue
		}
		records = append(records, gameRecords...)
	}

	if err := s.games.UpsertBatch(ctx, records); err != nil {
		return nil, err
	}
	summary.RecordsWritten = len(records)

	snapshots, err := s.refreshTeamContext(ctx, date, teamIDs)
	if err != nil {
		log.WithError(err).Warn("Team context refresh incomplete")
	}
	summary.TeamSnapshots = snapshots

	log.WithFields(logrus.Fields{
		"games_found":     summary.GamesFound,
		"games_completed": summary.GamesCompleted,
		"records_written": summary.RecordsWritten,
		"team_snapshots":  summary.TeamSnapshots,
	}).Info("Ingest run completed")
	return summary, nil
}

func (s *IngestService) fetchGames(ctx context.Context, date string) ([]providers.Game, error) {
	result, err := s.breaker.Execute("balldontlie", func() (interface{}, error) {
		return s.statsClient.GetGames(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	return result.([]providers.Game), nil
}

// fetchBoxScores joins traditional and advanced stat lines for one game into
// game records. Advanced metrics are best-effort and default to zero.
func (s *IngestService) fetchBoxScores(ctx context.Context, game providers.Game, date time.Time) ([]models.GameRecord, error) {
	result, err := s.breaker.Execute("balldontlie", func() (interface{}, error) {
		return s.statsClient.GetGameStats(ctx, game.ID)
	})
	if err != nil {
		return nil, err
	}
	lines := result.([]providers.PlayerStatLine)

	advanced := make(map[int]providers.AdvancedStatLine)
	advLines, err := s.statsClient.GetAdvancedStats(ctx, game.ID)
	if err == nil {
		for _, line := range advLines {
			advanced[line.Player.ID] = line
		}
	}

	records := make([]models.GameRecord, 0, len(lines))
	for _, line := range lines {
		minutes := providers.ParseMinutes(line.Min)
		if minutes <= 0 {
			continue // DNP
		}

		isHome := line.Team.ID == line.Game.HomeTeamID
		opponentID := line.Game.HomeTeamID
		if isHome {
			opponentID = line.Game.VisitorTeamID
		}

		record := models.GameRecord{
			AthleteID:      strconv.Itoa(line.Player.ID),
			AthleteName:    strings.TrimSpace(line.Player.FirstName + " " + line.Player.LastName),
			TeamAbbr:       line.Team.Abbreviation,
			Date:           date,
			GameID:         strconv.Itoa(game.ID),
			Minutes:        minutes,
			Points:         line.Pts,
			Rebounds:       line.Reb,
			Assists:        line.Ast,
			ThreesMade:     line.Fg3m,
			FieldGoalsMade: line.Fgm,
			FieldGoalsAtt:  line.Fga,
			IsHome:         isHome,
			OpponentID:     strconv.Itoa(opponentID),
		}
		if adv, ok := advanced[line.Player.ID]; ok {
			record.UsageRate = adv.UsagePercentage
			record.TrueShootingPct = adv.TrueShootingPercentage
		}
		records = append(records, record)
	}
	return records, nil
}

// refreshTeamContext writes one snapshot per team that played: points allowed
// derived from stored logs, pace and defensive rating from league defaults
// when the advanced feed has nothing newer, injury counts from the current
// report.
func (s *IngestService) refreshTeamContext(ctx context.Context, date time.Time, teamIDs map[int]string) (int, error) {
	injuryCounts := s.fetchInjuryCounts(ctx)
	since := date.AddDate(0, 0, -teamContextLookbackDays)

	written := 0
	var firstErr error
	for teamID := range teamIDs {
		idStr := strconv.Itoa(teamID)
		ptsAllowed, sampled, err := s.games.PointsAllowedPerGame(ctx, idStr, since)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		snapshot := &models.TeamContext{
			TeamID:            idStr,
			Date:              date,
			DefensiveRating:   defaultDefensiveRating,
			Pace:              defaultPace,
			PointsAllowedAvg:  pointsAllowedOrBaseline(ptsAllowed, sampled),
			ActiveInjuryCount: injuryCounts[teamID],
		}
		if err := s.teams.Upsert(ctx, snapshot); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written++
	}
	return written, firstErr
}

func (s *IngestService) fetchInjuryCounts(ctx context.Context) map[int]int {
	counts := make(map[int]int)
	injuries, err := s.statsClient.GetInjuries(ctx)
	if err != nil || injuries == nil {
		return counts
	}
	for _, injury := range injuries {
		if strings.EqualFold(injury.Status, "Day-To-Day") {
			continue // probable to play
		}
		counts[injury.Player.TeamID]++
	}
	return counts
}

// pointsAllowedOrBaseline returns the derived points-allowed average, or the
// league-average scoring baseline when no games have been sampled yet.
func pointsAllowedOrBaseline(avg float64, sampled int) float64 {
	if sampled == 0 {
		return defaultPointsAllowed
	}
	return avg
}

func isFinal(status string) bool {
	return strings.EqualFold(status, "Final")
}
