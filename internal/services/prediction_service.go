package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/engine"
	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/internal/providers"
	"github.com/courtedge/prop-engine/internal/storage"
)

const (
	// Trailing window that defines a team's active roster.
	rosterLookbackDays = 14
	// Game log depth loaded per athlete; the engine's longest window is 20.
	gameLogDepth = 50
	// Concurrent athlete fan-out bound.
	predictWorkers = 8
)

// PredictionService runs the daily batch: slate -> rosters -> game logs ->
// engine predictions -> persistence.
type PredictionService struct {
	engine       *engine.Engine
	statsClient  *providers.BallDontLieClient
	oddsClient   *providers.OddsAPIClient
	breaker      *CircuitBreakerService
	games        *storage.GameRecordRepository
	teams        *storage.TeamContextRepository
	predictions  *storage.PredictionRepository
	cache        *CacheService
	trackedStats []models.StatType
	logger       *logrus.Logger
}

func NewPredictionService(
	predictionEngine *engine.Engine,
	statsClient *providers.BallDontLieClient,
	oddsClient *providers.OddsAPIClient,
	breaker *CircuitBreakerService,
	games *storage.GameRecordRepository,
	teams *storage.TeamContextRepository,
	predictions *storage.PredictionRepository,
	cache *CacheService,
	trackedStats []models.StatType,
	logger *logrus.Logger,
) *PredictionService {
	if len(trackedStats) == 0 {
		trackedStats = models.TrackedStats
	}
	return &PredictionService{
		engine:       predictionEngine,
		statsClient:  statsClient,
		oddsClient:   oddsClient,
		breaker:      breaker,
		games:        games,
		teams:        teams,
		predictions:  predictions,
		cache:        cache,
		trackedStats: trackedStats,
		logger:       logger,
	}
}

// RunSummary reports what one prediction run produced.
type RunSummary struct {
	RunID       uuid.UUID `json:"run_id"`
	Date        string    `json:"date"`
	Games       int       `json:"games"`
	Athletes    int       `json:"athletes"`
	Predictions int       `json:"predictions"`
	WithLines   int       `json:"with_lines"`
	MLUsed      int       `json:"ml_used"`
	WAOnly      int       `json:"wa_only"`
	Over        int       `json:"over"`
	Under       int       `json:"under"`
	Hold        int       `json:"hold"`
}

// slateEntry is one athlete expected to play, with game context attached.
type slateEntry struct {
	athleteID    string
	athleteName  string
	teamAbbr     string
	teamID       string
	opponentID   string
	opponentAbbr string
	isHome       bool
}

// RunDaily produces predictions for every tracked stat for every athlete on
// the date's slate and persists them under a single run ID.
func (s *PredictionService) RunDaily(ctx context.Context, date time.Time) (*RunSummary, error) {
	runID := uuid.New()
	dateStr := date.Format("2006-01-02")
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "date": dateStr})

	games, err := s.fetchSlate(ctx, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slate for %s: %w", dateStr, err)
	}
	if len(games) == 0 {
		log.Info("No games scheduled, skipping prediction run")
		return &RunSummary{RunID: runID, Date: dateStr}, nil
	}

	lines := s.fetchLines(ctx, dateStr)

	slate, err := s.buildSlate(ctx, games, date)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"games":    len(games),
		"athletes": len(slate),
	}).Info("Slate assembled, running engine")

	records := s.predictSlate(ctx, runID, date, slate, lines)

	if err := s.predictions.CreateBatch(ctx, records); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPredictions(dateStr, records); err != nil {
			log.WithError(err).Warn("Failed to cache prediction slate")
		}
	}

	summary := summarizeRun(runID, dateStr, len(games), len(slate), records)
	log.WithFields(logrus.Fields{
		"predictions": summary.Predictions,
		"with_lines":  summary.WithLines,
		"ml_used":     summary.MLUsed,
		"wa_only":     summary.WAOnly,
		"over":        summary.Over,
		"under":       summary.Under,
		"hold":        summary.Hold,
	}).Info("Prediction run completed")
	return summary, nil
}

func (s *PredictionService) fetchSlate(ctx context.Context, date string) ([]providers.Game, error) {
	result, err := s.breaker.Execute("balldontlie", func() (interface{}, error) {
		return s.statsClient.GetGames(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	return result.([]providers.Game), nil
}

// fetchLines pulls sportsbook lines, preferring the short-TTL cache. A line
// outage degrades every prediction to HOLD rather than failing the run.
func (s *PredictionService) fetchLines(ctx context.Context, date string) providers.PropLines {
	if s.cache != nil {
		var cached providers.PropLines
		if err := s.cache.GetPropLines(date, &cached); err == nil && len(cached) > 0 {
			return cached
		}
	}

	result, err := s.breaker.Execute("oddsapi", func() (interface{}, error) {
		return s.oddsClient.FetchPropLines(ctx)
	})
	if err != nil {
		s.logger.WithError(err).Warn("Prop lines unavailable, predictions will score as HOLD")
		return providers.PropLines{}
	}
	lines := result.(providers.PropLines)

	if s.cache != nil && len(lines) > 0 {
		if err := s.cache.SetPropLines(date, lines); err != nil {
			s.logger.WithError(err).Warn("Failed to cache prop lines")
		}
	}
	return lines
}

func (s *PredictionService) buildSlate(ctx context.Context, games []providers.Game, date time.Time) ([]slateEntry, error) {
	since := date.AddDate(0, 0, -rosterLookbackDays)
	seen := make(map[string]bool)
	var slate []slateEntry

	for _, game := range games {
		sides := []struct {
			team     providers.Team
			opponent providers.Team
			isHome   bool
		}{
			{game.HomeTeam, game.VisitorTeam, true},
			{game.VisitorTeam, game.HomeTeam, false},
		}
		for _, side := range sides {
			roster, err := s.games.RecentRoster(ctx, side.team.Abbreviation, since)
			if err != nil {
				return nil, fmt.Errorf("failed to load roster for %s: %w", side.team.Abbreviation, err)
			}
			for _, entry := range roster {
				if seen[entry.AthleteID] {
					continue
				}
				seen[entry.AthleteID] = true
				slate = append(slate, slateEntry{
					athleteID:    entry.AthleteID,
					athleteName:  entry.AthleteName,
					teamAbbr:     side.team.Abbreviation,
					teamID:       strconv.Itoa(side.team.ID),
					opponentID:   strconv.Itoa(side.opponent.ID),
					opponentAbbr: side.opponent.Abbreviation,
					isHome:       side.isHome,
				})
			}
		}
	}
	return slate, nil
}

// predictSlate fans athletes out across a bounded worker pool. The engine is
// stateless, so invocations run concurrently without locking.
func (s *PredictionService) predictSlate(ctx context.Context, runID uuid.UUID, date time.Time, slate []slateEntry, lines providers.PropLines) []models.PredictionRecord {
	var (
		mu      sync.Mutex
		records []models.PredictionRecord
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, predictWorkers)

	for _, entry := range slate {
		wg.Add(1)
		sem <- struct{}{}
		go func(entry slateEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			athleteRecords, err := s.predictAthlete(ctx, runID, date, entry, lines)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"run_id":     runID,
					"athlete_id": entry.athleteID,
				}).Warn("Skipping athlete")
				return
			}
			mu.Lock()
			records = append(records, athleteRecords...)
			mu.Unlock()
		}(entry)
	}
	wg.Wait()
	return records
}

func (s *PredictionService) predictAthlete(ctx context.Context, runID uuid.UUID, date time.Time, entry slateEntry, lines providers.PropLines) ([]models.PredictionRecord, error) {
	gameLog, err := s.games.LogForAthlete(ctx, entry.athleteID, date, gameLogDepth)
	if err != nil {
		return nil, err
	}
	if len(gameLog) == 0 {
		return nil, nil
	}

	opponent, err := s.teams.Latest(ctx, entry.opponentID, date)
	if err != nil {
		return nil, err
	}
	injuryCount := 0
	if own, err := s.teams.Latest(ctx, entry.teamID, date); err == nil && own != nil {
		injuryCount = own.ActiveInjuryCount
	}

	athleteLines := lines.MatchLines(entry.athleteName)
	matchup := matchupLabel(entry)

	records := make([]models.PredictionRecord, 0, len(s.trackedStats))
	for _, stat := range s.trackedStats {
		var marketLine *float64
		if line, ok := athleteLines[stat]; ok && line > 0 {
			value := line
			marketLine = &value
		}

		result := s.engine.Predict(engine.Input{
			AthleteID:       entry.athleteID,
			Stat:            stat,
			AsOfDate:        date,
			GameLog:         gameLog,
			IsHome:          entry.isHome,
			Opponent:        opponent,
			TeamInjuryCount: injuryCount,
			MarketLine:      marketLine,
		})

		records = append(records, models.PredictionRecord{
			RunID:           runID,
			AthleteID:       entry.athleteID,
			AthleteName:     entry.athleteName,
			TeamAbbr:        entry.teamAbbr,
			Stat:            stat,
			StatLabel:       stat.Label(),
			Date:            date,
			Matchup:         matchup,
			OpponentAbbr:    entry.opponentAbbr,
			IsHome:          entry.isHome,
			BlendedEstimate: result.BlendedEstimate,
			WAEstimate:      result.Estimates.WA,
			MLEstimate:      result.Estimates.ML,
			MarketLine:      result.MarketLine,
			EdgePct:         result.EdgePct,
			Recommendation:  result.Recommendation,
			Confidence:      result.Confidence,
			ConfidenceTier:  result.ConfidenceTier,
			ExcludedRecords: result.Diagnostics.ExcludedRecords,
		})
	}
	return records, nil
}

func summarizeRun(runID uuid.UUID, date string, games, athletes int, records []models.PredictionRecord) *RunSummary {
	summary := &RunSummary{
		RunID:       runID,
		Date:        date,
		Games:       games,
		Athletes:    athletes,
		Predictions: len(records),
	}
	for _, record := range records {
		if record.MarketLine != nil {
			summary.WithLines++
		}
		if record.MLEstimate != nil {
			summary.MLUsed++
		} else {
			summary.WAOnly++
		}
		switch record.Recommendation {
		case models.RecommendationOver:
			summary.Over++
		case models.RecommendationUnder:
			summary.Under++
		default:
			summary.Hold++
		}
	}
	return summary
}

func matchupLabel(entry slateEntry) string {
	if entry.isHome {
		return fmt.Sprintf("%s vs %s", entry.teamAbbr, entry.opponentAbbr)
	}
	return fmt.Sprintf("%s @ %s", entry.teamAbbr, entry.opponentAbbr)
}
