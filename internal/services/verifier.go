package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/internal/storage"
)

// VerifierService grades prior actionable predictions against observed box
// scores.
type VerifierService struct {
	games       *storage.GameRecordRepository
	predictions *storage.PredictionRepository
	results     *storage.ResultRepository
	cache       *CacheService
	logger      *logrus.Logger
}

func NewVerifierService(
	games *storage.GameRecordRepository,
	predictions *storage.PredictionRepository,
	results *storage.ResultRepository,
	cache *CacheService,
	logger *logrus.Logger,
) *VerifierService {
	return &VerifierService{
		games:       games,
		predictions: predictions,
		results:     results,
		cache:       cache,
		logger:      logger,
	}
}

// VerifySummary reports what one verification run graded.
type VerifySummary struct {
	Date       string  `json:"date"`
	Actionable int     `json:"actionable"`
	Graded     int     `json:"graded"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Pushes     int     `json:"pushes"`
	NoGame     int     `json:"no_game"`
	HitRatePct float64 `json:"hit_rate_pct"`
}

// VerifyDate grades every actionable prediction for a date against what the
// athlete actually did. Predictions for athletes who did not play are left
// ungraded.
func (s *VerifierService) VerifyDate(ctx context.Context, date time.Time) (*VerifySummary, error) {
	dateStr := date.Format("2006-01-02")
	log := s.logger.WithField("date", dateStr)

	actionable, err := s.predictions.ActionableForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions to verify: %w", err)
	}

	summary := &VerifySummary{Date: dateStr, Actionable: len(actionable)}
	var graded []models.VerifiedResult

	for _, prediction := range actionable {
		actual, err := s.games.ActualForDate(ctx, prediction.AthleteID, date)
		if err != nil {
			return nil, err
		}
		if actual == nil {
			summary.NoGame++
			continue
		}

		result := gradePrediction(prediction, actual)
		graded = append(graded, result)

		switch {
		case result.Correct == nil:
			summary.Pushes++
		case *result.Correct:
			summary.Correct++
		default:
			summary.Incorrect++
		}
	}

	if err := s.results.CreateBatch(ctx, graded); err != nil {
		return nil, err
	}
	summary.Graded = len(graded)
	if decided := summary.Correct + summary.Incorrect; decided > 0 {
		summary.HitRatePct = float64(summary.Correct) / float64(decided) * 100
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAccuracy(); err != nil {
			log.WithError(err).Warn("Failed to invalidate accuracy cache")
		}
	}

	log.WithFields(logrus.Fields{
		"actionable":   summary.Actionable,
		"graded":       summary.Graded,
		"correct":      summary.Correct,
		"incorrect":    summary.Incorrect,
		"pushes":       summary.Pushes,
		"no_game":      summary.NoGame,
		"hit_rate_pct": summary.HitRatePct,
	}).Info("Verification run completed")
	return summary, nil
}

// gradePrediction compares one prediction to the observed stat value. An
// actual exactly on the line is a push and counts neither way.
func gradePrediction(prediction models.PredictionRecord, actual *models.GameRecord) models.VerifiedResult {
	line := *prediction.MarketLine
	actualValue := actual.StatValue(prediction.Stat)

	actualResult := models.RecommendationUnder
	if actualValue > line {
		actualResult = models.RecommendationOver
	}

	var correct *bool
	if actualValue == line {
		actualResult = "PUSH"
	} else {
		hit := prediction.Recommendation == actualResult
		correct = &hit
	}

	return models.VerifiedResult{
		Date:           prediction.Date,
		AthleteID:      prediction.AthleteID,
		AthleteName:    prediction.AthleteName,
		TeamAbbr:       prediction.TeamAbbr,
		Stat:           prediction.Stat,
		Matchup:        prediction.Matchup,
		Recommendation: prediction.Recommendation,
		Line:           line,
		PredictedValue: prediction.BlendedEstimate,
		ActualValue:    actualValue,
		ActualResult:   actualResult,
		Correct:        correct,
		Difference:     prediction.BlendedEstimate - actualValue,
		Confidence:     prediction.Confidence,
		ConfidenceTier: prediction.ConfidenceTier,
		EdgePct:        prediction.EdgePct,
	}
}
