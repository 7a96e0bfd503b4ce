package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/engine"
	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/internal/services"
	"github.com/courtedge/prop-engine/internal/storage"
)

const dateLayout = "2006-01-02"

// PredictionHandler serves stored predictions, accuracy rollups, athlete
// profiles and on-demand job triggers.
type PredictionHandler struct {
	predictions *storage.PredictionRepository
	results     *storage.ResultRepository
	games       *storage.GameRecordRepository
	predictor   *services.PredictionService
	verifier    *services.VerifierService
	cache       *services.CacheService
	logger      *logrus.Logger
}

func NewPredictionHandler(
	predictions *storage.PredictionRepository,
	results *storage.ResultRepository,
	games *storage.GameRecordRepository,
	predictor *services.PredictionService,
	verifier *services.VerifierService,
	cache *services.CacheService,
	logger *logrus.Logger,
) *PredictionHandler {
	return &PredictionHandler{
		predictions: predictions,
		results:     results,
		games:       games,
		predictor:   predictor,
		verifier:    verifier,
		cache:       cache,
		logger:      logger,
	}
}

// GetPredictions returns the stored predictions for ?date= (default today).
func (h *PredictionHandler) GetPredictions(c *gin.Context) {
	date, err := parseDateParam(c.DefaultQuery("date", ""), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	if h.cache != nil {
		var cached []models.PredictionRecord
		if err := h.cache.GetPredictions(date.Format(dateLayout), &cached); err == nil && len(cached) > 0 {
			c.JSON(http.StatusOK, gin.H{
				"date":        date.Format(dateLayout),
				"count":       len(cached),
				"predictions": cached,
			})
			return
		}
	}

	records, err := h.predictions.ForDate(c.Request.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load predictions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":        date.Format(dateLayout),
		"count":       len(records),
		"predictions": records,
	})
}

// GetTodayPicks returns today's actionable picks (non-HOLD with a line).
func (h *PredictionHandler) GetTodayPicks(c *gin.Context) {
	today := time.Now().UTC()
	records, err := h.predictions.ActionableForDate(c.Request.Context(), today)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load picks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load picks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  today.Format(dateLayout),
		"count": len(records),
		"picks": records,
	})
}

// GetAccuracy returns the trailing hit rate for ?days= (default 7, max 90).
func (h *PredictionHandler) GetAccuracy(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
		return
	}

	if h.cache != nil {
		var cached storage.AccuracySummary
		if err := h.cache.GetAccuracy(days, &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	summary, err := h.results.Accuracy(c.Request.Context(), time.Now().UTC(), days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute accuracy")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute accuracy"})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetAccuracy(days, summary); err != nil {
			h.logger.WithError(err).Warn("Failed to cache accuracy summary")
		}
	}
	c.JSON(http.StatusOK, summary)
}

// GetAthleteProfile returns an athlete's current rolling profiles per stat.
func (h *PredictionHandler) GetAthleteProfile(c *gin.Context) {
	athleteID := c.Param("id")
	asOf := time.Now().UTC()

	if h.cache != nil {
		var cached gin.H
		if err := h.cache.GetAthleteProfile(athleteID, &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	gameLog, err := h.games.LogForAthlete(c.Request.Context(), athleteID, asOf, 50)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load game log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game log"})
		return
	}
	if len(gameLog) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no game history for athlete"})
		return
	}

	eligible, _ := engine.SanitizeGameLog(gameLog, asOf)
	profiles := make(map[models.StatType]engine.RollingProfile, len(models.TrackedStats))
	for _, stat := range models.TrackedStats {
		profiles[stat] = engine.ComputeRollingProfile(eligible, stat)
	}

	response := gin.H{
		"athlete_id":   athleteID,
		"athlete_name": gameLog[len(gameLog)-1].AthleteName,
		"team":         gameLog[len(gameLog)-1].TeamAbbr,
		"as_of":        asOf.Format(dateLayout),
		"games":        len(eligible),
		"profiles":     profiles,
	}
	if h.cache != nil {
		if err := h.cache.SetAthleteProfile(athleteID, response); err != nil {
			h.logger.WithError(err).Warn("Failed to cache athlete profile")
		}
	}
	c.JSON(http.StatusOK, response)
}

// TriggerPredict runs the prediction batch for ?date= (default today).
func (h *PredictionHandler) TriggerPredict(c *gin.Context) {
	date, err := parseDateParam(c.DefaultQuery("date", ""), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	summary, err := h.predictor.RunDaily(c.Request.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Prediction run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction run failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TriggerVerify grades predictions for ?date= (default yesterday).
func (h *PredictionHandler) TriggerVerify(c *gin.Context) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	date, err := parseDateParam(c.DefaultQuery("date", ""), yesterday)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	summary, err := h.verifier.VerifyDate(c.Request.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Verification run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification run failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// parseDateParam parses a YYYY-MM-DD query value, defaulting to fallback's
// date when empty.
func parseDateParam(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(dateLayout, value)
}
