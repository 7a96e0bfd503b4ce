package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/internal/storage"
)

const (
	maxOverPicks  = 8
	maxUnderPicks = 7

	embedColorGreen = 0x2ecc71
	embedColorRed   = 0xe74c3c
	embedColorBlue  = 0x3498db
)

// NotifierService posts daily pick summaries to a Discord webhook. An empty
// webhook URL disables it.
type NotifierService struct {
	httpClient  *http.Client
	webhookURL  string
	predictions *storage.PredictionRepository
	results     *storage.ResultRepository
	breaker     *CircuitBreakerService
	logger      *logrus.Logger
}

func NewNotifierService(
	webhookURL string,
	timeout time.Duration,
	predictions *storage.PredictionRepository,
	results *storage.ResultRepository,
	breaker *CircuitBreakerService,
	logger *logrus.Logger,
) *NotifierService {
	return &NotifierService{
		httpClient:  &http.Client{Timeout: timeout},
		webhookURL:  webhookURL,
		predictions: predictions,
		results:     results,
		breaker:     breaker,
		logger:      logger,
	}
}

// Enabled reports whether a webhook is configured.
func (s *NotifierService) Enabled() bool {
	return s.webhookURL != ""
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

// NotifyPicks posts the day's top picks: the highest-confidence overs and
// unders, plus the trailing 7-day hit rate.
func (s *NotifierService) NotifyPicks(ctx context.Context, date time.Time) error {
	if !s.Enabled() {
		s.logger.Debug("Discord webhook not configured, skipping notification")
		return nil
	}
	dateStr := date.Format("2006-01-02")

	actionable, err := s.predictions.ActionableForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to load picks to notify: %w", err)
	}
	if len(actionable) == 0 {
		s.logger.WithField("date", dateStr).Info("No actionable picks to notify")
		return nil
	}

	overs, unders := splitPicks(actionable)

	embeds := []discordEmbed{
		{
			Title:       fmt.Sprintf("Prop Picks — %s", dateStr),
			Description: fmt.Sprintf("%d actionable picks on today's slate", len(actionable)),
			Color:       embedColorBlue,
		},
	}
	if len(overs) > 0 {
		embeds = append(embeds, discordEmbed{
			Title:  "Top Overs",
			Color:  embedColorGreen,
			Fields: pickFields(overs),
		})
	}
	if len(unders) > 0 {
		embeds = append(embeds, discordEmbed{
			Title:  "Top Unders",
			Color:  embedColorRed,
			Fields: pickFields(unders),
		})
	}

	if summary, err := s.results.Accuracy(ctx, date, 7); err == nil && summary.Total > 0 {
		embeds = append(embeds, discordEmbed{
			Title: "Last 7 Days",
			Color: embedColorBlue,
			Description: fmt.Sprintf("%d-%d (%.1f%%), %d pushes",
				summary.Correct, summary.Incorrect, summary.AccuracyPct, summary.Pushes),
		})
	}

	if err := s.post(ctx, discordMessage{Embeds: embeds}); err != nil {
		return fmt.Errorf("failed to post picks to Discord: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"date":   dateStr,
		"overs":  len(overs),
		"unders": len(unders),
	}).Info("Posted picks to Discord")
	return nil
}

// splitPicks takes the highest-confidence overs and unders from an already
// confidence-sorted list.
func splitPicks(actionable []models.PredictionRecord) (overs, unders []models.PredictionRecord) {
	for _, pick := range actionable {
		switch pick.Recommendation {
		case models.RecommendationOver:
			if len(overs) < maxOverPicks {
				overs = append(overs, pick)
			}
		case models.RecommendationUnder:
			if len(unders) < maxUnderPicks {
				unders = append(unders, pick)
			}
		}
	}
	return overs, unders
}

func pickFields(picks []models.PredictionRecord) []discordField {
	fields := make([]discordField, 0, len(picks))
	for _, pick := range picks {
		line := 0.0
		if pick.MarketLine != nil {
			line = *pick.MarketLine
		}
		fields = append(fields, discordField{
			Name: fmt.Sprintf("%s — %s", pick.AthleteName, pick.StatLabel),
			Value: fmt.Sprintf("%s %.1f (proj %.1f, edge %+.1f%%, conf %.0f %s)\n%s",
				pick.Recommendation, line, pick.BlendedEstimate,
				pick.EdgePct*100, pick.Confidence, pick.ConfidenceTier, pick.Matchup),
			Inline: false,
		})
	}
	return fields
}

func (s *NotifierService) post(ctx context.Context, message discordMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	_, err = s.breaker.Execute("discord", func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
