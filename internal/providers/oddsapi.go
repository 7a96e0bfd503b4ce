package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/models"
)

// Prop market keys on The Odds API and the stats they map to.
var marketToStat = map[string]models.StatType{
	"player_points":                  models.StatPoints,
	"player_rebounds":                models.StatRebounds,
	"player_assists":                 models.StatAssists,
	"player_threes":                  models.StatThrees,
	"player_points_rebounds_assists": models.StatPRA,
}

// PropLines maps normalized athlete names to their posted line per stat.
type PropLines map[string]map[models.StatType]float64

// OddsAPIClient pulls player prop lines from The Odds API.
type OddsAPIClient struct {
	httpClient *http.Client
	logger     *logrus.Logger
	apiKey     string
	baseURL    string
}

// NewOddsAPIClient creates a new Odds API client. An empty key disables line
// fetching; predictions then score as HOLD.
func NewOddsAPIClient(apiKey string, timeout time.Duration, logger *logrus.Logger) *OddsAPIClient {
	return &OddsAPIClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		apiKey:     apiKey,
		baseURL:    "https://api.the-odds-api.com/v4",
	}
}

type oddsOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Point       *float64 `json:"point"`
}

type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

type oddsBookmaker struct {
	Key     string       `json:"key"`
	Markets []oddsMarket `json:"markets"`
}

type oddsEvent struct {
	ID         string          `json:"id"`
	HomeTeam   string          `json:"home_team"`
	AwayTeam   string          `json:"away_team"`
	Bookmakers []oddsBookmaker `json:"bookmakers"`
}

// FetchPropLines returns today's player prop lines keyed by normalized
// athlete name. It keeps the first Over point seen per (athlete, stat) and
// tolerates per-event failures.
func (c *OddsAPIClient) FetchPropLines(ctx context.Context) (PropLines, error) {
	if c.apiKey == "" {
		return PropLines{}, nil
	}

	events, err := c.fetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	c.logger.WithField("events", len(events)).Info("Fetched events from Odds API")

	markets := make([]string, 0, len(marketToStat))
	for key := range marketToStat {
		markets = append(markets, key)
	}
	marketsParam := strings.Join(markets, ",")

	lines := make(PropLines)
	for _, event := range events {
		if event.ID == "" {
			continue
		}
		eventOdds, err := c.fetchEventOdds(ctx, event.ID, marketsParam)
		if err != nil {
			c.logger.WithError(err).WithField("event_id", event.ID).Warn("Failed to fetch props for event")
			continue
		}
		c.collectLines(eventOdds, lines)
	}

	c.logger.WithField("athletes", len(lines)).Info("Fetched player prop lines")
	return lines, nil
}

func (c *OddsAPIClient) fetchEvents(ctx context.Context) ([]oddsEvent, error) {
	url := fmt.Sprintf("%s/sports/basketball_nba/odds/?apiKey=%s&regions=us&markets=totals&oddsFormat=american",
		c.baseURL, c.apiKey)
	var events []oddsEvent
	if err := c.get(ctx, url, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *OddsAPIClient) fetchEventOdds(ctx context.Context, eventID, markets string) (*oddsEvent, error) {
	url := fmt.Sprintf("%s/sports/basketball_nba/events/%s/odds?apiKey=%s&regions=us&markets=%s&oddsFormat=american",
		c.baseURL, eventID, c.apiKey, markets)
	var event oddsEvent
	if err := c.get(ctx, url, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *OddsAPIClient) collectLines(event *oddsEvent, lines PropLines) {
	for _, bookmaker := range event.Bookmakers {
		for _, market := range bookmaker.Markets {
			stat, ok := marketToStat[market.Key]
			if !ok {
				continue
			}
			for _, outcome := range market.Outcomes {
				if outcome.Name != "Over" || outcome.Description == "" || outcome.Point == nil {
					continue
				}
				nameKey := NormalizeName(outcome.Description)
				if lines[nameKey] == nil {
					lines[nameKey] = make(map[models.StatType]float64)
				}
				if _, exists := lines[nameKey][stat]; !exists {
					lines[nameKey][stat] = *outcome.Point
				}
			}
		}
	}
}

func (c *OddsAPIClient) get(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// NormalizeName lowercases a player name and strips generational suffixes so
// box-score and sportsbook spellings line up.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	for _, suffix := range []string{" Jr.", " Sr.", " III", " II", " IV", " Jr", " Sr"} {
		name = strings.ReplaceAll(name, suffix, "")
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchLines finds the prop lines for an athlete by normalized name, falling
// back to a unique last-name match and then a first-initial match when the
// sportsbook spells the name differently.
func (lines PropLines) MatchLines(athleteName string) map[models.StatType]float64 {
	nameKey := NormalizeName(athleteName)
	if match, ok := lines[nameKey]; ok {
		return match
	}

	parts := strings.Fields(nameKey)
	if len(parts) < 2 {
		return nil
	}
	lastName := parts[len(parts)-1]
	firstInitial := ""
	if parts[0] != "" {
		firstInitial = parts[0][:1]
	}

	var matches []string
	for key := range lines {
		for _, word := range strings.Fields(key) {
			if word == lastName {
				matches = append(matches, key)
				break
			}
		}
	}
	if len(matches) == 1 {
		return lines[matches[0]]
	}
	for _, match := range matches {
		words := strings.Fields(match)
		if len(words) > 0 && strings.HasPrefix(words[0], firstInitial) {
			return lines[match]
		}
	}
	return nil
}
