package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// BallDontLieClient pulls games, box scores, advanced stats and injury
// reports from the balldontlie API.
type BallDontLieClient struct {
	httpClient    *http.Client
	logger        *logrus.Logger
	apiKey        string
	baseURL       string
	retryAttempts int
	retryBackoff  time.Duration
}

// NewBallDontLieClient creates a new balldontlie client.
func NewBallDontLieClient(apiKey string, timeout time.Duration, logger *logrus.Logger) *BallDontLieClient {
	return &BallDontLieClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:        logger,
		apiKey:        apiKey,
		baseURL:       "https://api.balldontlie.io/v1",
		retryAttempts: 3,
		retryBackoff:  time.Second,
	}
}

// Team is a team reference embedded in game and stat payloads.
type Team struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	FullName     string `json:"full_name"`
}

// Game is one scheduled or completed game.
type Game struct {
	ID           int    `json:"id"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	HomeTeam     Team   `json:"home_team"`
	VisitorTeam  Team   `json:"visitor_team"`
	HomeScore    int    `json:"home_team_score"`
	VisitorScore int    `json:"visitor_team_score"`
}

// PlayerStatLine is one athlete's box score for one game.
type PlayerStatLine struct {
	Player struct {
		ID        int    `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"player"`
	Team Team `json:"team"`
	Game struct {
		ID            int    `json:"id"`
		Date          string `json:"date"`
		HomeTeamID    int    `json:"home_team_id"`
		VisitorTeamID int    `json:"visitor_team_id"`
	} `json:"game"`
	Min  string  `json:"min"`
	Pts  float64 `json:"pts"`
	Reb  float64 `json:"reb"`
	Ast  float64 `json:"ast"`
	Fg3m float64 `json:"fg3m"`
	Fgm  float64 `json:"fgm"`
	Fga  float64 `json:"fga"`
}

// AdvancedStatLine carries per-game usage and efficiency metrics.
type AdvancedStatLine struct {
	Player struct {
		ID int `json:"id"`
	} `json:"player"`
	UsagePercentage        float64 `json:"usage_percentage"`
	TrueShootingPercentage float64 `json:"true_shooting_percentage"`
	Pace                   float64 `json:"pace"`
	DefensiveRating        float64 `json:"defensive_rating"`
}

// InjuryReport is one currently injured player.
type InjuryReport struct {
	Player struct {
		ID     int `json:"id"`
		TeamID int `json:"team_id"`
	} `json:"player"`
	Status string `json:"status"`
}

// GetGames returns the games scheduled for a date.
func (c *BallDontLieClient) GetGames(ctx context.Context, date string) ([]Game, error) {
	var response struct {
		Data []Game `json:"data"`
	}
	url := fmt.Sprintf("%s/games?dates[]=%s", c.baseURL, date)
	if err := c.makeRequest(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch games for %s: %w", date, err)
	}
	return response.Data, nil
}

// GetGameStats returns the box scores for one game.
func (c *BallDontLieClient) GetGameStats(ctx context.Context, gameID int) ([]PlayerStatLine, error) {
	var response struct {
		Data []PlayerStatLine `json:"data"`
	}
	url := fmt.Sprintf("%s/stats?game_ids[]=%d&per_page=100", c.baseURL, gameID)
	if err := c.makeRequest(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch stats for game %d: %w", gameID, err)
	}
	return response.Data, nil
}

// GetAdvancedStats returns per-game advanced metrics. Not every plan exposes
// the endpoint, so callers should tolerate an empty result.
func (c *BallDontLieClient) GetAdvancedStats(ctx context.Context, gameID int) ([]AdvancedStatLine, error) {
	var response struct {
		Data []AdvancedStatLine `json:"data"`
	}
	url := fmt.Sprintf("%s/stats/advanced?game_ids[]=%d&per_page=100", c.baseURL, gameID)
	if err := c.makeRequest(ctx, url, &response); err != nil {
		c.logger.WithError(err).WithField("game_id", gameID).Warn("Advanced stats not available")
		return nil, nil
	}
	return response.Data, nil
}

// GetInjuries returns the current league-wide injury report.
func (c *BallDontLieClient) GetInjuries(ctx context.Context) ([]InjuryReport, error) {
	var response struct {
		Data []InjuryReport `json:"data"`
	}
	url := fmt.Sprintf("%s/player_injuries", c.baseURL)
	if err := c.makeRequest(ctx, url, &response); err != nil {
		c.logger.WithError(err).Warn("Injuries endpoint not available")
		return nil, nil
	}
	return response.Data, nil
}

// makeRequest handles HTTP requests with retries and 429 backoff.
func (c *BallDontLieClient) makeRequest(ctx context.Context, url string, target interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(math.Pow(2, float64(attempt))) * c.retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}
			if err := json.Unmarshal(body, target); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("invalid API key")
		case http.StatusTooManyRequests:
			c.logger.WithField("url", url).Warn("Rate limited by balldontlie, backing off")
			lastErr = fmt.Errorf("rate limit exceeded")
		default:
			lastErr = fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
	}
	return lastErr
}

// ParseMinutes converts the feed's minutes field ("34" or "34:30") to a
// float. Unparseable values become 0.
func ParseMinutes(min string) float64 {
	if min == "" || min == "0" {
		return 0
	}
	if strings.Contains(min, ":") {
		parts := strings.SplitN(min, ":", 2)
		whole, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0
		}
		seconds, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return whole
		}
		return whole + seconds/60
	}
	value, err := strconv.ParseFloat(min, 64)
	if err != nil {
		return 0
	}
	return value
}
