package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtedge/prop-engine/internal/models"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "jaren jackson", NormalizeName("Jaren Jackson Jr."))
	assert.Equal(t, "gary payton", NormalizeName("Gary Payton II"))
	assert.Equal(t, "lebron james", NormalizeName("  LeBron James "))
	assert.Equal(t, "luka doncic", NormalizeName("Luka Doncic"))
}

func TestMatchLinesExact(t *testing.T) {
	lines := PropLines{
		"lebron james": {models.StatPoints: 25.5},
	}

	match := lines.MatchLines("LeBron James")
	require.NotNil(t, match)
	assert.Equal(t, 25.5, match[models.StatPoints])
}

func TestMatchLinesSuffixMismatch(t *testing.T) {
	// Box score carries the suffix, sportsbook does not.
	lines := PropLines{
		"jaren jackson": {models.StatRebounds: 6.5},
	}

	match := lines.MatchLines("Jaren Jackson Jr.")
	require.NotNil(t, match)
	assert.Equal(t, 6.5, match[models.StatRebounds])
}

func TestMatchLinesUniqueLastName(t *testing.T) {
	lines := PropLines{
		"nikola jokic": {models.StatAssists: 9.5},
		"jamal murray": {models.StatPoints: 21.5},
	}

	// First name spelled differently but last name is unique.
	match := lines.MatchLines("N. Jokic")
	require.NotNil(t, match)
	assert.Equal(t, 9.5, match[models.StatAssists])
}

func TestMatchLinesAmbiguousLastNameUsesInitial(t *testing.T) {
	lines := PropLines{
		"jaren jackson":  {models.StatPoints: 22.5},
		"reggie jackson": {models.StatPoints: 11.5},
	}

	match := lines.MatchLines("Reggie Jackson")
	require.NotNil(t, match)
	assert.Equal(t, 11.5, match[models.StatPoints])
}

func TestMatchLinesNoMatch(t *testing.T) {
	lines := PropLines{
		"stephen curry": {models.StatThrees: 4.5},
	}

	assert.Nil(t, lines.MatchLines("Klay Thompson"))
	assert.Nil(t, lines.MatchLines("Mononym"))
}

func TestCollectLinesKeepsFirstOverPoint(t *testing.T) {
	point1 := 25.5
	point2 := 26.5
	event := &oddsEvent{
		Bookmakers: []oddsBookmaker{
			{
				Key: "draftkings",
				Markets: []oddsMarket{
					{
						Key: "player_points",
						Outcomes: []oddsOutcome{
							{Name: "Over", Description: "LeBron James", Point: &point1},
							{Name: "Under", Description: "LeBron James", Point: &point1},
							{Name: "Over", Description: "LeBron James", Point: &point2},
						},
					},
					{
						Key: "h2h",
						Outcomes: []oddsOutcome{
							{Name: "Over", Description: "Ignored Player", Point: &point1},
						},
					},
				},
			},
		},
	}

	client := NewOddsAPIClient("key", 0, quietTestLogger())
	lines := make(PropLines)
	client.collectLines(event, lines)

	require.Len(t, lines, 1)
	assert.Equal(t, 25.5, lines["lebron james"][models.StatPoints])
}

func TestFetchPropLinesDecodesEventOdds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sports/basketball_nba/odds/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"evt1"},{"id":"evt2"}]`))
	})
	mux.HandleFunc("/sports/basketball_nba/events/evt1/odds", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "evt1",
			"bookmakers": [{
				"key": "draftkings",
				"markets": [
					{"key": "player_points", "outcomes": [
						{"name": "Over", "description": "Jayson Tatum", "point": 27.5},
						{"name": "Under", "description": "Jayson Tatum", "point": 27.5}
					]},
					{"key": "player_points_rebounds_assists", "outcomes": [
						{"name": "Over", "description": "Jayson Tatum", "point": 42.5}
					]}
				]
			}]
		}`))
	})
	// evt2 failing must not sink the whole fetch.
	mux.HandleFunc("/sports/basketball_nba/events/evt2/odds", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewOddsAPIClient("test-key", 5*time.Second, quietTestLogger())
	client.baseURL = server.URL

	lines, err := client.FetchPropLines(context.Background())

	require.NoError(t, err)
	require.Len(t, lines, 1)
	tatums := lines["jayson tatum"]
	require.NotNil(t, tatums)
	assert.Equal(t, 27.5, tatums[models.StatPoints])
	assert.Equal(t, 42.5, tatums[models.StatPRA])
}

func TestFetchPropLinesDisabledWithoutKey(t *testing.T) {
	client := NewOddsAPIClient("", time.Second, quietTestLogger())

	lines, err := client.FetchPropLines(context.Background())

	require.NoError(t, err)
	assert.Empty(t, lines)
}
