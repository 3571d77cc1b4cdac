package aoe4world

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// MinSearchLength is the shortest query the search endpoint accepts
const MinSearchLength = 3

// DefaultLeaderboard is ranked 1v1
const DefaultLeaderboard = "rm_solo"

// GamesQuery narrows a game history request
type GamesQuery struct {
	Leaderboard string
	Page        int
	Since       time.Time
}

func (q GamesQuery) values() url.Values {
	v := url.Values{}
	if q.Leaderboard != "" {
		v.Set("leaderboard", q.Leaderboard)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if !q.Since.IsZero() {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	return v
}

// SearchPlayers looks players up by name. Queries shorter than
// MinSearchLength return an empty result without calling the API.
func (c *Client) SearchPlayers(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLength {
		return &SearchResult{}, nil
	}

	var result SearchResult
	err := c.doRequest(ctx, "/players/search", url.Values{"query": {query}}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPlayer fetches a player profile with per-leaderboard stats
func (c *Client) GetPlayer(ctx context.Context, profileID int64) (*Player, error) {
	var player Player
	if err := c.doRequest(ctx, fmt.Sprintf("/players/%d", profileID), nil, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// GetPlayerGames fetches one page of a player's game history, newest first
func (c *Client) GetPlayerGames(ctx context.Context, profileID int64, q GamesQuery) (*GamesPage, error) {
	var page GamesPage
	if err := c.doRequest(ctx, fmt.Sprintf("/players/%d/games", profileID), q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetGameSummary fetches the detailed summary of one game as seen by a player.
// Summaries of finished games never change and are cached.
func (c *Client) GetGameSummary(ctx context.Context, profileID, gameID int64) (*GameSummary, error) {
	key := fmt.Sprintf("summary:%d:%d", profileID, gameID)
	if cached, ok := c.summaries.Get(key); ok {
		return cached.(*GameSummary), nil
	}

	var summary GameSummary
	path := fmt.Sprintf("/players/%d/games/%d/summary", profileID, gameID)
	if err := c.doRequest(ctx, path, url.Values{"camelize": {"true"}}, &summary); err != nil {
		return nil, err
	}

	c.summaries.Set(key, &summary)
	return &summary, nil
}

// GetLeaderboard fetches one page of a leaderboard
func (c *Client) GetLeaderboard(ctx context.Context, leaderboard string, page int) (*LeaderboardPage, error) {
	if leaderboard == "" {
		leaderboard = DefaultLeaderboard
	}
	v := url.Values{}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}

	var result LeaderboardPage
	if err := c.doRequest(ctx, "/leaderboards/"+url.PathEscape(leaderboard), v, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCivilizationStats fetches global civilization win and pick rates
func (c *Client) GetCivilizationStats(ctx context.Context, leaderboard string) ([]CivilizationStat, error) {
	if leaderboard == "" {
		leaderboard = DefaultLeaderboard
	}

	var result struct {
		Data []CivilizationStat `json:"data"`
	}
	if err := c.doRequest(ctx, "/stats/"+url.PathEscape(leaderboard)+"/civilizations", nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GetMapStats fetches global map play counts
func (c *Client) GetMapStats(ctx context.Context, leaderboard string) ([]MapStat, error) {
	if leaderboard == "" {
		leaderboard = DefaultLeaderboard
	}

	var result struct {
		Data []MapStat `json:"data"`
	}
	if err := c.doRequest(ctx, "/stats/"+url.PathEscape(leaderboard)+"/maps", nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}
