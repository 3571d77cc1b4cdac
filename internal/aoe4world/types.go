package aoe4world

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Avatars holds profile picture URLs
type Avatars struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Full   string `json:"full"`
}

// ModeStats is a player's standing on one leaderboard (rm_solo, qm_1v1, ...)
type ModeStats struct {
	Rating        int                `json:"rating"`
	MaxRating     int                `json:"max_rating"`
	Rank          int                `json:"rank"`
	RankLevel     string             `json:"rank_level"`
	Streak        int                `json:"streak"`
	GamesCount    int                `json:"games_count"`
	WinsCount     int                `json:"wins_count"`
	LossesCount   int                `json:"losses_count"`
	WinRate       float64            `json:"win_rate"`
	LastGameAt    time.Time          `json:"last_game_at"`
	Civilizations []CivilizationPick `json:"civilizations,omitempty"`
}

// CivilizationPick is a per-civilization line inside ModeStats
type CivilizationPick struct {
	Civilization string  `json:"civilization"`
	WinRate      float64 `json:"win_rate"`
	PickRate     float64 `json:"pick_rate"`
	GamesCount   int     `json:"games_count"`
}

// Player represents the response from /players/{id}
type Player struct {
	Name      string               `json:"name"`
	ProfileID int64                `json:"profile_id"`
	SteamID   string               `json:"steam_id"`
	SiteURL   string               `json:"site_url"`
	Avatars   Avatars              `json:"avatars"`
	Country   string               `json:"country"`
	Modes     map[string]ModeStats `json:"modes"`
}

// SearchPlayer is one hit from /players/search
type SearchPlayer struct {
	Name         string               `json:"name"`
	ProfileID    int64                `json:"profile_id"`
	SteamID      string               `json:"steam_id"`
	Country      string               `json:"country"`
	Avatars      Avatars              `json:"avatars"`
	LastGameAt   time.Time            `json:"last_game_at"`
	Leaderboards map[string]ModeStats `json:"leaderboards"`
}

// SearchResult represents the response from /players/search
type SearchResult struct {
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Players    []SearchPlayer `json:"players"`
}

// GamePlayer is one participant in a game listing
type GamePlayer struct {
	Name         string `json:"name"`
	ProfileID    int64  `json:"profile_id"`
	Result       string `json:"result"` // win, loss, or empty while ongoing
	Civilization string `json:"civilization"`
	Rating       int    `json:"rating"`
	RatingDiff   int    `json:"rating_diff"`
	MMR          int    `json:"mmr"`
	InputType    string `json:"input_type"`
}

// Won reports whether the player won the game
func (p GamePlayer) Won() bool {
	return p.Result == "win"
}

// TeamSlot wraps a participant as the API nests it
type TeamSlot struct {
	Player GamePlayer `json:"player"`
}

// Game represents one entry of /players/{id}/games
type Game struct {
	GameID        int64        `json:"game_id"`
	StartedAt     time.Time    `json:"started_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Duration      int          `json:"duration"` // seconds
	Map           string       `json:"map"`
	Kind          string       `json:"kind"`
	Leaderboard   string       `json:"leaderboard"`
	Season        int          `json:"season"`
	Server        string       `json:"server"`
	Patch         int          `json:"patch"`
	AverageRating float64      `json:"average_rating"`
	Ongoing       bool         `json:"ongoing"`
	JustFinished  bool         `json:"just_finished"`
	Teams         [][]TeamSlot `json:"teams"`
}

// Participant finds a player in the game and returns their team index
func (g Game) Participant(profileID int64) (GamePlayer, int, bool) {
	for i, team := range g.Teams {
		for _, slot := range team {
			if slot.Player.ProfileID == profileID {
				return slot.Player, i, true
			}
		}
	}
	return GamePlayer{}, -1, false
}

// Opponents returns every player not on the given player's team
func (g Game) Opponents(profileID int64) []GamePlayer {
	_, team, ok := g.Participant(profileID)
	if !ok {
		return nil
	}

	var out []GamePlayer
	for i, t := range g.Teams {
		if i == team {
			continue
		}
		for _, slot := range t {
			out = append(out, slot.Player)
		}
	}
	return out
}

// GamesPage represents the response from /players/{id}/games
type GamesPage struct {
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Count      int    `json:"count"`
	Offset     int    `json:"offset"`
	Games      []Game `json:"games"`
}

// LeaderboardPlayer is one row of a leaderboard page
type LeaderboardPlayer struct {
	Name        string    `json:"name"`
	ProfileID   int64     `json:"profile_id"`
	Rank        int       `json:"rank"`
	Rating      int       `json:"rating"`
	RankLevel   string    `json:"rank_level"`
	Streak      int       `json:"streak"`
	GamesCount  int       `json:"games_count"`
	WinsCount   int       `json:"wins_count"`
	LossesCount int       `json:"losses_count"`
	WinRate     float64   `json:"win_rate"`
	LastGameAt  time.Time `json:"last_game_at"`
	Country     string    `json:"country"`
}

// LeaderboardPage represents the response from /leaderboards/{leaderboard}
type LeaderboardPage struct {
	TotalCount int                 `json:"total_count"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	Players    []LeaderboardPlayer `json:"players"`
}

// CivilizationStat is global win/pick data for a civilization
type CivilizationStat struct {
	Civilization    string  `json:"civilization"`
	WinRate         float64 `json:"win_rate"`
	PickRate        float64 `json:"pick_rate"`
	GamesCount      int     `json:"games_count"`
	DurationAverage float64 `json:"duration_average"`
}

// MapStat is global play data for a map
type MapStat struct {
	Map             string  `json:"map"`
	MapID           int     `json:"map_id"`
	GamesCount      int     `json:"games_count"`
	DurationAverage float64 `json:"duration_average"`
}

// SummaryPlayer is one player of a game summary (camelized payload)
type SummaryPlayer struct {
	ProfileID    int64  `json:"profileId"`
	Name         string `json:"name"`
	Civilization string `json:"civilization"`
	Team         int    `json:"team"`
	Result       string `json:"result"`
	APM          int    `json:"apm"`

	// BuildOrder is left raw; its shape has drifted across API revisions
	BuildOrder jsoniter.RawMessage `json:"buildOrder"`
}

// GameSummary represents the response from /players/{id}/games/{gameId}/summary
type GameSummary struct {
	GameID      int64           `json:"gameId"`
	WinReason   string          `json:"winReason"`
	MapID       int             `json:"mapId"`
	MapName     string          `json:"mapName"`
	MapSize     string          `json:"mapSize"`
	Leaderboard string          `json:"leaderboard"`
	Duration    int             `json:"duration"`
	Players     []SummaryPlayer `json:"players"`
}
