package stats

import (
	"aoe4companion/internal/aoe4world"
	"aoe4companion/internal/buildorder"
)

// PlayerPeaks is one row of the per-game worker comparison table
type PlayerPeaks struct {
	ProfileID    int64                  `json:"profileId"`
	Name         string                 `json:"name"`
	Civilization string                 `json:"civilization"`
	Team         int                    `json:"team"`
	Result       string                 `json:"result"`
	Peaks        buildorder.WorkerPeaks `json:"peaks"`
}

// GameComparison is the worker comparison for every player of a game
type GameComparison struct {
	GameID   int64         `json:"gameId"`
	MapName  string        `json:"mapName"`
	Duration int           `json:"duration"`
	Players  []PlayerPeaks `json:"players"`
	Complete bool          `json:"complete"` // false if any player's build order was unreadable
}

// CompareGame computes worker peaks for every player in a summary
func CompareGame(summary *aoe4world.GameSummary) GameComparison {
	cmp := GameComparison{Complete: true}
	if summary == nil {
		cmp.Complete = false
		return cmp
	}

	cmp.GameID = summary.GameID
	cmp.MapName = summary.MapName
	cmp.Duration = summary.Duration
	cmp.Players = make([]PlayerPeaks, 0, len(summary.Players))

	for _, p := range summary.Players {
		peaks := buildorder.Compute(p.BuildOrder)
		if !peaks.Complete {
			cmp.Complete = false
		}
		cmp.Players = append(cmp.Players, PlayerPeaks{
			ProfileID:    p.ProfileID,
			Name:         p.Name,
			Civilization: p.Civilization,
			Team:         p.Team,
			Result:       p.Result,
			Peaks:        peaks,
		})
	}
	return cmp
}

// Find returns the comparison row for a player
func (c GameComparison) Find(profileID int64) (PlayerPeaks, bool) {
	for _, p := range c.Players {
		if p.ProfileID == profileID {
			return p, true
		}
	}
	return PlayerPeaks{}, false
}
