package stats

import (
	"sort"
	"time"

	"aoe4companion/internal/aoe4world"

	"github.com/dustin/go-humanize"
)

// MonthlyWinRate holds a player's record for one calendar month
type MonthlyWinRate struct {
	Month   string  `json:"month"` // YYYY-MM
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Games   int     `json:"games"`
	WinRate float64 `json:"winRate"`
}

// CivilizationStat holds a player's record with one civilization
type CivilizationStat struct {
	Civilization string  `json:"civilization"`
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"winRate"`
	PickRate     float64 `json:"pickRate"`
}

// MapStat holds a player's record on one map
type MapStat struct {
	Map     string  `json:"map"`
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winRate"`
}

// decided returns the player's side of a finished game, skipping ongoing
// games and games the player is not in
func decided(g aoe4world.Game, profileID int64) (aoe4world.GamePlayer, bool) {
	if g.Ongoing {
		return aoe4world.GamePlayer{}, false
	}
	p, _, ok := g.Participant(profileID)
	if !ok || (p.Result != "win" && p.Result != "loss") {
		return aoe4world.GamePlayer{}, false
	}
	return p, true
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// MonthlyWinRates returns one row per calendar month for the last `months`
// months up to and including now's month, oldest first. Months without games
// are included with zero counts.
func MonthlyWinRates(games []aoe4world.Game, profileID int64, now time.Time, months int) []MonthlyWinRate {
	if months <= 0 {
		return nil
	}

	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	rows := make([]MonthlyWinRate, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		rows[i].Month = key
		index[key] = i
	}

	for _, g := range games {
		p, ok := decided(g, profileID)
		if !ok {
			continue
		}
		i, ok := index[g.StartedAt.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		rows[i].Games++
		if p.Won() {
			rows[i].Wins++
		} else {
			rows[i].Losses++
		}
	}

	for i := range rows {
		rows[i].WinRate = percent(rows[i].Wins, rows[i].Games)
	}
	return rows
}

// CivilizationBreakdown groups a player's finished games by the civilization
// they played, sorted by games played then name
func CivilizationBreakdown(games []aoe4world.Game, profileID int64) []CivilizationStat {
	byCiv := make(map[string]*CivilizationStat)
	total := 0

	for _, g := range games {
		p, ok := decided(g, profileID)
		if !ok || p.Civilization == "" {
			continue
		}
		s, exists := byCiv[p.Civilization]
		if !exists {
			s = &CivilizationStat{Civilization: p.Civilization}
			byCiv[p.Civilization] = s
		}
		s.Games++
		if p.Won() {
			s.Wins++
		}
		total++
	}

	out := make([]CivilizationStat, 0, len(byCiv))
	for _, s := range byCiv {
		s.WinRate = percent(s.Wins, s.Games)
		s.PickRate = percent(s.Games, total)
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].Civilization < out[j].Civilization
	})
	return out
}

// MapBreakdown groups a player's finished games by map, sorted by games
// played then name
func MapBreakdown(games []aoe4world.Game, profileID int64) []MapStat {
	byMap := make(map[string]*MapStat)

	for _, g := range games {
		p, ok := decided(g, profileID)
		if !ok || g.Map == "" {
			continue
		}
		s, exists := byMap[g.Map]
		if !exists {
			s = &MapStat{Map: g.Map}
			byMap[g.Map] = s
		}
		s.Games++
		if p.Won() {
			s.Wins++
		}
	}

	out := make([]MapStat, 0, len(byMap))
	for _, s := range byMap {
		s.WinRate = percent(s.Wins, s.Games)
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].Map < out[j].Map
	})
	return out
}

// TimeAgo renders t relative to now, e.g. "3 hours ago"
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
