package stats

import (
	"testing"
	"time"

	"aoe4companion/internal/aoe4world"
)

const me = int64(42)

func game(id int64, started time.Time, mapName, civ, result string) aoe4world.Game {
	return aoe4world.Game{
		GameID:    id,
		StartedAt: started,
		Map:       mapName,
		Teams: [][]aoe4world.TeamSlot{
			{{Player: aoe4world.GamePlayer{ProfileID: me, Civilization: civ, Result: result}}},
			{{Player: aoe4world.GamePlayer{ProfileID: 7, Civilization: "french", Result: opposite(result)}}},
		},
	}
}

func opposite(result string) string {
	switch result {
	case "win":
		return "loss"
	case "loss":
		return "win"
	}
	return result
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestMonthlyWinRates(t *testing.T) {
	now := day(2024, 3, 15)
	games := []aoe4world.Game{
		game(1, day(2024, 3, 1), "Dry Arabia", "english", "win"),
		game(2, day(2024, 3, 2), "Dry Arabia", "english", "loss"),
		game(3, day(2024, 3, 3), "Altai", "mongols", "win"),
		game(4, day(2024, 1, 20), "Altai", "mongols", "win"),
		game(5, day(2023, 6, 1), "Altai", "mongols", "loss"), // outside window
	}
	ongoing := game(6, day(2024, 3, 14), "Altai", "mongols", "")
	ongoing.Ongoing = true
	games = append(games, ongoing)

	got := MonthlyWinRates(games, me, now, 3)
	if len(got) != 3 {
		t.Fatalf("Expected 3 months, got %d", len(got))
	}

	want := []MonthlyWinRate{
		{Month: "2024-01", Wins: 1, Games: 1, WinRate: 100},
		{Month: "2024-02"},
		{Month: "2024-03", Wins: 2, Losses: 1, Games: 3, WinRate: percent(2, 3)},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("month %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMonthlyWinRates_YearBoundary(t *testing.T) {
	got := MonthlyWinRates(nil, me, day(2024, 1, 31), 2)
	if len(got) != 2 || got[0].Month != "2023-12" || got[1].Month != "2024-01" {
		t.Errorf("Unexpected months: %+v", got)
	}
	if MonthlyWinRates(nil, me, day(2024, 1, 31), 0) != nil {
		t.Error("Expected nil for zero months")
	}
}

func TestCivilizationBreakdown(t *testing.T) {
	now := day(2024, 3, 15)
	games := []aoe4world.Game{
		game(1, now, "Dry Arabia", "english", "win"),
		game(2, now, "Dry Arabia", "english", "loss"),
		game(3, now, "Altai", "mongols", "win"),
		game(4, now, "Altai", "abbasid_dynasty", "win"),
		game(5, now, "Altai", "english", "win"),
	}

	got := CivilizationBreakdown(games, me)
	if len(got) != 3 {
		t.Fatalf("Expected 3 civilizations, got %d: %+v", len(got), got)
	}

	if got[0].Civilization != "english" || got[0].Games != 3 || got[0].Wins != 2 || got[0].PickRate != percent(3, 5) {
		t.Errorf("Unexpected first row: %+v", got[0])
	}
	// ties broken by name
	if got[1].Civilization != "abbasid_dynasty" || got[2].Civilization != "mongols" {
		t.Errorf("Unexpected order: %s, %s", got[1].Civilization, got[2].Civilization)
	}
	if got[1].WinRate != 100 {
		t.Errorf("Expected 100%% win rate, got %v", got[1].WinRate)
	}
}

func TestMapBreakdown(t *testing.T) {
	now := day(2024, 3, 15)
	games := []aoe4world.Game{
		game(1, now, "Dry Arabia", "english", "win"),
		game(2, now, "Dry Arabia", "english", "loss"),
		game(3, now, "Altai", "mongols", "win"),
		game(4, now, "", "mongols", "win"),
	}
	notMine := game(5, now, "Altai", "english", "win")
	notMine.Teams[0][0].Player.ProfileID = 1000
	games = append(games, notMine)

	got := MapBreakdown(games, me)
	if len(got) != 2 {
		t.Fatalf("Expected 2 maps, got %+v", got)
	}
	if got[0].Map != "Dry Arabia" || got[0].Games != 2 || got[0].WinRate != 50 {
		t.Errorf("Unexpected first row: %+v", got[0])
	}
	if got[1].Map != "Altai" || got[1].Games != 1 {
		t.Errorf("Unexpected second row: %+v", got[1])
	}
}

func TestTimeAgo(t *testing.T) {
	now := day(2024, 3, 15)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-90 * time.Second), "1 minute ago"},
		{now.Add(-48 * time.Hour), "2 days ago"},
	}
	for _, tt := range tests {
		if got := TimeAgo(tt.t, now); got != tt.want {
			t.Errorf("TimeAgo(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
