package live

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"aoe4companion/internal/aoe4world"
	"aoe4companion/internal/data"
	"aoe4companion/internal/stats"

	"github.com/bits-and-blooms/bloom/v3"
)

// GameSource is the part of the API client the poller needs
type GameSource interface {
	GetPlayerGames(ctx context.Context, profileID int64, q aoe4world.GamesQuery) (*aoe4world.GamesPage, error)
	GetGameSummary(ctx context.Context, profileID, gameID int64) (*aoe4world.GameSummary, error)
}

// PlayerSource tells the poller who to watch
type PlayerSource interface {
	BoundPlayer() (*data.BoundPlayer, error)
}

// Archiver stores computed comparisons; optional
type Archiver interface {
	SaveComparison(ctx context.Context, cmp stats.GameComparison, startedAt time.Time) error
}

// Broadcaster receives poller events
type Broadcaster interface {
	Broadcast(ev Event)
}

// NewGame is the payload of a game:new event
type NewGame struct {
	ProfileID  int64                `json:"profileId"`
	Game       aoe4world.Game       `json:"game"`
	Comparison stats.GameComparison `json:"comparison"`
}

// Poller watches the bound player's game history and announces finished games
type Poller struct {
	games       GameSource
	players     PlayerSource
	archive     Archiver
	hub         Broadcaster
	leaderboard string
	interval    time.Duration

	mu     sync.Mutex
	seen   *bloom.BloomFilter
	seeded map[int64]bool
}

// NewPoller creates a poller. archive may be nil.
func NewPoller(games GameSource, players PlayerSource, archive Archiver, hub Broadcaster, leaderboard string, interval time.Duration) *Poller {
	return &Poller{
		games:       games,
		players:     players,
		archive:     archive,
		hub:         hub,
		leaderboard: leaderboard,
		interval:    interval,
		seen:        bloom.NewWithEstimates(100000, 0.001),
		seeded:      make(map[int64]bool),
	}
}

// Run polls immediately and then every interval until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if n, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Poll] %v", err)
		} else if n > 0 {
			log.Printf("[Poll] %d new game(s)", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func seenKey(profileID, gameID int64) string {
	return fmt.Sprintf("%d:%d", profileID, gameID)
}

// Poll checks the bound player's latest games once and returns how many new
// games were announced. The first poll for a player only records what is
// already there.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bound, err := p.players.BoundPlayer()
	if err != nil {
		return 0, err
	}
	if bound == nil {
		return 0, nil
	}

	page, err := p.games.GetPlayerGames(ctx, bound.ProfileID, aoe4world.GamesQuery{Leaderboard: p.leaderboard})
	if err != nil {
		p.hub.Broadcast(Event{Type: EventPollError, Data: map[string]interface{}{
			"profileId": bound.ProfileID,
			"error":     err.Error(),
		}})
		return 0, fmt.Errorf("failed to fetch games for %d: %w", bound.ProfileID, err)
	}

	seeding := !p.seeded[bound.ProfileID]
	announced := 0

	// Oldest first so events arrive in play order
	for i := len(page.Games) - 1; i >= 0; i-- {
		g := page.Games[i]
		if g.Ongoing {
			continue
		}

		key := seenKey(bound.ProfileID, g.GameID)
		if p.seen.TestString(key) {
			continue
		}
		if seeding {
			p.seen.AddString(key)
			continue
		}

		summary, err := p.games.GetGameSummary(ctx, bound.ProfileID, g.GameID)
		if err != nil {
			// not marked seen, retried next poll
			log.Printf("[Poll] Summary for game %d unavailable: %v", g.GameID, err)
			continue
		}

		cmp := stats.CompareGame(summary)
		if p.archive != nil {
			if err := p.archive.SaveComparison(ctx, cmp, g.StartedAt); err != nil {
				log.Printf("[Poll] %v", err)
			}
		}

		p.seen.AddString(key)
		p.hub.Broadcast(Event{Type: EventGameNew, Data: NewGame{
			ProfileID:  bound.ProfileID,
			Game:       g,
			Comparison: cmp,
		}})
		announced++
	}

	p.seeded[bound.ProfileID] = true
	return announced, nil
}
