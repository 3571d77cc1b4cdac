package live

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aoe4companion/internal/aoe4world"
	"aoe4companion/internal/data"
	"aoe4companion/internal/stats"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conns := make([]*websocket.Conn, 2)
	for i := range conns {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		defer conn.Close()
		conns[i] = conn
	}
	waitFor(t, func() bool { return hub.Clients() == 2 })

	hub.Broadcast(Event{Type: EventPlayerBound, Data: map[string]interface{}{"profileId": 42}})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev struct {
			Type string `json:"type"`
			Data struct {
				ProfileID int64 `json:"profileId"`
			} `json:"data"`
		}
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("client %d ReadJSON failed: %v", i, err)
		}
		if ev.Type != EventPlayerBound || ev.Data.ProfileID != 42 {
			t.Errorf("client %d got %+v", i, ev)
		}
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitFor(t, func() bool { return hub.Clients() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })

	hub.Close()
	// Broadcasting after close must not panic
	hub.Broadcast(Event{Type: EventGameNew})
}

type fakeGames struct {
	mu          sync.Mutex
	games       []aoe4world.Game
	err         error
	summaryErr  map[int64]error
	summaryHits int
}

func (f *fakeGames) GetPlayerGames(ctx context.Context, profileID int64, q aoe4world.GamesQuery) (*aoe4world.GamesPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &aoe4world.GamesPage{Games: append([]aoe4world.Game(nil), f.games...)}, nil
}

func (f *fakeGames) GetGameSummary(ctx context.Context, profileID, gameID int64) (*aoe4world.GameSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryHits++
	if err := f.summaryErr[gameID]; err != nil {
		return nil, err
	}
	return &aoe4world.GameSummary{
		GameID: gameID,
		Players: []aoe4world.SummaryPlayer{{
			ProfileID:  profileID,
			BuildOrder: []byte(`[{"type":"Unit","icon":"icons/races/common/units/villager","finished":[0,10,20]}]`),
		}},
	}, nil
}

func (f *fakeGames) push(g aoe4world.Game) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// newest first, like the API
	f.games = append([]aoe4world.Game{g}, f.games...)
}

type fakePlayers struct{ bound *data.BoundPlayer }

func (f fakePlayers) BoundPlayer() (*data.BoundPlayer, error) { return f.bound, nil }

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Broadcast(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type fakeArchive struct{ saved []stats.GameComparison }

func (f *fakeArchive) SaveComparison(ctx context.Context, cmp stats.GameComparison, startedAt time.Time) error {
	f.saved = append(f.saved, cmp)
	return nil
}

func TestPoller_SeedsThenAnnounces(t *testing.T) {
	games := &fakeGames{games: []aoe4world.Game{{GameID: 2}, {GameID: 1}}}
	rec := &recorder{}
	archive := &fakeArchive{}
	p := NewPoller(games, fakePlayers{&data.BoundPlayer{ProfileID: 42}}, archive, rec, "rm_solo", time.Minute)
	ctx := context.Background()

	n, err := p.Poll(ctx)
	if err != nil || n != 0 {
		t.Fatalf("first Poll = %d, %v; want 0, nil", n, err)
	}
	if len(rec.events) != 0 || games.summaryHits != 0 {
		t.Fatalf("seeding poll should be silent, got %d events, %d summaries", len(rec.events), games.summaryHits)
	}

	games.push(aoe4world.Game{GameID: 3, Ongoing: true})
	if n, _ := p.Poll(ctx); n != 0 {
		t.Errorf("ongoing game announced")
	}

	games.mu.Lock()
	games.games[0].Ongoing = false
	games.mu.Unlock()
	games.push(aoe4world.Game{GameID: 4})

	n, err = p.Poll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Poll = %d, %v; want 2, nil", n, err)
	}
	if len(rec.events) != 2 || len(archive.saved) != 2 {
		t.Fatalf("Expected 2 events and 2 archived games, got %d and %d", len(rec.events), len(archive.saved))
	}

	first := rec.events[0].Data.(NewGame)
	if rec.events[0].Type != EventGameNew || first.Game.GameID != 3 {
		t.Errorf("Expected game 3 first, got %+v", rec.events[0])
	}
	row, ok := first.Comparison.Find(42)
	if !ok || row.Peaks.MaxVillagers != 3 {
		t.Errorf("Unexpected comparison row: %+v", row)
	}

	if n, _ := p.Poll(ctx); n != 0 {
		t.Errorf("games announced twice")
	}
}

func TestPoller_RetriesFailedSummary(t *testing.T) {
	games := &fakeGames{summaryErr: map[int64]error{5: errors.New("not ready")}}
	rec := &recorder{}
	p := NewPoller(games, fakePlayers{&data.BoundPlayer{ProfileID: 42}}, nil, rec, "", time.Minute)
	ctx := context.Background()

	p.Poll(ctx)
	games.push(aoe4world.Game{GameID: 5})

	if n, _ := p.Poll(ctx); n != 0 {
		t.Fatalf("Expected failed summary to be skipped")
	}

	games.mu.Lock()
	delete(games.summaryErr, 5)
	games.mu.Unlock()

	if n, _ := p.Poll(ctx); n != 1 {
		t.Errorf("Expected game to be announced once summary is available")
	}
}

func TestPoller_NoBoundPlayer(t *testing.T) {
	games := &fakeGames{games: []aoe4world.Game{{GameID: 1}}}
	p := NewPoller(games, fakePlayers{}, nil, &recorder{}, "", time.Minute)

	n, err := p.Poll(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Poll = %d, %v; want 0, nil", n, err)
	}
}

func TestPoller_FetchError(t *testing.T) {
	games := &fakeGames{err: aoe4world.ErrUpstream}
	rec := &recorder{}
	p := NewPoller(games, fakePlayers{&data.BoundPlayer{ProfileID: 42}}, nil, rec, "", time.Minute)

	_, err := p.Poll(context.Background())
	if !errors.Is(err, aoe4world.ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Type != EventPollError {
		t.Errorf("Expected a poll:error event, got %+v", rec.events)
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	p := NewPoller(&fakeGames{}, fakePlayers{}, nil, &recorder{}, "", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
