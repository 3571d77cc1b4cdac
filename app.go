package main

import (
	"context"
	"log"

	"aoe4companion/internal/aoe4world"
	"aoe4companion/internal/config"
	"aoe4companion/internal/data"
	"aoe4companion/internal/live"
	"aoe4companion/internal/stats"
)

// App struct
type App struct {
	ctx      context.Context
	cfg      *config.Config
	client   *aoe4world.Client
	store    *data.Store
	archive  *stats.Archive
	hub      *live.Hub
	poller   *live.Poller
	stopPoll context.CancelFunc
}

// NewApp creates a new App and opens the local store
func NewApp(cfg *config.Config) (*App, error) {
	store, err := data.NewStore(cfg.DBPath, cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}

	return &App{
		ctx:    context.Background(),
		cfg:    cfg,
		client: aoe4world.NewClient(cfg.APIBaseURL),
		store:  store,
		hub:    live.NewHub(),
	}, nil
}

// startup connects the optional archive and starts watching the bound player
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if a.cfg.DatabaseURL != "" {
		archive, err := stats.NewArchive(ctx, a.cfg.DatabaseURL)
		if err != nil {
			log.Printf("[App] Archive unavailable, continuing without it: %v", err)
		} else {
			a.archive = archive
		}
	}

	// a nil *Archive must not reach the poller as a non-nil interface
	var archiver live.Archiver
	if a.archive != nil {
		archiver = a.archive
	}
	a.poller = live.NewPoller(a.client, a.store, archiver, a.hub, a.cfg.Leaderboard, a.cfg.PollInterval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.stopPoll = cancel
	go a.poller.Run(pollCtx)

	log.Printf("[App] Watching for new games every %s", a.cfg.PollInterval)
}

// shutdown is called when the app is closing
func (a *App) shutdown(ctx context.Context) {
	if a.stopPoll != nil {
		a.stopPoll()
	}
	a.hub.Close()
	if a.archive != nil {
		a.archive.Close()
	}
	if err := a.store.Close(); err != nil {
		log.Printf("[App] %v", err)
	}
}
