package stats

import (
	"context"
	"fmt"
	"log"
	"time"

	"aoe4companion/internal/buildorder"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRecord is one player's worker peaks in one game, as archived
type GameRecord struct {
	GameID       int64                  `json:"gameId"`
	ProfileID    int64                  `json:"profileId"`
	Name         string                 `json:"name"`
	Civilization string                 `json:"civilization"`
	Map          string                 `json:"map"`
	Result       string                 `json:"result"`
	Duration     int                    `json:"duration"`
	StartedAt    time.Time              `json:"startedAt"`
	Peaks        buildorder.WorkerPeaks `json:"peaks"`
}

// Archive keeps computed worker peaks in PostgreSQL so they can be charted
// across games without refetching summaries
type Archive struct {
	pool *pgxpool.Pool
}

// NewArchive connects to PostgreSQL and creates the schema if needed
func NewArchive(ctx context.Context, databaseURL string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	a := &Archive{pool: pool}
	if err := a.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("[Archive] Connected")
	return a, nil
}

func (a *Archive) init(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_worker_peaks (
			game_id BIGINT NOT NULL,
			profile_id BIGINT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			civilization TEXT NOT NULL DEFAULT '',
			map TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			duration INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ,
			max_villagers INTEGER NOT NULL DEFAULT 0,
			max_traders INTEGER NOT NULL DEFAULT 0,
			max_fishing INTEGER NOT NULL DEFAULT 0,
			complete BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (game_id, profile_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (a *Archive) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

const upsertGameSQL = `
	INSERT INTO game_worker_peaks (game_id, profile_id, name, civilization, map, result, duration,
		started_at, max_villagers, max_traders, max_fishing, complete)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (game_id, profile_id) DO UPDATE SET
		name = excluded.name,
		civilization = excluded.civilization,
		map = excluded.map,
		result = excluded.result,
		duration = excluded.duration,
		started_at = excluded.started_at,
		max_villagers = excluded.max_villagers,
		max_traders = excluded.max_traders,
		max_fishing = excluded.max_fishing,
		complete = excluded.complete
`

func upsertArgs(r GameRecord) []any {
	var startedAt *time.Time
	if !r.StartedAt.IsZero() {
		startedAt = &r.StartedAt
	}
	return []any{r.GameID, r.ProfileID, r.Name, r.Civilization, r.Map, r.Result, r.Duration,
		startedAt, r.Peaks.MaxVillagers, r.Peaks.MaxTraders, r.Peaks.MaxFishing, r.Peaks.Complete}
}

// SaveGame stores or replaces one record
func (a *Archive) SaveGame(ctx context.Context, r GameRecord) error {
	if _, err := a.pool.Exec(ctx, upsertGameSQL, upsertArgs(r)...); err != nil {
		return fmt.Errorf("failed to save game %d for %d: %w", r.GameID, r.ProfileID, err)
	}
	return nil
}

// SaveComparison stores every player row of a game in one batch
func (a *Archive) SaveComparison(ctx context.Context, cmp GameComparison, startedAt time.Time) error {
	records := ComparisonRecords(cmp, startedAt)
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertGameSQL, upsertArgs(r)...)
	}

	if err := a.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save game %d: %w", cmp.GameID, err)
	}
	return nil
}

// ComparisonRecords flattens a game comparison into archive rows
func ComparisonRecords(cmp GameComparison, startedAt time.Time) []GameRecord {
	records := make([]GameRecord, 0, len(cmp.Players))
	for _, p := range cmp.Players {
		records = append(records, GameRecord{
			GameID:       cmp.GameID,
			ProfileID:    p.ProfileID,
			Name:         p.Name,
			Civilization: p.Civilization,
			Map:          cmp.MapName,
			Result:       p.Result,
			Duration:     cmp.Duration,
			StartedAt:    startedAt,
			Peaks:        p.Peaks,
		})
	}
	return records
}

// PlayerHistory returns a player's archived games, newest first
func (a *Archive) PlayerHistory(ctx context.Context, profileID int64, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.pool.Query(ctx, `
		SELECT game_id, profile_id, name, civilization, map, result, duration,
			COALESCE(started_at, 'epoch'::timestamptz), max_villagers, max_traders, max_fishing, complete
		FROM game_worker_peaks
		WHERE profile_id = $1
		ORDER BY started_at DESC NULLS LAST, game_id DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]GameRecord, 0)
	for rows.Next() {
		var r GameRecord
		if err := rows.Scan(&r.GameID, &r.ProfileID, &r.Name, &r.Civilization, &r.Map, &r.Result, &r.Duration,
			&r.StartedAt, &r.Peaks.MaxVillagers, &r.Peaks.MaxTraders, &r.Peaks.MaxFishing, &r.Peaks.Complete); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if r.StartedAt.Equal(time.Unix(0, 0)) {
			r.StartedAt = time.Time{}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
