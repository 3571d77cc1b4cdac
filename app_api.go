package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"aoe4companion/internal/aoe4world"
	"aoe4companion/internal/live"
	"aoe4companion/internal/stats"

	"github.com/gin-gonic/gin"
)

// statsMonths is how far back the monthly win-rate chart goes
const statsMonths = 6

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// router builds the HTTP API the renderer talks to
func (a *App) router() *gin.Engine {
	g := gin.New()
	g.Use(gin.ErrorLogger())
	g.Use(gin.Recovery())

	api := g.Group("/api")
	{
		api.GET("/players/search", a.searchPlayers)
		api.GET("/players/:id", a.getPlayer)
		api.GET("/players/:id/games", a.getPlayerGames)
		api.GET("/players/:id/stats", a.getPlayerStats)
		api.GET("/players/:id/history", a.getPlayerHistory)
		api.GET("/players/:id/games/:gameId/peaks", a.getGamePeaks)

		api.GET("/leaderboard", a.getLeaderboard)
		api.GET("/civilizations", a.getCivilizations)
		api.GET("/maps", a.getMaps)

		api.GET("/me", a.getMe)
		api.PUT("/me", a.bindMe)
		api.DELETE("/me", a.unbindMe)

		api.GET("/history", a.getSearchHistory)
		api.DELETE("/history", a.clearSearchHistory)
	}

	g.GET("/ws", gin.WrapH(a.hub))

	return g
}

// fail maps client errors onto HTTP statuses
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, aoe4world.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, aoe4world.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, aoe4world.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		log.Printf("[Server] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryPage(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		badRequest(c, "invalid page")
		return 0, false
	}
	return page, true
}

// queryLimit reads ?limit=, capped at maxHistoryLimit
func queryLimit(c *gin.Context) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 1 {
		badRequest(c, "invalid limit")
		return 0, false
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, true
}

func (a *App) leaderboard(c *gin.Context) string {
	return c.DefaultQuery("leaderboard", a.cfg.Leaderboard)
}

func (a *App) searchPlayers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	result, err := a.client.SearchPlayers(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}

	if utf8.RuneCountInString(q) >= aoe4world.MinSearchLength {
		if err := a.store.AddSearch(q); err != nil {
			log.Printf("[Server] %v", err)
		}
	}
	c.JSON(http.StatusOK, result)
}

func (a *App) getPlayer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	player, err := a.client.GetPlayer(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

// gameView is a game listing row with its relative start time
type gameView struct {
	aoe4world.Game
	TimeAgo string `json:"timeAgo"`
}

func (a *App) getPlayerGames(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}

	games, err := a.client.GetPlayerGames(c.Request.Context(), id, aoe4world.GamesQuery{
		Leaderboard: a.leaderboard(c),
		Page:        page,
	})
	if err != nil {
		fail(c, err)
		return
	}

	now := time.Now()
	views := make([]gameView, 0, len(games.Games))
	for _, g := range games.Games {
		views = append(views, gameView{Game: g, TimeAgo: stats.TimeAgo(g.StartedAt, now)})
	}

	c.JSON(http.StatusOK, gin.H{
		"totalCount": games.TotalCount,
		"page":       games.Page,
		"perPage":    games.PerPage,
		"games":      views,
	})
}

func (a *App) getPlayerStats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	games, err := a.client.GetPlayerGames(c.Request.Context(), id, aoe4world.GamesQuery{
		Leaderboard: a.leaderboard(c),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"monthly":       stats.MonthlyWinRates(games.Games, id, time.Now(), statsMonths),
		"civilizations": stats.CivilizationBreakdown(games.Games, id),
		"maps":          stats.MapBreakdown(games.Games, id),
	})
}

func (a *App) getPlayerHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	if a.archive == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "archive not configured"})
		return
	}

	records, err := a.archive.PlayerHistory(c.Request.Context(), id, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (a *App) getGamePeaks(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	gameID, ok := paramID(c, "gameId")
	if !ok {
		return
	}

	summary, err := a.client.GetGameSummary(c.Request.Context(), id, gameID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats.CompareGame(summary))
}

func (a *App) getLeaderboard(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}

	board, err := a.client.GetLeaderboard(c.Request.Context(), a.leaderboard(c), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (a *App) getCivilizations(c *gin.Context) {
	civs, err := a.client.GetCivilizationStats(c.Request.Context(), a.leaderboard(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, civs)
}

func (a *App) getMaps(c *gin.Context) {
	maps, err := a.client.GetMapStats(c.Request.Context(), a.leaderboard(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, maps)
}

func (a *App) getMe(c *gin.Context) {
	bound, err := a.store.BoundPlayer()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": bound})
}

func (a *App) bindMe(c *gin.Context) {
	var req struct {
		ProfileID int64 `json:"profileId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ProfileID <= 0 {
		badRequest(c, "profileId is required")
		return
	}

	// Confirms the profile exists and picks up the current name
	player, err := a.client.GetPlayer(c.Request.Context(), req.ProfileID)
	if err != nil {
		fail(c, err)
		return
	}

	if err := a.store.BindPlayer(req.ProfileID, player.Name); err != nil {
		fail(c, err)
		return
	}
	bound, err := a.store.BoundPlayer()
	if err != nil {
		fail(c, err)
		return
	}

	a.hub.Broadcast(live.Event{Type: live.EventPlayerBound, Data: bound})
	c.JSON(http.StatusOK, gin.H{"player": bound})
}

func (a *App) unbindMe(c *gin.Context) {
	if err := a.store.UnbindPlayer(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) getSearchHistory(c *gin.Context) {
	history, err := a.store.SearchHistory()
	if err != nil {
		fail(c, err)
		return
	}
	if history == nil {
		history = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (a *App) clearSearchHistory(c *gin.Context) {
	if err := a.store.ClearSearchHistory(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
