package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/articles-api/services"
	"go.uber.org/zap"
)

type LeaderboardReader interface {
	Top(ctx context.Context, n int) ([]services.LeaderboardEntry, error)
}

type LeaderboardController struct {
	board LeaderboardReader
	size  int
	log   *zap.Logger
}

// NewLeaderboardController accepts a nil board; the endpoint then answers 503.
func NewLeaderboardController(board LeaderboardReader, size int, log *zap.Logger) *LeaderboardController {
	return &LeaderboardController{board: board, size: size, log: log}
}

// GetLeaderboard godoc
// @Summary Most liked articles
// @Tags articles
// @Produce json
// @Success 200 {array} services.LeaderboardEntry
// @Failure 503 {object} map[string]string
// @Router /articles/leaderboard [get]
func (lc *LeaderboardController) GetLeaderboard(c *gin.Context) {
	if lc.board == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrLeaderboardDisabled.Error()})
		return
	}

	entries, err := lc.board.Top(c.Request.Context(), lc.size)
	if errors.Is(err, services.ErrLeaderboardDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		lc.log.Error("failed to read leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read leaderboard"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
