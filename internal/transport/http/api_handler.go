package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trivia-quiz/internal/domain"
)

// Health reports liveness.
func (h *WSHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GetScores returns the ranked leaderboard.
func (h *WSHandler) GetScores(c *gin.Context) {
	if h.leaderboard == nil {
		c.JSON(http.StatusOK, []domain.LeaderboardEntry{})
		return
	}
	c.JSON(http.StatusOK, h.leaderboard.Load(c.Request.Context()))
}

// GetCategories returns the categories offered by the question source.
func (h *WSHandler) GetCategories(c *gin.Context) {
	if h.categories == nil {
		c.JSON(http.StatusOK, []domain.Category{})
		return
	}
	cats, err := h.categories.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, cats)
}
