package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codebattle/internal/service"
)

const leaderboardLimit = 20

// LeaderboardHandler 處理排行榜的請求
type LeaderboardHandler struct {
	userService *service.UserService
}

// NewLeaderboardHandler 創建一個新的 LeaderboardHandler 實例
func NewLeaderboardHandler(userService *service.UserService) *LeaderboardHandler {
	return &LeaderboardHandler{userService: userService}
}

// GetLeaderboard 依積分由高到低回傳前幾名用戶
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	users, err := h.userService.Leaderboard(leaderboardLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法搜尋排行榜"})
		return
	}

	c.JSON(http.StatusOK, users)
}
