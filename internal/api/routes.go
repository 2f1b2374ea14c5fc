package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codebattle/internal/api/handlers"
	"codebattle/internal/middleware"
	"codebattle/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	problemHandler := handlers.NewProblemHandler(services.Problem)
	submissionHandler := handlers.NewSubmissionHandler(services.Submission)
	leaderboardHandler := handlers.NewLeaderboardHandler(services.User)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 題目相關
		problems := authorized.Group("/problems")
		{
			problems.GET("", problemHandler.ListProblems)    // 獲取題目列表
			problems.GET("/:id", problemHandler.GetProblem)  // 獲取題目內容
		}

		// 評測相關
		authorized.POST("/submissions", submissionHandler.Submit) // 正式提交
		authorized.POST("/run", submissionHandler.Run)            // 自訂輸入試執行

		// 排行榜
		authorized.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		// WebSocket 連接點（大廳與對戰共用同一條連線）
		authorized.GET("/ws", wsHandler.HandleWebSocket)
	}
}
