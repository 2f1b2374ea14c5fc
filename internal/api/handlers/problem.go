package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codebattle/internal/service"
)

// ProblemHandler 處理與題目相關的請求
type ProblemHandler struct {
	problemService *service.ProblemService
}

// NewProblemHandler 創建一個新的 ProblemHandler 實例
func NewProblemHandler(problemService *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: problemService}
}

// ListProblems 處理獲取題目列表的請求，列表不包含測試資料
func (h *ProblemHandler) ListProblems(c *gin.Context) {
	problems, err := h.problemService.ListProblems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法搜尋題目列表"})
		return
	}

	c.JSON(http.StatusOK, problems)
}

// GetProblem 處理獲取單一題目的請求
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	problemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的題目 ID"})
		return
	}

	problem, err := h.problemService.GetProblem(uint(problemID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "題目不存在"})
		return
	}

	c.JSON(http.StatusOK, problem)
}
