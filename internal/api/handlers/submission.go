package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codebattle/internal/judge"
	"codebattle/internal/service"
)

// SubmissionHandler 處理程式碼提交與試執行的請求
type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

// NewSubmissionHandler 創建一個新的 SubmissionHandler 實例
func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// SubmitInput 定義提交請求的結構
type SubmitInput struct {
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"required"`
	ProblemID uint   `json:"problemId" binding:"required"`
	RoomID    string `json:"roomId"`
}

// Submit 處理正式提交：對全部測試資料評測並計分
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var input SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	result, err := h.submissionService.Submit(c.Request.Context(),
		userID.(uint), input.ProblemID, input.RoomID, input.Code, input.Language)
	if err != nil {
		switch {
		case errors.Is(err, judge.ErrUnsupportedLanguage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "不支援的語言"})
		case errors.Is(err, service.ErrProblemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "題目不存在"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "評測失敗"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunInput 定義試執行請求的結構
type RunInput struct {
	Code        string `json:"code" binding:"required"`
	Language    string `json:"language" binding:"required"`
	CustomInput string `json:"customInput"`
}

// Run 處理以自訂輸入試執行程式碼的請求
func (h *SubmissionHandler) Run(c *gin.Context) {
	var input RunInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.submissionService.Run(c.Request.Context(), input.Code, input.Language, input.CustomInput)
	if err != nil {
		if errors.Is(err, judge.ErrUnsupportedLanguage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "不支援的語言"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "執行失敗"})
		return
	}

	c.JSON(http.StatusOK, result)
}
