package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/satprep-api/internal/handler/dto"
	"github.com/yourusername/satprep-api/internal/service"
)

// QuestionHandler exposes read-only question bank metadata.
type QuestionHandler struct {
	pool *service.QuestionPoolService
}

// NewQuestionHandler creates the handler.
func NewQuestionHandler(pool *service.QuestionPoolService) *QuestionHandler {
	return &QuestionHandler{pool: pool}
}

// RegisterRoutes mounts the question routes on api.
func (h *QuestionHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	api.GET("/questions/topics", requireAuth, h.Topics)
}

// Topics handles GET /api/questions/topics?category=math.
func (h *QuestionHandler) Topics(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	topics, err := h.pool.Topics(c.Request.Context(), category)
	if err != nil {
		status, errorType := gameErrorStatus(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_type": errorType})
		return
	}
	if topics == nil {
		topics = []string{}
	}
	c.JSON(http.StatusOK, dto.TopicsResponse{Category: category, Topics: topics})
}
