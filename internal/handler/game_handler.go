package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/handler/dto"
	"github.com/yourusername/satprep-api/internal/middleware"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service"
)

// GameHandler exposes the 1v1 game actions.
type GameHandler struct {
	duelService *service.DuelService
}

// NewGameHandler creates the handler.
func NewGameHandler(duelService *service.DuelService) *GameHandler {
	return &GameHandler{duelService: duelService}
}

// RegisterRoutes mounts the game routes on api. pollLimit guards reads,
// actionLimit guards state changes.
func (h *GameHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth, pollLimit, actionLimit gin.HandlerFunc) {
	games := api.Group("/games", requireAuth)
	games.POST("", actionLimit, h.CreateGame)
	games.GET("/history", pollLimit, h.History)

	game := games.Group("/:code", middleware.ExtractGameCode("code", middleware.ContextGameCode))
	game.GET("", pollLimit, h.GetGame)
	game.POST("/join", actionLimit, h.JoinGame)
	game.POST("/ready", actionLimit, h.MarkReady)
	game.POST("/start", actionLimit, h.StartGame)
	game.POST("/answer", actionLimit, h.SubmitAnswer)
	game.POST("/next", actionLimit, h.NextRound)
	game.POST("/forfeit", actionLimit, h.Forfeit)
	game.POST("/rematch", actionLimit, h.RequestRematch)
	game.POST("/rematch/create", actionLimit, h.CreateRematch)
}

// CreateGameRequest представляет запрос на создание игры
type CreateGameRequest struct {
	Category     string `json:"category" binding:"required,max=20"`
	Topic        string `json:"topic" binding:"omitempty,max=100"`
	NumRounds    int    `json:"num_rounds" binding:"required"`
	Mode         string `json:"mode" binding:"omitempty,max=10"`
	TimeLimitSec int    `json:"time_limit_sec" binding:"omitempty,min=0"`
}

// SubmitAnswerRequest carries one answer. Round is optional.
type SubmitAnswerRequest struct {
	Answer string `json:"answer" binding:"required,max=500"`
	Round  int    `json:"round" binding:"omitempty,min=1"`
}

// NextRoundRequest names the round the caller wants to close.
type NextRoundRequest struct {
	ExpectedRound int `json:"expected_round" binding:"required,min=1"`
}

// CreateGame handles POST /api/games.
func (h *GameHandler) CreateGame(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	game, err := h.duelService.CreateGame(c.Request.Context(), userID, entity.GameConfig{
		Category:     req.Category,
		Topic:        req.Topic,
		NumRounds:    req.NumRounds,
		Mode:         req.Mode,
		TimeLimitSec: req.TimeLimitSec,
	})
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewGameResponse(game, userID))
}

// GetGame handles GET /api/games/:code.
func (h *GameHandler) GetGame(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	game, err := h.duelService.GetGame(c.Request.Context(), gameCode(c), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewGameResponse(game, userID))
}

// JoinGame handles POST /api/games/:code/join.
func (h *GameHandler) JoinGame(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	res, err := h.duelService.Join(c.Request.Context(), gameCode(c), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.JoinGameResponse{
		Game:          dto.NewGameResponse(res.Game, userID),
		AlreadyJoined: res.AlreadyJoined,
	})
}

// MarkReady handles POST /api/games/:code/ready.
func (h *GameHandler) MarkReady(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	game, err := h.duelService.MarkReady(c.Request.Context(), gameCode(c), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewGameResponse(game, userID))
}

// StartGame handles POST /api/games/:code/start.
func (h *GameHandler) StartGame(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	game, err := h.duelService.Start(c.Request.Context(), gameCode(c), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewGameResponse(game, userID))
}

// SubmitAnswer handles POST /api/games/:code/answer.
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	res, err := h.duelService.SubmitAnswer(c.Request.Context(), gameCode(c), userID, service.SubmitAnswerInput{
		Answer: req.Answer,
		Round:  req.Round,
	})
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmitAnswerResponse(res.Game, res.IsCorrect, res.Awarded, res.Score, userID))
}

// NextRound handles POST /api/games/:code/next.
func (h *GameHandler) NextRound(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req NextRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	res, err := h.duelService.NextRound(c.Request.Context(), gameCode(c), userID, req.ExpectedRound)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewNextRoundResponse(res.Game, res.Advanced, userID))
}

// Forfeit handles POST /api/games/:code/forfeit.
func (h *GameHandler) Forfeit(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	res, err := h.duelService.Forfeit(c.Request.Context(), gameCode(c), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ForfeitResponse{
		WinnerID: res.WinnerID,
		Game:     dto.NewGameResponse(res.Game, userID),
	})
}

// RequestRematch handles POST /api/games/:code/rematch.
func (h *GameHandler) RequestRematch(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	res, err := h.duelService.RequestRematch(c.Request.Context(), gameCode(c), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RematchRequestResponse{
		RematchReadyCount: res.ReadyCount,
		RematchCode:       res.RematchCode,
		Game:              dto.NewGameResponse(res.Game, userID),
	})
}

// CreateRematch handles POST /api/games/:code/rematch/create.
func (h *GameHandler) CreateRematch(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	res, err := h.duelService.CreateRematch(c.Request.Context(), gameCode(c), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.CreateRematchResponse{
		NewCode: res.Code,
		Config:  res.Config,
		Created: res.Created,
	})
}

// History handles GET /api/games/history?limit=N.
func (h *GameHandler) History(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "error_type": "validation"})
			return
		}
		limit = n
	}

	games, err := h.duelService.History(c.Request.Context(), userID, limit)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	out := make([]dto.GameSummaryResponse, 0, len(games))
	for i := range games {
		out = append(out, dto.NewGameSummaryResponse(&games[i], userID))
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

func (h *GameHandler) userID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		h.handleGameError(c, apperrors.ErrUnauthorized)
		return 0, false
	}
	return userID, true
}

func gameCode(c *gin.Context) string {
	return c.GetString(middleware.ContextGameCode)
}

// gameErrorStatus maps service errors to an HTTP status and a stable error_type.
func gameErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, apperrors.ErrNotJoinable):
		return http.StatusBadRequest, "not_joinable"
	case errors.Is(err, apperrors.ErrGameFull):
		return http.StatusBadRequest, "game_full"
	case errors.Is(err, apperrors.ErrNotReady):
		return http.StatusBadRequest, "not_ready"
	case errors.Is(err, apperrors.ErrAlreadyAnswered):
		return http.StatusBadRequest, "already_answered"
	case errors.Is(err, apperrors.ErrAlreadyJoined):
		return http.StatusBadRequest, "already_joined"
	case errors.Is(err, apperrors.ErrNoActiveQuestion):
		return http.StatusBadRequest, "no_active_question"
	case errors.Is(err, apperrors.ErrTimeExpired):
		return http.StatusBadRequest, "time_expired"
	case errors.Is(err, apperrors.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrSupplierUnavailable):
		return http.StatusServiceUnavailable, "supplier_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *GameHandler) handleGameError(c *gin.Context, err error) {
	status, errorType := gameErrorStatus(err)
	switch status {
	case http.StatusInternalServerError:
		log.Printf("ERROR: Internal server error in GameHandler (%s %s): %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error", "error_type": errorType})
	case http.StatusServiceUnavailable:
		log.Printf("[GameHandler] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.Header("Retry-After", "1")
		c.JSON(status, gin.H{"error": err.Error(), "error_type": errorType})
	default:
		c.JSON(status, gin.H{"error": err.Error(), "error_type": errorType})
	}
}
