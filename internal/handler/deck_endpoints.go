package handler

import (
	"net/http"

	"visualdilemma/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type statsResponse struct {
	GameID string              `json:"game_id"`
	Scenes []models.SceneStats `json:"scenes"`
}

// @Summary Активные колоды
// @Tags decks
// @Produce json
// @Success 200 {array} models.DeckSummary
// @Router /api/decks [get]
func (h *Handler) listDecks(c *gin.Context) {
	decks, err := h.deckService.ListActiveDecks(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list decks", zap.Error(err))
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, decks)
}

// @Summary Активная колода
// @Tags decks
// @Produce json
// @Param gameId path string true "game_id (без учета регистра)"
// @Success 200 {object} models.GameDeck
// @Failure 404 {object} models.ErrorResponse "Колода не найдена или неактивна"
// @Router /api/decks/{gameId} [get]
func (h *Handler) getDeck(c *gin.Context) {
	deck, err := h.deckService.GetActiveDeck(c.Request.Context(), c.Param("gameId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deck)
}

// @Summary Сцена активной колоды
// @Tags decks
// @Produce json
// @Param gameId path string true "game_id"
// @Param sceneId path string true "scene_id"
// @Success 200 {object} models.Scene
// @Failure 404 {object} models.ErrorResponse
// @Router /api/decks/{gameId}/scenes/{sceneId} [get]
func (h *Handler) getScene(c *gin.Context) {
	scene, err := h.deckService.GetScene(c.Request.Context(), c.Param("gameId"), c.Param("sceneId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scene)
}

// @Summary Статистика выборов по сценам
// @Tags decks
// @Produce json
// @Param gameId path string true "game_id"
// @Success 200 {object} statsResponse
// @Router /api/decks/{gameId}/stats [get]
func (h *Handler) getDeckStats(c *gin.Context) {
	gameID := c.Param("gameId")
	stats, err := h.choiceService.GameStats(c.Request.Context(), gameID)
	if err != nil {
		h.logger.Error("Failed to compute deck stats", zap.String("gameID", gameID), zap.Error(err))
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{GameID: gameID, Scenes: stats})
}

func (h *Handler) ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
