package handler

import (
	"net/http"

	"visualdilemma/internal/middleware"
	"visualdilemma/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Опубликовать колоду
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.DeckInput true "Колода"
// @Success 201 {object} models.GameDeck
// @Failure 400 {object} models.ErrorResponse "Нарушены ограничения записи"
// @Failure 409 {object} models.ErrorResponse "game_id уже занят"
// @Router /api/admin/decks [post]
func (h *Handler) createDeck(c *gin.Context) {
	var in models.DeckInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	deck, err := h.deckService.CreateDeck(c.Request.Context(), in)
	deckPublicationsTotal.WithLabelValues("create", statusLabel(err)).Inc()
	if err != nil {
		h.logger.Warn("Deck creation failed",
			zap.String("gameID", in.GameID),
			zap.String("admin", c.GetString(middleware.ContextKeySubject)),
			zap.Error(err))
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deck)
}

// @Summary Создать или заменить колоду
// @Description created_at сохраняется, updated_at обновляется.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param gameId path string true "game_id"
// @Param request body models.DeckInput true "Колода"
// @Success 200 {object} models.GameDeck
// @Success 201 {object} models.GameDeck
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/decks/{gameId} [put]
func (h *Handler) upsertDeck(c *gin.Context) {
	var in models.DeckInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	deck, created, err := h.deckService.UpsertDeck(c.Request.Context(), c.Param("gameId"), in)
	deckPublicationsTotal.WithLabelValues("upsert", statusLabel(err)).Inc()
	if err != nil {
		h.logger.Warn("Deck upsert failed",
			zap.String("gameID", c.Param("gameId")),
			zap.String("admin", c.GetString(middleware.ContextKeySubject)),
			zap.Error(err))
		handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, deck)
}

// @Summary Деактивировать колоду
// @Tags admin
// @Security BearerAuth
// @Param gameId path string true "game_id"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/decks/{gameId}/deactivate [post]
func (h *Handler) deactivateDeck(c *gin.Context) {
	err := h.deckService.DeactivateDeck(c.Request.Context(), c.Param("gameId"))
	deckPublicationsTotal.WithLabelValues("deactivate", statusLabel(err)).Inc()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
