package handler

import (
	"net/http"
	"strconv"

	"visualdilemma/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

// @Summary Начать игровую сессию
// @Tags sessions
// @Produce json
// @Success 201 {object} sessionResponse
// @Failure 429 {object} models.ErrorResponse "Слишком много запросов"
// @Router /api/sessions [post]
func (h *Handler) startSession(c *gin.Context) {
	sessionID := h.choiceService.StartSession(c.Request.Context())
	sessionsStartedTotal.Inc()
	c.JSON(http.StatusCreated, sessionResponse{SessionID: sessionID})
}

// @Summary Записать выбор игрока
// @Description IP берется из запроса, страна и город из заголовков edge-прокси, если их нет в теле.
// @Tags choices
// @Accept json
// @Produce json
// @Param request body models.ChoiceInput true "Выбор"
// @Success 201 {object} models.UserChoice
// @Failure 400 {object} models.ErrorResponse "Нарушены ограничения записи"
// @Failure 429 {object} models.ErrorResponse "Слишком много запросов"
// @Router /api/choices [post]
func (h *Handler) recordChoice(c *gin.Context) {
	var in models.ChoiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("Invalid choice payload", zap.Error(err))
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	choice, err := h.choiceService.RecordChoice(c.Request.Context(), in, geoFromRequest(c))
	choicesRecordedTotal.WithLabelValues(statusLabel(err)).Inc()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, choice)
}

// @Summary Выборы сессии
// @Tags choices
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param game_id query string false "Фильтр по игре"
// @Param limit query int false "Максимум записей (по умолчанию 200, не больше 1000)"
// @Success 200 {array} models.UserChoice
// @Failure 400 {object} models.ErrorResponse
// @Router /api/sessions/{sessionId}/choices [get]
func (h *Handler) listSessionChoices(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	choices, err := h.choiceService.SessionChoices(c.Request.Context(), c.Param("sessionId"), c.Query("game_id"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, choices)
}
