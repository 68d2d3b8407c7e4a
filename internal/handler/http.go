package handler

import (
	"context"

	"visualdilemma/internal/middleware"
	"visualdilemma/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger проверяет доступность зависимости для /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler обслуживает HTTP API колод и выборов.
type Handler struct {
	deckService   service.DeckService
	choiceService service.ChoiceService
	db            Pinger
	jwtSecret     string
	logger        *zap.Logger
}

// NewHandler создает обработчик. Пустой jwtSecret отключает админские маршруты.
func NewHandler(deckService service.DeckService, choiceService service.ChoiceService, db Pinger, jwtSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		deckService:   deckService,
		choiceService: choiceService,
		db:            db,
		jwtSecret:     jwtSecret,
		logger:        logger.Named("Handler"),
	}
}

// RegisterRoutes регистрирует маршруты API. writeLimiter == nil отключает лимит
// на создание сессий и запись выборов.
func (h *Handler) RegisterRoutes(router *gin.Engine, writeLimiter gin.HandlerFunc) {
	router.GET("/ready", h.ready)

	if writeLimiter == nil {
		writeLimiter = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api")
	{
		api.POST("/sessions", writeLimiter, h.startSession)
		api.GET("/sessions/:sessionId/choices", h.listSessionChoices)

		api.GET("/decks", h.listDecks)
		api.GET("/decks/:gameId", h.getDeck)
		api.GET("/decks/:gameId/scenes/:sceneId", h.getScene)
		api.GET("/decks/:gameId/stats", h.getDeckStats)

		api.POST("/choices", writeLimiter, h.recordChoice)
	}

	if h.jwtSecret == "" {
		h.logger.Warn("JWT_SECRET is not configured, admin routes are disabled")
		return
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminAuth(h.jwtSecret, h.logger))
	{
		admin.POST("/decks", h.createDeck)
		admin.PUT("/decks/:gameId", h.upsertDeck)
		admin.POST("/decks/:gameId/deactivate", h.deactivateDeck)
	}
}
