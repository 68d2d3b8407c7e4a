package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	deckcache "visualdilemma/internal/cache"
	"visualdilemma/internal/interfaces"
	"visualdilemma/internal/models"

	"go.uber.org/zap"
)

// DeckService определяет бизнес-логику чтения и публикации колод.
type DeckService interface {
	ListActiveDecks(ctx context.Context) ([]models.DeckSummary, error)
	// GetActiveDeck возвращает активную колоду; неактивная считается отсутствующей.
	GetActiveDeck(ctx context.Context, gameID string) (*models.GameDeck, error)
	GetScene(ctx context.Context, gameID, sceneID string) (*models.Scene, error)
	CreateDeck(ctx context.Context, in models.DeckInput) (*models.GameDeck, error)
	// UpsertDeck создает или заменяет колоду gameID. created == true, если колода новая.
	UpsertDeck(ctx context.Context, gameID string, in models.DeckInput) (deck *models.GameDeck, created bool, err error)
	DeactivateDeck(ctx context.Context, gameID string) error
}

type deckServiceImpl struct {
	repo   interfaces.DeckRepository
	cache  interfaces.DeckCache
	logger *zap.Logger
}

// NewDeckService создает сервис колод. cache == nil отключает кэширование.
func NewDeckService(repo interfaces.DeckRepository, cache interfaces.DeckCache, logger *zap.Logger) DeckService {
	if cache == nil {
		cache = deckcache.NewNoopDeckCache()
	}
	return &deckServiceImpl{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("DeckService"),
	}
}

func (s *deckServiceImpl) ListActiveDecks(ctx context.Context) ([]models.DeckSummary, error) {
	decks, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

func (s *deckServiceImpl) GetActiveDeck(ctx context.Context, gameID string) (*models.GameDeck, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: game_id is required", models.ErrInvalidInput)
	}

	deck, err := s.cache.Get(ctx, gameID)
	if err == nil {
		return deck, nil
	}
	if !errors.Is(err, interfaces.ErrCacheMiss) {
		// Кэш недоступен - читаем из БД.
		s.logger.Warn("Deck cache lookup failed", zap.String("gameID", gameID), zap.Error(err))
	}

	deck, err = s.repo.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !deck.Active {
		return nil, models.ErrDeckNotFound
	}

	if err := s.cache.Set(ctx, deck); err != nil {
		s.logger.Warn("Failed to cache deck", zap.String("gameID", gameID), zap.Error(err))
	}
	return deck, nil
}

func (s *deckServiceImpl) GetScene(ctx context.Context, gameID, sceneID string) (*models.Scene, error) {
	deck, err := s.GetActiveDeck(ctx, gameID)
	if err != nil {
		return nil, err
	}
	scene, ok := deck.FindScene(strings.TrimSpace(sceneID))
	if !ok {
		return nil, models.ErrSceneNotFound
	}
	return scene, nil
}

func (s *deckServiceImpl) CreateDeck(ctx context.Context, in models.DeckInput) (*models.GameDeck, error) {
	deck := in.ToDeck()
	if err := s.repo.Create(ctx, deck); err != nil {
		return nil, err
	}
	s.logger.Info("Deck published", zap.String("gameID", deck.GameID), zap.String("version", deck.Version))
	return deck, nil
}

func (s *deckServiceImpl) UpsertDeck(ctx context.Context, gameID string, in models.DeckInput) (*models.GameDeck, bool, error) {
	gameID = strings.TrimSpace(gameID)
	if in.GameID == "" {
		in.GameID = gameID
	}
	if !strings.EqualFold(in.GameID, gameID) {
		return nil, false, fmt.Errorf("%w: game_id in body (%s) does not match path (%s)", models.ErrInvalidInput, in.GameID, gameID)
	}

	deck := in.ToDeck()
	created, err := s.repo.Upsert(ctx, deck)
	if err != nil {
		return nil, false, err
	}
	s.invalidate(ctx, deck.GameID)
	s.logger.Info("Deck upserted", zap.String("gameID", deck.GameID), zap.Bool("created", created))
	return deck, created, nil
}

func (s *deckServiceImpl) DeactivateDeck(ctx context.Context, gameID string) error {
	if err := s.repo.SetActive(ctx, gameID, false); err != nil {
		return err
	}
	s.invalidate(ctx, gameID)
	s.logger.Info("Deck deactivated", zap.String("gameID", gameID))
	return nil
}

// invalidate: ошибка кэша не отменяет запись, запись в кэше истечет по TTL.
func (s *deckServiceImpl) invalidate(ctx context.Context, gameID string) {
	if err := s.cache.Invalidate(ctx, gameID); err != nil {
		s.logger.Warn("Failed to invalidate deck cache", zap.String("gameID", gameID), zap.Error(err))
	}
}
