package interfaces

import (
	"context"

	"visualdilemma/internal/models"
)

//go:generate mockery --name DeckRepository --output ./mocks --outpkg mocks --case=underscore
type DeckRepository interface {
	// Create вставляет новую колоду. Дубликат game_id (без учета регистра) -> models.ErrDeckAlreadyExists.
	Create(ctx context.Context, deck *models.GameDeck) error
	// Upsert создает или заменяет колоду по game_id, сохраняя created_at. created сообщает, была ли вставка.
	Upsert(ctx context.Context, deck *models.GameDeck) (created bool, err error)
	// GetByGameID возвращает колоду независимо от active. Нет колоды -> models.ErrDeckNotFound.
	GetByGameID(ctx context.Context, gameID string) (*models.GameDeck, error)
	// ListActive возвращает активные колоды, отсортированные по title.
	ListActive(ctx context.Context) ([]models.DeckSummary, error)
	// SetActive переключает флаг active (мягкое удаление).
	SetActive(ctx context.Context, gameID string, active bool) error
}
