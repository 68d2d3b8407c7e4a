package interfaces

import (
	"context"
	"errors"

	"visualdilemma/internal/models"
)

// ErrCacheMiss - в кэше нет записи.
var ErrCacheMiss = errors.New("cache miss")

//go:generate mockery --name DeckCache --output ./mocks --outpkg mocks --case=underscore
type DeckCache interface {
	Get(ctx context.Context, gameID string) (*models.GameDeck, error)
	Set(ctx context.Context, deck *models.GameDeck) error
	Invalidate(ctx context.Context, gameID string) error
}
