package mocks

import (
	"context"

	"visualdilemma/internal/models"

	"github.com/stretchr/testify/mock"
)

// DeckCache is a mock of interfaces.DeckCache.
type DeckCache struct {
	mock.Mock
}

func (m *DeckCache) Get(ctx context.Context, gameID string) (*models.GameDeck, error) {
	args := m.Called(ctx, gameID)
	deck, _ := args.Get(0).(*models.GameDeck)
	return deck, args.Error(1)
}

func (m *DeckCache) Set(ctx context.Context, deck *models.GameDeck) error {
	args := m.Called(ctx, deck)
	return args.Error(0)
}

func (m *DeckCache) Invalidate(ctx context.Context, gameID string) error {
	args := m.Called(ctx, gameID)
	return args.Error(0)
}
