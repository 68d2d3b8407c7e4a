package mocks

import (
	"context"

	"visualdilemma/internal/models"

	"github.com/stretchr/testify/mock"
)

// DeckRepository is a mock of interfaces.DeckRepository.
type DeckRepository struct {
	mock.Mock
}

func (m *DeckRepository) Create(ctx context.Context, deck *models.GameDeck) error {
	args := m.Called(ctx, deck)
	return args.Error(0)
}

func (m *DeckRepository) Upsert(ctx context.Context, deck *models.GameDeck) (bool, error) {
	args := m.Called(ctx, deck)
	return args.Bool(0), args.Error(1)
}

func (m *DeckRepository) GetByGameID(ctx context.Context, gameID string) (*models.GameDeck, error) {
	args := m.Called(ctx, gameID)
	deck, _ := args.Get(0).(*models.GameDeck)
	return deck, args.Error(1)
}

func (m *DeckRepository) ListActive(ctx context.Context) ([]models.DeckSummary, error) {
	args := m.Called(ctx)
	decks, _ := args.Get(0).([]models.DeckSummary)
	return decks, args.Error(1)
}

func (m *DeckRepository) SetActive(ctx context.Context, gameID string, active bool) error {
	args := m.Called(ctx, gameID, active)
	return args.Error(0)
}
