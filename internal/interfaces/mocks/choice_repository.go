package mocks

import (
	"context"

	"visualdilemma/internal/models"

	"github.com/stretchr/testify/mock"
)

// ChoiceRepository is a mock of interfaces.ChoiceRepository.
type ChoiceRepository struct {
	mock.Mock
}

func (m *ChoiceRepository) Insert(ctx context.Context, choice *models.UserChoice) error {
	args := m.Called(ctx, choice)
	return args.Error(0)
}

func (m *ChoiceRepository) ListBySession(ctx context.Context, sessionID, gameID string, limit int) ([]models.UserChoice, error) {
	args := m.Called(ctx, sessionID, gameID, limit)
	choices, _ := args.Get(0).([]models.UserChoice)
	return choices, args.Error(1)
}

func (m *ChoiceRepository) CountByOption(ctx context.Context, gameID string) ([]models.OptionCount, error) {
	args := m.Called(ctx, gameID)
	counts, _ := args.Get(0).([]models.OptionCount)
	return counts, args.Error(1)
}
