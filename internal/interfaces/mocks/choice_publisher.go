package mocks

import (
	"context"

	"visualdilemma/internal/models"

	"github.com/stretchr/testify/mock"
)

// ChoiceEventPublisher is a mock of interfaces.ChoiceEventPublisher.
type ChoiceEventPublisher struct {
	mock.Mock
}

func (m *ChoiceEventPublisher) PublishChoice(ctx context.Context, choice models.UserChoice) error {
	args := m.Called(ctx, choice)
	return args.Error(0)
}
