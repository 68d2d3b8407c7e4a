package interfaces

import (
	"context"

	"visualdilemma/internal/models"
)

// ChoiceEventPublisher отправляет записанные выборы во внешнюю аналитику.
//
//go:generate mockery --name ChoiceEventPublisher --output ./mocks --outpkg mocks --case=underscore
type ChoiceEventPublisher interface {
	PublishChoice(ctx context.Context, choice models.UserChoice) error
}
