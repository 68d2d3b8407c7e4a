package interfaces

import (
	"context"

	"visualdilemma/internal/models"
)

// ChoiceRepository хранит события выбора. Только добавление: методов изменения нет.
//
//go:generate mockery --name ChoiceRepository --output ./mocks --outpkg mocks --case=underscore
type ChoiceRepository interface {
	Insert(ctx context.Context, choice *models.UserChoice) error
	// ListBySession возвращает выборы сессии по времени; пустой gameID - по всем играм.
	ListBySession(ctx context.Context, sessionID, gameID string, limit int) ([]models.UserChoice, error)
	// CountByOption считает выборы по (scene_id, chosen_option) для игры.
	CountByOption(ctx context.Context, gameID string) ([]models.OptionCount, error)
}
