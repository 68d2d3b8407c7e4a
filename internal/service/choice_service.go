package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"visualdilemma/internal/interfaces"
	"visualdilemma/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChoiceService записывает решения игроков и отдает статистику по ним.
type ChoiceService interface {
	// StartSession выдает новый идентификатор игровой сессии.
	StartSession(ctx context.Context) string
	// RecordChoice записывает событие. Гео-данные из запроса используются, если клиент их не передал.
	RecordChoice(ctx context.Context, in models.ChoiceInput, geo models.GeoLocation) (*models.UserChoice, error)
	SessionChoices(ctx context.Context, sessionID, gameID string, limit int) ([]models.UserChoice, error)
	GameStats(ctx context.Context, gameID string) ([]models.SceneStats, error)
}

type choiceServiceImpl struct {
	repo      interfaces.ChoiceRepository
	publisher interfaces.ChoiceEventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewChoiceService создает сервис. publisher == nil отключает публикацию событий.
func NewChoiceService(repo interfaces.ChoiceRepository, publisher interfaces.ChoiceEventPublisher, logger *zap.Logger) ChoiceService {
	return newChoiceService(repo, publisher, logger, time.Now)
}

func newChoiceService(repo interfaces.ChoiceRepository, publisher interfaces.ChoiceEventPublisher, logger *zap.Logger, now func() time.Time) *choiceServiceImpl {
	return &choiceServiceImpl{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("ChoiceService"),
		now:       now,
	}
}

func (s *choiceServiceImpl) StartSession(ctx context.Context) string {
	sessionID := uuid.NewString()
	s.logger.Debug("Session started", zap.String("sessionID", sessionID))
	return sessionID
}

func (s *choiceServiceImpl) RecordChoice(ctx context.Context, in models.ChoiceInput, geo models.GeoLocation) (*models.UserChoice, error) {
	now := s.now()
	timestamp := now
	// Время клиента принимаем, если оно не из будущего.
	if in.Timestamp != nil && !in.Timestamp.IsZero() && !in.Timestamp.After(now) {
		timestamp = *in.Timestamp
	}

	choice := &models.UserChoice{
		SessionID:    strings.TrimSpace(in.SessionID),
		GameID:       strings.TrimSpace(in.GameID),
		SceneID:      strings.TrimSpace(in.SceneID),
		ChosenOption: strings.TrimSpace(in.ChosenOption),
		Timestamp:    timestamp,
		IPAddress:    geo.IP,
		Country:      firstNonEmpty(in.Country, geo.Country),
		City:         firstNonEmpty(in.City, geo.City),
	}

	if err := s.repo.Insert(ctx, choice); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		// Событие уже сохранено; сбой публикации только логируем.
		if err := s.publisher.PublishChoice(ctx, *choice); err != nil {
			s.logger.Error("Failed to publish choice event",
				zap.String("sessionID", choice.SessionID),
				zap.String("gameID", choice.GameID),
				zap.Error(err))
		}
	}
	return choice, nil
}

func (s *choiceServiceImpl) SessionChoices(ctx context.Context, sessionID, gameID string, limit int) ([]models.UserChoice, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", models.ErrInvalidInput)
	}
	return s.repo.ListBySession(ctx, sessionID, strings.TrimSpace(gameID), limit)
}

func (s *choiceServiceImpl) GameStats(ctx context.Context, gameID string) ([]models.SceneStats, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: game_id is required", models.ErrInvalidInput)
	}
	counts, err := s.repo.CountByOption(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to count choices: %w", err)
	}
	return groupByScene(counts), nil
}

// groupByScene сохраняет порядок сцен из counts.
func groupByScene(counts []models.OptionCount) []models.SceneStats {
	stats := make([]models.SceneStats, 0)
	index := make(map[string]int)
	for _, c := range counts {
		i, ok := index[c.SceneID]
		if !ok {
			i = len(stats)
			index[c.SceneID] = i
			stats = append(stats, models.SceneStats{SceneID: c.SceneID, Options: make(map[string]int64)})
		}
		stats[i].Options[c.ChosenOption] += c.Count
		stats[i].Total += c.Count
	}
	return stats
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
