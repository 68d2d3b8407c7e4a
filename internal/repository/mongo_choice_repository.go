package repository

import (
	"context"
	"fmt"
	"time"

	"visualdilemma/internal/database"
	"visualdilemma/internal/interfaces"
	"visualdilemma/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	defaultChoiceListLimit = 200
	maxChoiceListLimit     = 1000
)

// mongoChoiceRepository реализует interfaces.ChoiceRepository. Записи только добавляются.
type mongoChoiceRepository struct {
	provider   database.Provider
	collection string
	logger     *zap.Logger
	now        func() time.Time
}

var _ interfaces.ChoiceRepository = (*mongoChoiceRepository)(nil)

// NewMongoChoiceRepository создает репозиторий событий выбора.
func NewMongoChoiceRepository(provider database.Provider, collection string, logger *zap.Logger) interfaces.ChoiceRepository {
	return &mongoChoiceRepository{
		provider:   provider,
		collection: collection,
		logger:     logger.Named("MongoChoiceRepo"),
		now:        time.Now,
	}
}

func (r *mongoChoiceRepository) coll(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.provider.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(r.collection), nil
}

// Insert записывает событие. Пустой timestamp заменяется временем записи.
func (r *mongoChoiceRepository) Insert(ctx context.Context, choice *models.UserChoice) error {
	if err := models.ValidateChoice(choice).Err(); err != nil {
		sessionID := zap.Skip()
		if choice != nil {
			sessionID = zap.String("sessionID", choice.SessionID)
		}
		r.logger.Warn("Choice rejected by validation", sessionID, zap.Error(err))
		return err
	}
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	if choice.Timestamp.IsZero() {
		choice.Timestamp = r.now()
	}
	choice.Timestamp = choice.Timestamp.UTC().Truncate(time.Millisecond)
	choice.ID = primitive.NilObjectID

	res, err := coll.InsertOne(ctx, choice)
	if err != nil {
		r.logger.Error("Failed to insert choice",
			zap.String("sessionID", choice.SessionID),
			zap.String("gameID", choice.GameID),
			zap.String("sceneID", choice.SceneID),
			zap.Error(err))
		return fmt.Errorf("failed to insert choice: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		choice.ID = id
	}
	r.logger.Debug("Choice recorded",
		zap.String("sessionID", choice.SessionID),
		zap.String("gameID", choice.GameID),
		zap.String("sceneID", choice.SceneID))
	return nil
}

// ListBySession returns a session's choices in chronological order.
func (r *mongoChoiceRepository) ListBySession(ctx context.Context, sessionID, gameID string, limit int) ([]models.UserChoice, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultChoiceListLimit
	} else if limit > maxChoiceListLimit {
		limit = maxChoiceListLimit
	}

	filter := bson.D{{Key: "session_id", Value: sessionID}}
	if gameID != "" {
		filter = append(filter, bson.E{Key: "game_id", Value: gameID})
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list session choices", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list session choices: %w", err)
	}
	var choices []models.UserChoice
	if err := cursor.All(ctx, &choices); err != nil {
		return nil, fmt.Errorf("failed to decode choices: %w", err)
	}
	if choices == nil {
		choices = []models.UserChoice{}
	}
	return choices, nil
}

// CountByOption группирует выборы игры по сцене и варианту.
func (r *mongoChoiceRepository) CountByOption(ctx context.Context, gameID string) ([]models.OptionCount, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "game_id", Value: gameID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "scene_id", Value: "$scene_id"},
				{Key: "chosen_option", Value: "$chosen_option"},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "last_chosen_at", Value: bson.D{{Key: "$max", Value: "$timestamp"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "scene_id", Value: "$_id.scene_id"},
			{Key: "chosen_option", Value: "$_id.chosen_option"},
			{Key: "count", Value: 1},
			{Key: "last_chosen_at", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "scene_id", Value: 1}, {Key: "chosen_option", Value: 1}}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate choices", zap.String("gameID", gameID), zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate choices: %w", err)
	}
	var counts []models.OptionCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode choice counts: %w", err)
	}
	if counts == nil {
		counts = []models.OptionCount{}
	}
	return counts, nil
}
