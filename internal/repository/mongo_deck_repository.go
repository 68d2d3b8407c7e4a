package repository

import (
	"context"
	"errors"
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

// mongoDeckRepository реализует interfaces.DeckRepository для MongoDB.
type mongoDeckRepository struct {
	provider   database.Provider
	collection string
	logger     *zap.Logger
	now        func() time.Time
}

// Compile-time check
var _ interfaces.DeckRepository = (*mongoDeckRepository)(nil)

// NewMongoDeckRepository создает репозиторий колод поверх менеджера подключения.
func NewMongoDeckRepository(provider database.Provider, collection string, logger *zap.Logger) interfaces.DeckRepository {
	return &mongoDeckRepository{
		provider:   provider,
		collection: collection,
		logger:     logger.Named("MongoDeckRepo"),
		now:        time.Now,
	}
}

func (r *mongoDeckRepository) coll(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.provider.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(r.collection), nil
}

// timestamp - текущее время с точностью BSON date (миллисекунды).
func (r *mongoDeckRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// Create inserts a new deck and assigns created_at/updated_at.
func (r *mongoDeckRepository) Create(ctx context.Context, deck *models.GameDeck) error {
	if err := models.ValidateDeck(deck).Err(); err != nil {
		r.logger.Warn("Deck rejected by validation", deckField(deck), zap.Error(err))
		return err
	}
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	now := r.timestamp()
	deck.ID = primitive.NilObjectID
	deck.CreatedAt, deck.UpdatedAt = now, now
	if deck.Scenes == nil {
		deck.Scenes = []models.Scene{}
	}

	res, err := coll.InsertOne(ctx, deck)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Deck already exists (unique index violation)", zap.String("gameID", deck.GameID))
			return models.ErrDeckAlreadyExists
		}
		r.logger.Error("Failed to insert deck", zap.String("gameID", deck.GameID), zap.Error(err))
		return fmt.Errorf("failed to insert deck: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		deck.ID = id
	}
	r.logger.Info("Deck created", zap.String("gameID", deck.GameID), zap.String("version", deck.Version))
	return nil
}

// Upsert заменяет содержимое колоды по game_id. created_at и исходный game_id
// выставляются только при вставке.
func (r *mongoDeckRepository) Upsert(ctx context.Context, deck *models.GameDeck) (bool, error) {
	if err := models.ValidateDeck(deck).Err(); err != nil {
		r.logger.Warn("Deck rejected by validation", deckField(deck), zap.Error(err))
		return false, err
	}
	coll, err := r.coll(ctx)
	if err != nil {
		return false, err
	}

	now := r.timestamp()
	scenes := deck.Scenes
	if scenes == nil {
		scenes = []models.Scene{}
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "version", Value: deck.Version},
			{Key: "title", Value: deck.Title},
			{Key: "description", Value: deck.Description},
			{Key: "scenes", Value: scenes},
			{Key: "active", Value: deck.Active},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "game_id", Value: deck.GameID},
			{Key: "created_at", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetCollation(database.DeckCollation())

	var stored models.GameDeck
	err = coll.FindOneAndUpdate(ctx, bson.D{{Key: "game_id", Value: deck.GameID}}, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Параллельная вставка той же колоды.
			return false, models.ErrDeckAlreadyExists
		}
		r.logger.Error("Failed to upsert deck", zap.String("gameID", deck.GameID), zap.Error(err))
		return false, fmt.Errorf("failed to upsert deck: %w", err)
	}

	created := stored.CreatedAt.Equal(now)
	*deck = stored
	r.logger.Info("Deck upserted", zap.String("gameID", deck.GameID), zap.Bool("created", created))
	return created, nil
}

// GetByGameID finds a deck by game_id (case-insensitive), active or not.
func (r *mongoDeckRepository) GetByGameID(ctx context.Context, gameID string) (*models.GameDeck, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	var deck models.GameDeck
	opts := options.FindOne().SetCollation(database.DeckCollation())
	err = coll.FindOne(ctx, bson.D{{Key: "game_id", Value: gameID}}, opts).Decode(&deck)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrDeckNotFound
		}
		r.logger.Error("Failed to get deck", zap.String("gameID", gameID), zap.Error(err))
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return &deck, nil
}

// ListActive returns summaries of active decks ordered by title.
func (r *mongoDeckRepository) ListActive(ctx context.Context) ([]models.DeckSummary, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "active", Value: true}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "game_id", Value: 1},
			{Key: "version", Value: 1},
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "updated_at", Value: 1},
			{Key: "scene_count", Value: bson.D{{Key: "$size", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$scenes", bson.A{}}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "title", Value: 1}, {Key: "game_id", Value: 1}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline, options.Aggregate().SetCollation(database.DeckCollation()))
	if err != nil {
		r.logger.Error("Failed to list active decks", zap.Error(err))
		return nil, fmt.Errorf("failed to list active decks: %w", err)
	}

	var decks []models.DeckSummary
	if err := cursor.All(ctx, &decks); err != nil {
		return nil, fmt.Errorf("failed to decode deck summaries: %w", err)
	}
	if decks == nil {
		decks = []models.DeckSummary{}
	}
	return decks, nil
}

// SetActive переключает флаг active. Колоды не удаляются.
func (r *mongoDeckRepository) SetActive(ctx context.Context, gameID string, active bool) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "active", Value: active},
		{Key: "updated_at", Value: r.timestamp()},
	}}}
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "game_id", Value: gameID}}, update,
		options.Update().SetCollation(database.DeckCollation()))
	if err != nil {
		r.logger.Error("Failed to update deck active flag", zap.String("gameID", gameID), zap.Error(err))
		return fmt.Errorf("failed to set deck active flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrDeckNotFound
	}
	r.logger.Info("Deck active flag updated", zap.String("gameID", gameID), zap.Bool("active", active))
	return nil
}

// deckField - game_id для логов; nil-колода дает пустое поле.
func deckField(deck *models.GameDeck) zap.Field {
	if deck == nil {
		return zap.Skip()
	}
	return zap.String("gameID", deck.GameID)
}
