package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Коды ошибок сервера MongoDB, которые EnsureSchema считает безопасными.
const (
	codeNamespaceExists       = 48
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// DeckCollation - локализованное сравнение без учета регистра (es, strength 2).
// Используется для уникальности game_id и сортировки колод.
func DeckCollation() *options.Collation {
	return &options.Collation{Locale: "es", Strength: 2}
}

// Collections - имена коллекций приложения.
type Collections struct {
	Decks   string
	Choices string
}

// DeckIndexes - индексы коллекции колод.
func DeckIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "game_id", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(DeckCollation())},
		{Keys: bson.D{{Key: "active", Value: 1}}},
	}
}

// ChoiceIndexes - индексы коллекции событий выбора.
func ChoiceIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
		{Keys: bson.D{{Key: "game_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "game_id", Value: 1}, {Key: "scene_id", Value: 1}}},
		{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
}

// EnsureSchema создает коллекцию колод с collation по умолчанию и объявляет индексы.
// Повторный запуск безопасен. Индексы, созданные раньше с другими опциями, остаются как есть.
func EnsureSchema(ctx context.Context, db *mongo.Database, names Collections, logger *zap.Logger) error {
	log := logger.Named("Schema")

	err := db.CreateCollection(ctx, names.Decks, options.CreateCollection().SetCollation(DeckCollation()))
	if err != nil && !hasCode(err, codeNamespaceExists) {
		return fmt.Errorf("failed to create collection %s: %w", names.Decks, err)
	}

	if err := createIndexes(ctx, db.Collection(names.Decks), DeckIndexes(), log); err != nil {
		return err
	}
	if err := createIndexes(ctx, db.Collection(names.Choices), ChoiceIndexes(), log); err != nil {
		return err
	}
	log.Info("MongoDB schema ensured", zap.String("decks", names.Decks), zap.String("choices", names.Choices))
	return nil
}

// SchemaHook возвращает Config.OnConnect, который вызывает EnsureSchema на каждом новом подключении.
func SchemaHook(names Collections, logger *zap.Logger) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return EnsureSchema(ctx, db, names, logger)
	}
}

func createIndexes(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	for _, model := range models {
		name, err := coll.Indexes().CreateOne(ctx, model)
		if err != nil {
			if hasCode(err, codeIndexOptionsConflict, codeIndexKeySpecsConflict) {
				log.Warn("Index already exists with different options, keeping existing one",
					zap.String("collection", coll.Name()), zap.Any("keys", model.Keys), zap.Error(err))
				continue
			}
			return fmt.Errorf("failed to create index on %s: %w", coll.Name(), err)
		}
		log.Debug("Index ensured", zap.String("collection", coll.Name()), zap.String("index", name))
	}
	return nil
}

func hasCode(err error, codes ...int32) bool {
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	for _, code := range codes {
		if cmdErr.Code == code {
			return true
		}
	}
	return false
}
