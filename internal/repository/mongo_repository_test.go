package repository_test

import (
	"context"
	"testing"

	"visualdilemma/internal/models"
	"visualdilemma/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unusedProvider падает, если репозиторий пошел в БД.
type unusedProvider struct{ t *testing.T }

func (p unusedProvider) Database(context.Context) (*mongo.Database, error) {
	p.t.Fatal("validation failure must not reach the database")
	return nil, nil
}

func TestNilRecordsRejectedWithoutPanic(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	decks := repository.NewMongoDeckRepository(unusedProvider{t}, "mazos", log)
	choices := repository.NewMongoChoiceRepository(unusedProvider{t}, "userchoices", log)

	require.NotPanics(t, func() {
		assert.ErrorIs(t, decks.Create(ctx, nil), models.ErrValidation)
	})
	require.NotPanics(t, func() {
		_, err := decks.Upsert(ctx, nil)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
	require.NotPanics(t, func() {
		assert.ErrorIs(t, choices.Insert(ctx, nil), models.ErrValidation)
	})

	assert.Equal(t, 2, logs.FilterMessage("Deck rejected by validation").Len())
	assert.Equal(t, 1, logs.FilterMessage("Choice rejected by validation").Len())
}
