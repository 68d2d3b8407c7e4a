package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"visualdilemma/internal/interfaces/mocks"
	"visualdilemma/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordChoice(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	input := models.ChoiceInput{SessionID: "sess", GameID: "trolley", SceneID: "s1", ChosenOption: "empathy"}

	t.Run("Defaults timestamp and fills geo from request", func(t *testing.T) {
		repo := new(mocks.ChoiceRepository)
		pub := new(mocks.ChoiceEventPublisher)
		svc := newChoiceService(repo, pub, zap.NewNop(), clock)

		repo.On("Insert", ctx, mock.MatchedBy(func(c *models.UserChoice) bool {
			return c.Timestamp.Equal(now) && c.IPAddress == "203.0.113.7" && c.Country == "ES" && c.City == "Madrid"
		})).Return(nil).Once()
		pub.On("PublishChoice", ctx, mock.AnythingOfType("models.UserChoice")).Return(nil).Once()

		choice, err := svc.RecordChoice(ctx, input, models.GeoLocation{IP: "203.0.113.7", Country: "ES", City: "Madrid"})
		require.NoError(t, err)
		assert.Equal(t, "empathy", choice.ChosenOption)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("Client geo and past timestamp win", func(t *testing.T) {
		repo := new(mocks.ChoiceRepository)
		svc := newChoiceService(repo, nil, zap.NewNop(), clock)

		past := now.Add(-time.Minute)
		in := input
		in.Timestamp = &past
		in.Country = "AR"

		repo.On("Insert", ctx, mock.Anything).Return(nil).Once()

		choice, err := svc.RecordChoice(ctx, in, models.GeoLocation{Country: "ES", City: "Madrid"})
		require.NoError(t, err)
		assert.True(t, choice.Timestamp.Equal(past))
		assert.Equal(t, "AR", choice.Country)
		assert.Equal(t, "Madrid", choice.City)
	})

	t.Run("Future timestamp is replaced", func(t *testing.T) {
		repo := new(mocks.ChoiceRepository)
		svc := newChoiceService(repo, nil, zap.NewNop(), clock)

		future := now.Add(time.Hour)
		in := input
		in.Timestamp = &future
		repo.On("Insert", ctx, mock.Anything).Return(nil).Once()

		choice, err := svc.RecordChoice(ctx, in, models.GeoLocation{})
		require.NoError(t, err)
		assert.True(t, choice.Timestamp.Equal(now))
	})

	t.Run("Validation error is returned and nothing is published", func(t *testing.T) {
		repo := new(mocks.ChoiceRepository)
		pub := new(mocks.ChoiceEventPublisher)
		svc := newChoiceService(repo, pub, zap.NewNop(), clock)

		verr := models.ValidationResult{Violations: []models.Violation{{Field: "chosen_option", Rule: "required"}}}.Err()
		repo.On("Insert", ctx, mock.Anything).Return(verr).Once()

		in := input
		in.ChosenOption = ""
		_, err := svc.RecordChoice(ctx, in, models.GeoLocation{})
		assert.ErrorIs(t, err, models.ErrValidation)
		pub.AssertNotCalled(t, "PublishChoice", mock.Anything, mock.Anything)
	})

	t.Run("Publish failure does not fail the write", func(t *testing.T) {
		repo := new(mocks.ChoiceRepository)
		pub := new(mocks.ChoiceEventPublisher)
		svc := newChoiceService(repo, pub, zap.NewNop(), clock)

		repo.On("Insert", ctx, mock.Anything).Return(nil).Once()
		pub.On("PublishChoice", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		_, err := svc.RecordChoice(ctx, input, models.GeoLocation{})
		assert.NoError(t, err)
	})
}

func TestStartSession(t *testing.T) {
	svc := NewChoiceService(new(mocks.ChoiceRepository), nil, zap.NewNop())
	id := svc.StartSession(context.Background())
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, svc.StartSession(context.Background()))
}

func TestSessionChoices(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.ChoiceRepository)
	svc := NewChoiceService(repo, nil, zap.NewNop())

	_, err := svc.SessionChoices(ctx, "", "", 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	repo.On("ListBySession", ctx, "sess", "g", 10).Return([]models.UserChoice{{SessionID: "sess"}}, nil).Once()
	choices, err := svc.SessionChoices(ctx, "sess", " g ", 10)
	require.NoError(t, err)
	assert.Len(t, choices, 1)
}

func TestGameStats(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.ChoiceRepository)
	svc := NewChoiceService(repo, nil, zap.NewNop())

	repo.On("CountByOption", ctx, "g").Return([]models.OptionCount{
		{SceneID: "s1", ChosenOption: "x", Count: 3},
		{SceneID: "s1", ChosenOption: "y", Count: 1},
		{SceneID: "s2", ChosenOption: "x", Count: 2},
	}, nil).Once()

	stats, err := svc.GameStats(ctx, "g")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.SceneStats{SceneID: "s1", Total: 4, Options: map[string]int64{"x": 3, "y": 1}}, stats[0])
	assert.Equal(t, int64(2), stats[1].Total)

	repo.On("CountByOption", ctx, "empty").Return([]models.OptionCount{}, nil).Once()
	stats, err = svc.GameStats(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.NotNil(t, stats)
}
