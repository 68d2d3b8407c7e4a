package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"visualdilemma/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestRabbitMQChoicePublisherIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	require.NoError(t, err, "Failed to start rabbitmq container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	publisher, err := NewRabbitMQChoicePublisher(conn, "choice_events_test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	choice := models.UserChoice{
		ID:           primitive.NewObjectID(),
		SessionID:    "sess",
		GameID:       "trolley",
		SceneID:      "s1",
		ChosenOption: "empathy",
		Timestamp:    time.Now().UTC().Truncate(time.Millisecond),
		IPAddress:    "203.0.113.7",
		Country:      "ES",
	}
	require.NoError(t, publisher.PublishChoice(ctx, choice))

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	var msg amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok, err = ch.Get("choice_events_test", true)
		return err == nil && ok
	}, 10*time.Second, 100*time.Millisecond)

	assert.Equal(t, ChoiceEventType, msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var payload ChoiceEventPayload
	require.NoError(t, json.Unmarshal(msg.Body, &payload))
	assert.Equal(t, choice.ID.Hex(), payload.ChoiceID)
	assert.Equal(t, "empathy", payload.ChosenOption)
	assert.NotContains(t, string(msg.Body), "203.0.113.7")
}
