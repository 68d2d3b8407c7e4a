package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"visualdilemma/internal/interfaces"
	"visualdilemma/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ChoiceEventType - значение поля type в сообщении.
const ChoiceEventType = "user_choice.recorded"

// ChoiceEventPayload - сообщение, которое уходит в очередь аналитики.
type ChoiceEventPayload struct {
	Type         string    `json:"type"`
	ChoiceID     string    `json:"choice_id"`
	SessionID    string    `json:"session_id"`
	GameID       string    `json:"game_id"`
	SceneID      string    `json:"scene_id"`
	ChosenOption string    `json:"chosen_option"`
	Timestamp    time.Time `json:"timestamp"`
	Country      string    `json:"country,omitempty"`
	City         string    `json:"city,omitempty"`
}

// NewChoiceEventPayload строит сообщение из записанного выбора. IP клиента не публикуется.
func NewChoiceEventPayload(choice models.UserChoice) ChoiceEventPayload {
	return ChoiceEventPayload{
		Type:         ChoiceEventType,
		ChoiceID:     choice.ID.Hex(),
		SessionID:    choice.SessionID,
		GameID:       choice.GameID,
		SceneID:      choice.SceneID,
		ChosenOption: choice.ChosenOption,
		Timestamp:    choice.Timestamp,
		Country:      choice.Country,
		City:         choice.City,
	}
}

// amqpChannel - часть *amqp.Channel, нужная паблишеру.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQChoicePublisher implements interfaces.ChoiceEventPublisher for RabbitMQ.
type RabbitMQChoicePublisher struct {
	mu        sync.Mutex // amqp.Channel нельзя использовать из нескольких горутин одновременно
	channel   amqpChannel
	queueName string
	logger    *zap.Logger
}

var _ interfaces.ChoiceEventPublisher = (*RabbitMQChoicePublisher)(nil)

// NewRabbitMQChoicePublisher открывает канал и объявляет durable очередь.
func NewRabbitMQChoicePublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQChoicePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("choice publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("choice publisher: failed to declare queue '%s': %w", queueName, err)
	}
	return newChoicePublisher(ch, queueName, logger), nil
}

func newChoicePublisher(ch amqpChannel, queueName string, logger *zap.Logger) *RabbitMQChoicePublisher {
	return &RabbitMQChoicePublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("ChoicePublisher"),
	}
}

func (p *RabbitMQChoicePublisher) PublishChoice(ctx context.Context, choice models.UserChoice) error {
	body, err := json.Marshal(NewChoiceEventPayload(choice))
	if err != nil {
		return fmt.Errorf("failed to marshal choice event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         ChoiceEventType,
			Body:         body,
		})
	if err != nil {
		p.logger.Error("Failed to publish choice event", zap.String("queue", p.queueName), zap.Error(err))
		return fmt.Errorf("failed to publish choice event: %w", err)
	}
	p.logger.Debug("Choice event published", zap.String("queue", p.queueName), zap.String("gameID", choice.GameID))
	return nil
}

// Close closes the underlying channel.
func (p *RabbitMQChoicePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Close()
}

type noopChoicePublisher struct{}

// NewNoopChoicePublisher используется, когда RabbitMQ не настроен.
func NewNoopChoicePublisher() interfaces.ChoiceEventPublisher {
	return noopChoicePublisher{}
}

func (noopChoicePublisher) PublishChoice(context.Context, models.UserChoice) error { return nil }
