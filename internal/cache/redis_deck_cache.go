package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"visualdilemma/internal/interfaces"
	"visualdilemma/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

const (
	deckKeyPrefix = "deck:"
	holdKeyPrefix = "deck:hold:"

	// invalidationHold - сколько после Invalidate кэш отказывается принимать Set для колоды.
	// Чтение из БД, начатое до изменения колоды, не вернет в кэш старую копию.
	invalidationHold = 30 * time.Second
)

var deckCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deck_cache_lookups_total",
		Help: "Total number of deck cache lookups by result.",
	},
	[]string{"result"},
)

// Compile-time check
var _ interfaces.DeckCache = (*redisDeckCache)(nil)

type redisDeckCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDeckCache creates a Redis-backed deck cache.
func NewRedisDeckCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.DeckCache {
	return &redisDeckCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisDeckCache"),
	}
}

// key приводит game_id к case-folded виду: поиск колод в БД не учитывает регистр,
// и кэш должен вести себя так же.
func (c *redisDeckCache) key(gameID string) string {
	// cases.Caser хранит состояние и не потокобезопасен.
	return deckKeyPrefix + cases.Fold().String(gameID)
}

func (c *redisDeckCache) holdKey(gameID string) string {
	return holdKeyPrefix + cases.Fold().String(gameID)
}

func (c *redisDeckCache) Get(ctx context.Context, gameID string) (*models.GameDeck, error) {
	data, err := c.client.Get(ctx, c.key(gameID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			deckCacheLookupsTotal.WithLabelValues("miss").Inc()
			return nil, interfaces.ErrCacheMiss
		}
		deckCacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to get deck from redis: %w", err)
	}

	var deck models.GameDeck
	if err := json.Unmarshal(data, &deck); err != nil {
		// Битую запись удаляем, чтобы следующий запрос перечитал колоду из БД.
		c.logger.Warn("Corrupted deck cache entry, dropping", zap.String("gameID", gameID), zap.Error(err))
		_ = c.client.Del(ctx, c.key(gameID)).Err()
		deckCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, interfaces.ErrCacheMiss
	}
	deckCacheLookupsTotal.WithLabelValues("hit").Inc()
	return &deck, nil
}

// Set сохраняет колоду, если для нее нет свежего Invalidate. Проверка и запись идут
// в одной транзакции WATCH, так что Invalidate между ними отменяет запись.
func (c *redisDeckCache) Set(ctx context.Context, deck *models.GameDeck) error {
	data, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("failed to marshal deck for cache: %w", err)
	}
	key, hold := c.key(deck.GameID), c.holdKey(deck.GameID)

	held := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, hold).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			held = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, hold)
	if errors.Is(err, redis.TxFailedErr) {
		held, err = true, nil
	}
	if err != nil {
		return fmt.Errorf("failed to set deck in redis: %w", err)
	}
	if held {
		c.logger.Debug("Deck recently invalidated, not caching", zap.String("gameID", deck.GameID))
		return nil
	}
	c.logger.Debug("Deck cached", zap.String("gameID", deck.GameID), zap.Duration("ttl", c.ttl))
	return nil
}

func (c *redisDeckCache) Invalidate(ctx context.Context, gameID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(gameID))
		pipe.Set(ctx, c.holdKey(gameID), 1, invalidationHold)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate deck in redis: %w", err)
	}
	return nil
}

// noopDeckCache используется, когда Redis не настроен.
type noopDeckCache struct{}

// NewNoopDeckCache returns a cache that never stores anything.
func NewNoopDeckCache() interfaces.DeckCache {
	return noopDeckCache{}
}

func (noopDeckCache) Get(context.Context, string) (*models.GameDeck, error) {
	return nil, interfaces.ErrCacheMiss
}

func (noopDeckCache) Set(context.Context, *models.GameDeck) error { return nil }

func (noopDeckCache) Invalidate(context.Context, string) error { return nil }
