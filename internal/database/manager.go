// Package database владеет подключением к MongoDB: кэширует единственный клиент на процесс
// и объявляет индексы коллекций.
package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"visualdilemma/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrConnectionReleased возвращается ожидающим вызовам, если Release был вызван
// раньше, чем завершилась начатая ими попытка подключения.
var ErrConnectionReleased = errors.New("mongodb connection was released during connect")

const defaultConnectTimeout = 10 * time.Second

// Client - часть *mongo.Client, которой пользуется приложение.
type Client interface {
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

// Provider выдает базу данных приложения, подключаясь при необходимости.
type Provider interface {
	Database(ctx context.Context) (*mongo.Database, error)
}

// DialFunc устанавливает новое подключение.
type DialFunc func(ctx context.Context, uri string) (Client, error)

// Config - параметры менеджера подключения.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	// FallbackUsed - URI получен из локального fallback, а не из конфигурации.
	FallbackUsed bool
	// OnConnect вызывается для каждого нового клиента до того, как он попадет в кэш.
	// Ошибка проваливает попытку подключения; следующий Acquire повторит ее целиком.
	OnConnect func(ctx context.Context, db *mongo.Database) error
}

// Manager кэширует одно подключение на процесс.
// Одновременные Acquire ждут одну и ту же попытку подключения; после неудачи
// следующий Acquire начинает новую попытку.
type Manager struct {
	cfg    Config
	dial   DialFunc
	logger *zap.Logger

	group singleflight.Group

	mu     sync.Mutex
	client Client
	// gen увеличивается при Release; попытка, начатая до Release, не попадает в кэш.
	gen uint64

	// joined вызывается, когда Acquire присоединился к попытке подключения. Для тестов.
	joined func()
}

var _ Provider = (*Manager)(nil)

// NewManager создает менеджер. Подключение не открывается до первого Acquire.
// dial == nil означает DialMongo.
func NewManager(cfg Config, dial DialFunc, logger *zap.Logger) *Manager {
	if dial == nil {
		dial = DialMongo
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	m := &Manager{
		cfg:    cfg,
		dial:   dial,
		logger: logger.Named("MongoManager"),
	}
	if cfg.FallbackUsed {
		m.logger.Warn("MONGODB_URI is not configured, using local default. Set MONGODB_URI for deployments.",
			zap.String("uri", cfg.URI))
	}
	return m
}

// Acquire возвращает кэшированный клиент или присоединяется к текущей попытке подключения.
// Отмена ctx прекращает ожидание только для этого вызова; сама попытка ограничена
// ConnectTimeout и продолжается для остальных ожидающих.
func (m *Manager) Acquire(ctx context.Context) (Client, error) {
	m.mu.Lock()
	if m.client != nil {
		client := m.client
		m.mu.Unlock()
		return client, nil
	}
	gen := m.gen
	m.mu.Unlock()

	resCh := m.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return m.connect(gen)
	})
	if m.joined != nil {
		m.joined()
	}

	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Client), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Database implements Provider.
func (m *Manager) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(m.cfg.Database), nil
}

// Ping проверяет живость подключения (для readiness-проверок).
func (m *Manager) Ping(ctx context.Context) error {
	client, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Release закрывает кэшированный клиент и сбрасывает кэш. Повторный вызов ничего не делает.
func (m *Manager) Release(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	if client == nil {
		m.mu.Unlock()
		return nil
	}
	m.client = nil
	m.gen++
	m.mu.Unlock()

	if err := client.Disconnect(ctx); err != nil {
		m.logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	m.logger.Info("Disconnected from MongoDB")
	return nil
}

func (m *Manager) connect(gen uint64) (Client, error) {
	m.mu.Lock()
	// Попытка могла завершиться между проверкой кэша в Acquire и DoChan.
	if m.client != nil && m.gen == gen {
		client := m.client
		m.mu.Unlock()
		return client, nil
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ConnectTimeout)
	defer cancel()

	m.logger.Info("Connecting to MongoDB", zap.String("uri", config.RedactURI(m.cfg.URI)), zap.String("database", m.cfg.Database))
	client, err := m.dial(ctx, m.cfg.URI)
	if err != nil {
		m.logger.Error("Failed to connect to MongoDB", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if m.cfg.OnConnect != nil {
		if err := m.cfg.OnConnect(ctx, client.Database(m.cfg.Database)); err != nil {
			_ = client.Disconnect(context.Background())
			m.logger.Error("Failed to prepare MongoDB database", zap.Error(err))
			return nil, fmt.Errorf("failed to prepare mongodb database: %w", err)
		}
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		_ = client.Disconnect(ctx)
		m.logger.Warn("Connection released while connecting, discarding new client")
		return nil, ErrConnectionReleased
	}
	m.client = client
	m.mu.Unlock()

	m.logger.Info("Connected to MongoDB")
	return client, nil
}

// DialMongo подключается через официальный драйвер и проверяет соединение ping-ом.
func DialMongo(ctx context.Context, uri string) (Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return client, nil
}
