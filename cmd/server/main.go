// Package main visualdilemma API
//
//	@title			Visual Dilemma API
//	@version		1.0
//	@description	Колоды моральных дилемм и запись выборов игроков.
//	@BasePath		/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token with role=admin.
package main

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../internal/docs --outputTypes go --parseInternal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deckcache "visualdilemma/internal/cache"
	"visualdilemma/internal/config"
	"visualdilemma/internal/database"
	"visualdilemma/internal/handler"
	"visualdilemma/internal/interfaces"
	"visualdilemma/internal/logger"
	"visualdilemma/internal/messaging"
	"visualdilemma/internal/middleware"
	"visualdilemma/internal/repository"
	"visualdilemma/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	_ "visualdilemma/internal/docs"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	log.Info("Configuration loaded", cfg.LogFields()...)

	// --- MongoDB ---
	manager := database.NewManager(database.Config{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: cfg.MongoConnectTimeout,
		FallbackUsed:   cfg.MongoFallbackUsed,
		OnConnect: database.SchemaHook(database.Collections{
			Decks:   cfg.DeckCollection,
			Choices: cfg.ChoiceCollection,
		}, log),
	}, nil, log)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.Release(ctx); err != nil {
			log.Error("Failed to release MongoDB connection", zap.Error(err))
		}
	}()

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnectTimeout+5*time.Second)
	_, err = manager.Acquire(startupCtx)
	cancel()
	if err != nil {
		// Сервер продолжает работу: следующий Acquire подключится и подготовит коллекции заново.
		log.Error("Failed to connect to MongoDB on startup", zap.Error(err))
	}

	deckRepo := repository.NewMongoDeckRepository(manager, cfg.DeckCollection, log)
	choiceRepo := repository.NewMongoChoiceRepository(manager, cfg.ChoiceCollection, log)

	// --- Redis (optional) ---
	var cache interfaces.DeckCache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = setupRedis(cfg)
		if err != nil {
			log.Warn("Redis unavailable, deck cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			cache = deckcache.NewRedisDeckCache(redisClient, cfg.DeckCacheTTL, log)
			log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	// --- RabbitMQ (optional) ---
	publisher := messaging.NewNoopChoicePublisher()
	if cfg.RabbitMQURL != "" {
		mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		p, err := messaging.NewRabbitMQChoicePublisher(mqConn, cfg.ChoiceEventsQueue, log)
		if err != nil {
			log.Fatal("Failed to create choice publisher", zap.Error(err))
		}
		defer p.Close()
		publisher = p
	}

	deckService := service.NewDeckService(deckRepo, cache, log)
	choiceService := service.NewChoiceService(choiceRepo, publisher, log)
	h := handler.NewHandler(deckService, choiceService, manager, cfg.JWTSecret, log)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == config.EnvDevelopment {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var writeLimiter gin.HandlerFunc
	if cfg.WriteRateLimit > 0 {
		writeLimiter = middleware.WriteRateLimiter(redisClient, cfg.WriteRateLimit, log)
	}
	h.RegisterRoutes(router, writeLimiter)
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}

func setupRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func connectRabbitMQ(url string, log *zap.Logger) (*amqp.Connection, error) {
	const maxRetries = 10
	const retryDelay = 3 * time.Second

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			log.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
				if closeErr := <-notifyClose; closeErr != nil {
					log.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		log.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}
