// Command seed импортирует колоды из файлов YAML/JSON: seed [-activate] file...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"visualdilemma/internal/config"
	"visualdilemma/internal/database"
	"visualdilemma/internal/deckfile"
	"visualdilemma/internal/logger"
	"visualdilemma/internal/models"
	"visualdilemma/internal/repository"
	"visualdilemma/internal/service"

	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to .env file")
	activate := flag.Bool("activate", false, "Mark imported decks as active regardless of the file contents")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-activate] [-env-file path] deck.yaml...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "console"})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

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

	failed := run(manager, cfg, *activate, flag.Args(), log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := manager.Release(ctx); err != nil {
		log.Warn("Failed to release MongoDB connection", zap.Error(err))
	}

	if failed > 0 {
		log.Error("Deck import finished with errors", zap.Int("failed", failed), zap.Int("total", flag.NArg()))
		os.Exit(1)
	}
	log.Info("Deck import finished", zap.Int("total", flag.NArg()))
}

// run импортирует файлы по одному и возвращает число неудачных.
func run(manager *database.Manager, cfg *config.Config, activate bool, files []string, log *zap.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnectTimeout+time.Minute)
	defer cancel()

	if _, err := manager.Acquire(ctx); err != nil {
		log.Error("Failed to connect to MongoDB", zap.Error(err))
		return len(files)
	}

	decks := service.NewDeckService(repository.NewMongoDeckRepository(manager, cfg.DeckCollection, log), nil, log)

	failed := 0
	for _, path := range files {
		in, err := deckfile.Load(path)
		if err != nil {
			log.Error("Failed to load deck file", zap.String("file", path), zap.Error(err))
			failed++
			continue
		}
		if activate {
			active := true
			in.Active = &active
		}

		deck, created, err := decks.UpsertDeck(ctx, in.GameID, in)
		if err != nil {
			fields := []zap.Field{zap.String("file", path), zap.Error(err)}
			for _, v := range models.ViolationsOf(err) {
				fields = append(fields, zap.String(v.Field, v.Message))
			}
			log.Error("Failed to import deck", fields...)
			failed++
			continue
		}
		log.Info("Deck imported",
			zap.String("file", path),
			zap.String("gameID", deck.GameID),
			zap.String("version", deck.Version),
			zap.Int("scenes", len(deck.Scenes)),
			zap.Bool("created", created),
			zap.Bool("active", deck.Active))
	}
	return failed
}
