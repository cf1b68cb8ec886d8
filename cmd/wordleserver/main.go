// Package main provides the Wordle game server binary.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/config"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/notify"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/observability"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/server"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/store"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	vocab, err := game.LoadVocabulary(cfg.Game.VocabularyPath)
	if err != nil {
		logger.Fatal("loading vocabulary", zap.Error(err))
	}
	logger.Info("vocabulary loaded",
		zap.String("path", cfg.Game.VocabularyPath),
		zap.Int("words", vocab.Len()),
	)

	// A corrupt snapshot is a configuration problem the operator must fix;
	// an absent one just means a fresh start.
	st, err := store.LoadFile(cfg.Game.SnapshotPath)
	if err != nil {
		logger.Fatal("loading snapshot", zap.Error(err))
	}
	logger.Info("state restored",
		zap.String("path", cfg.Game.SnapshotPath),
		zap.Int("users", st.UserCount()),
	)

	publisher, err := notify.NewPublisher(cfg.Multicast.Addr())
	if err != nil {
		logger.Fatal("opening multicast publisher", zap.Error(err))
	}
	defer publisher.Close()

	engine := server.NewEngine(cfg, st, vocab, publisher, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("engine", engine)

	logger.Info("server initialized",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("multicast_group", cfg.Multicast.Addr()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
