package main

import (
	"context"
	"flag"
	"log"

	"quiz-corpus/internal/config"
	"quiz-corpus/internal/database"
	"quiz-corpus/internal/logger"

	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "database/migrations", "directory holding *.up.sql migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	// DB connection
	db, err := database.NewMigrateOracleDB(cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(context.Background(), db, *dir); err != nil {
		l.Fatal("Failed to run migrations", zap.String("dir", *dir), zap.Error(err))
	}
	l.Info("Migrations applied", zap.String("dir", *dir))
}
