package main

import (
	"encoding/json"
	"fmt"
	"os"

	"quiz-corpus/internal/adapter"
	"quiz-corpus/internal/cache"
	"quiz-corpus/internal/database"
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/ingestion"
	"quiz-corpus/internal/logger"
	"quiz-corpus/internal/repository"
	"quiz-corpus/internal/service"
	"quiz-corpus/internal/tagging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Seed the corpus store",
	Long:  "Parses every configured source and writes the merged corpus when the store is empty. --force replaces an existing corpus.",
	RunE:  runBootstrap,
}

var force bool

func init() {
	bootstrapCmd.Flags().BoolVar(&force, "force", false, "replace a non-empty corpus")
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	l := logger.Get()

	classifier, err := tagging.Load(cfg.Tagging.DictionaryPath)
	if err != nil {
		return fmt.Errorf("failed to load tag dictionary: %w", err)
	}

	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	// Without Redis the bootstrap still works; cached searches simply expire on their own.
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			l.Warn("Redis unavailable, search cache will not be invalidated", zap.Error(err))
		} else {
			defer client.Close()
			cacheAdapter = adapter.NewRedisCacheAdapter(client)
		}
	}

	svc := service.NewCorpusIngestionService(
		repository.NewCorpusDatabaseAdapter(db),
		repository.NewTransactionManagerAdapter(db),
		cacheAdapter,
		ingestion.NewSectionListParser(classifier, l),
		ingestion.NewTableBlockParser(classifier, l),
		cfg.Ingestion,
	)

	report, err := svc.Bootstrap(ctx, service.BootstrapOptions{Force: force})
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return fmt.Errorf("failed to print report: %w", encErr)
		}
	}
	return err
}
