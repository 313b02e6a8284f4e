// Package main provides the out-of-band corpus seeding CLI.
package main

import (
	"fmt"
	"os"

	"quiz-corpus/internal/config"
	"quiz-corpus/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Interview corpus ingestion",
	Long:  "Parses the scraped interview-report HTML sources and seeds the Oracle corpus store.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applySourceFlags(cmd, &cfg.Ingestion)
		return logger.Initialize(cfg.Logger)
	},
}

var (
	cfg *config.Config

	sectionListFile string
	tableBlockDir   string
	workers         int
	dictionaryPath  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&sectionListFile, "file", "", "section-list HTML document (overrides ingestion.section_list_file)")
	flags.StringVar(&tableBlockDir, "dir", "", "directory of table-block HTML documents (overrides ingestion.table_block_dir)")
	flags.IntVar(&workers, "workers", 0, "parallel file parsers (overrides ingestion.workers)")
	flags.StringVar(&dictionaryPath, "dictionary", "", "tag dictionary YAML (defaults to the embedded dictionary)")
}

// applySourceFlags lets explicitly set flags win over the config file.
func applySourceFlags(cmd *cobra.Command, ing *config.IngestionConfig) {
	if cmd.Flags().Changed("file") {
		ing.SectionListFile = sectionListFile
	}
	if cmd.Flags().Changed("dir") {
		ing.TableBlockDir = tableBlockDir
	}
	if cmd.Flags().Changed("workers") && workers > 0 {
		ing.Workers = workers
	}
	if dictionaryPath != "" {
		cfg.Tagging.DictionaryPath = dictionaryPath
	}
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
