package main

import (
	"encoding/json"
	"fmt"
	"os"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/ingestion"
	"quiz-corpus/internal/logger"
	"quiz-corpus/internal/tagging"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse the sources without touching the store",
	Long:  "Parses and merges every configured source and prints the resulting companies as JSON. Useful for checking a scrape before seeding.",
	RunE:  runParse,
}

var parseOutputFile string

func init() {
	parseCmd.Flags().StringVarP(&parseOutputFile, "out", "o", "", "write JSON here instead of stdout")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, _ []string) error {
	l := logger.Get()
	classifier, err := tagging.Load(cfg.Tagging.DictionaryPath)
	if err != nil {
		return fmt.Errorf("failed to load tag dictionary: %w", err)
	}

	var batches [][]*domain.Company
	if path := cfg.Ingestion.SectionListFile; path != "" {
		companies, stats, err := ingestion.NewSectionListParser(classifier, l).ParseFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s: %d records, %d skipped\n", path, stats.Records, stats.Skipped)
		batches = append(batches, companies)
	}
	if dir := cfg.Ingestion.TableBlockDir; dir != "" {
		companies, stats, err := ingestion.NewTableBlockParser(classifier, l).ParseDir(cmd.Context(), dir, cfg.Ingestion.Workers)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s: %d files, %d records, %d skipped\n", dir, stats.Files, stats.Records, stats.Skipped)
		batches = append(batches, companies)
	}
	if len(batches) == 0 {
		return fmt.Errorf("no sources: pass --file and/or --dir, or set them in config")
	}

	merged, rejected := ingestion.Merge(batches...)
	for _, r := range rejected {
		fmt.Fprintf(os.Stderr, "rejected %q (%s/%s, id %d): %v\n", r.Title, r.CompanyEn, r.CompanyHe, r.SourceQuizID, r.Err)
	}
	if merged == nil {
		merged = []*domain.Company{}
	}

	out := os.Stdout
	if parseOutputFile != "" {
		f, err := os.Create(parseOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(merged)
}
