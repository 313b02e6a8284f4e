package service

import (
	"context"

	"quiz-corpus/internal/cache"
	"quiz-corpus/internal/config"
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/ingestion"
	"quiz-corpus/internal/logger"

	"go.uber.org/zap"
)

const (
	SourceSectionList = "section_list"
	SourceTableBlock  = "table_block"
)

// BootstrapOptions controls a corpus bootstrap.
type BootstrapOptions struct {
	// Force replaces a non-empty corpus instead of leaving it untouched.
	Force bool
}

// SourceReport describes one ingestion source.
type SourceReport struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	ingestion.Stats
	Error string `json:"error,omitempty"`
}

// IngestionReport is the outcome of a bootstrap.
type IngestionReport struct {
	Sources   []SourceReport `json:"sources"`
	Companies int            `json:"companies"`
	Quizzes   int            `json:"quizzes"`
	Rejected  int            `json:"rejected"`
	Existing  int            `json:"existingCompanies"`
	Written   bool           `json:"written"`
}

// CorpusIngestionService loads the scraped sources into the corpus store.
type CorpusIngestionService interface {
	Bootstrap(ctx context.Context, opts BootstrapOptions) (*IngestionReport, error)
}

// SectionListSource parses the single section/list document.
type SectionListSource interface {
	ParseFile(path string) ([]*domain.Company, ingestion.Stats, error)
}

// TableBlockSource parses a directory of table-block documents.
type TableBlockSource interface {
	ParseDir(ctx context.Context, dir string, workers int) ([]*domain.Company, ingestion.Stats, error)
}

type corpusIngestionService struct {
	repo        domain.CorpusRepository
	tx          domain.TransactionManager
	cache       domain.Cache
	sectionList SectionListSource
	tableBlock  TableBlockSource
	cfg         config.IngestionConfig
}

// NewCorpusIngestionService creates the bootstrap service. cache may be nil.
func NewCorpusIngestionService(
	repo domain.CorpusRepository,
	tx domain.TransactionManager,
	cache domain.Cache,
	sectionList SectionListSource,
	tableBlock TableBlockSource,
	cfg config.IngestionConfig,
) CorpusIngestionService {
	return &corpusIngestionService{
		repo:        repo,
		tx:          tx,
		cache:       cache,
		sectionList: sectionList,
		tableBlock:  tableBlock,
		cfg:         cfg,
	}
}

// Bootstrap parses every configured source, merges the results and writes them
// only when the corpus is empty (or opts.Force is set). The emptiness check and
// the write share one transaction holding an exclusive lock on the corpus, so
// concurrent bootstraps cannot both write.
func (s *corpusIngestionService) Bootstrap(ctx context.Context, opts BootstrapOptions) (*IngestionReport, error) {
	l := logger.Get()
	report := &IngestionReport{Sources: []SourceReport{}}

	var batches [][]*domain.Company
	var firstErr error
	record := func(src SourceReport, companies []*domain.Company, err error) {
		if err != nil {
			src.Error = err.Error()
			if firstErr == nil {
				firstErr = err
			}
			l.Error("Ingestion source failed", zap.String("source", src.Source), zap.String("path", src.Path), zap.Error(err))
		} else {
			batches = append(batches, companies)
			l.Info("Ingestion source parsed", zap.String("source", src.Source), zap.String("path", src.Path),
				zap.Int("files", src.Files), zap.Int("records", src.Records), zap.Int("skipped", src.Skipped))
		}
		report.Sources = append(report.Sources, src)
	}

	if path := s.cfg.SectionListFile; path != "" {
		companies, stats, err := s.sectionList.ParseFile(path)
		record(SourceReport{Source: SourceSectionList, Path: path, Stats: stats}, companies, err)
	}
	if dir := s.cfg.TableBlockDir; dir != "" {
		companies, stats, err := s.tableBlock.ParseDir(ctx, dir, s.cfg.Workers)
		record(SourceReport{Source: SourceTableBlock, Path: dir, Stats: stats}, companies, err)
	}

	if len(report.Sources) == 0 {
		return report, domain.NewInvalidInputError("no ingestion sources configured")
	}
	if len(batches) == 0 {
		return report, firstErr
	}

	merged, rejected := ingestion.Merge(batches...)
	for _, r := range rejected {
		l.Warn("Rejected invalid quiz record",
			zap.String("company_en", r.CompanyEn), zap.String("company_he", r.CompanyHe),
			zap.String("title", r.Title), zap.Int64("source_quiz_id", r.SourceQuizID), zap.Error(r.Err))
	}
	report.Rejected = len(rejected)
	report.Companies = len(merged)
	for _, c := range merged {
		report.Quizzes += len(c.Quizzes)
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockCorpus(ctx); err != nil {
			return err
		}
		existing, err := s.repo.CountCompanies(ctx)
		if err != nil {
			return err
		}
		report.Existing = existing

		if existing > 0 && !opts.Force {
			l.Info("Corpus already populated, skipping write", zap.Int("companies", existing))
			return nil
		}
		if len(merged) == 0 {
			l.Warn("Ingestion produced no companies, leaving corpus untouched")
			return nil
		}
		if existing > 0 {
			l.Warn("Replacing existing corpus", zap.Int("companies", existing))
			if err := s.repo.ClearCorpus(ctx); err != nil {
				return err
			}
		}
		if err := s.repo.InsertCompanies(ctx, merged); err != nil {
			return err
		}
		report.Written = true
		return nil
	})
	if err != nil {
		report.Written = false
		return report, domain.NewInternalError("Failed to write corpus", err)
	}

	if report.Written {
		s.bumpGeneration(ctx)
		l.Info("Corpus written", zap.Int("companies", report.Companies), zap.Int("quizzes", report.Quizzes))
	}
	return report, nil
}

// bumpGeneration invalidates cached search results.
func (s *corpusIngestionService) bumpGeneration(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, cache.CorpusGenerationKey()); err != nil {
		logger.Get().Warn("Failed to bump corpus generation; cached searches may be stale until they expire", zap.Error(err))
	}
}
