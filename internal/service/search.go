package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"quiz-corpus/internal/cache"
	"quiz-corpus/internal/config"
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	companyTagWeight = 5
	quizTagWeight    = 10
	contentHitWeight = 1
)

// SearchService ranks corpus quizzes against a tag list.
type SearchService interface {
	// Search never fails; store errors are logged and yield an empty list.
	Search(ctx context.Context, tags []string) []*domain.Quiz
}

type searchService struct {
	repo  domain.CorpusRepository
	cache domain.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewSearchService creates a search service. cache may be nil.
func NewSearchService(repo domain.CorpusRepository, cache domain.Cache, cfg *config.Config) SearchService {
	return &searchService{
		repo:  repo,
		cache: cache,
		ttl:   cfg.Redis.SearchTTL,
	}
}

// NormalizeTags trims, lower-cases and de-duplicates tags, dropping empty ones.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *searchService) Search(ctx context.Context, tags []string) []*domain.Quiz {
	normalized := NormalizeTags(tags)
	if len(normalized) == 0 {
		return []*domain.Quiz{}
	}

	// The shared call outlives any single caller; each waiter stops on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strings.Join(normalized, "\x00"), func() (interface{}, error) {
		return s.search(shared, normalized), nil
	})
	select {
	case res := <-ch:
		return res.Val.([]*domain.Quiz)
	case <-ctx.Done():
		logger.Get().Warn("Search abandoned by caller", zap.Strings("tags", normalized), zap.Error(ctx.Err()))
		return []*domain.Quiz{}
	}
}

func (s *searchService) search(ctx context.Context, normalized []string) []*domain.Quiz {
	l := logger.Get()

	key, cacheable := s.resultKey(ctx, normalized)
	if cacheable {
		if quizzes, ok := s.cached(ctx, key); ok {
			l.Debug("Search cache hit", zap.Strings("tags", normalized))
			return quizzes
		}
	}

	companies, err := s.repo.FindCandidates(ctx, normalized)
	if err != nil {
		storeErr := domain.NewSearchStoreError(err)
		l.Error("Search failed, returning empty result", zap.Strings("tags", normalized), zap.Error(storeErr))
		return []*domain.Quiz{}
	}

	quizzes := Rank(companies, normalized)
	if cacheable {
		s.store(ctx, key, quizzes)
	}
	l.Info("Search completed", zap.Strings("tags", normalized),
		zap.Int("candidates", len(companies)), zap.Int("results", len(quizzes)))
	return quizzes
}

// resultKey returns the cache key for the current corpus generation.
func (s *searchService) resultKey(ctx context.Context, normalized []string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	var generation int64
	raw, err := s.cache.Get(ctx, cache.CorpusGenerationKey())
	switch {
	case errors.Is(err, domain.ErrCacheMiss):
	case err != nil:
		logger.Get().Warn("Failed to read corpus generation, skipping search cache", zap.Error(err))
		return "", false
	default:
		if generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			logger.Get().Warn("Corrupt corpus generation, skipping search cache", zap.String("value", raw))
			return "", false
		}
	}
	return cache.SearchResultKey(generation, normalized), true
}

func (s *searchService) cached(ctx context.Context, key string) ([]*domain.Quiz, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Failed to read search cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var quizzes []*domain.Quiz
	if err := json.Unmarshal([]byte(raw), &quizzes); err != nil {
		logger.Get().Warn("Discarding undecodable search cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if quizzes == nil {
		quizzes = []*domain.Quiz{}
	}
	return quizzes, true
}

func (s *searchService) store(ctx context.Context, key string, quizzes []*domain.Quiz) {
	data, err := json.Marshal(quizzes)
	if err != nil {
		logger.Get().Warn("Failed to encode search result for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Warn("Failed to write search cache", zap.String("key", key), zap.Error(err))
	}
}

// Score is the match score of quiz (belonging to company) for lower-cased,
// de-duplicated input tags: 5 per company tag hit, 10 per quiz tag hit and 1 per
// tag found as a substring of the quiz content, all case-insensitive.
func Score(company *domain.Company, quiz *domain.Quiz, tagsLower []string) int {
	companyTags := lowerSet(company.Tags)
	quizTags := lowerSet(quiz.Tags)
	content := strings.ToLower(quiz.Content)

	score := 0
	for _, t := range tagsLower {
		if _, ok := companyTags[t]; ok {
			score += companyTagWeight
		}
		if _, ok := quizTags[t]; ok {
			score += quizTagWeight
		}
		if strings.Contains(content, t) {
			score += contentHitWeight
		}
	}
	return score
}

type scoredQuiz struct {
	quiz  *domain.Quiz
	score int
}

// Rank scores every (company, quiz) pair, drops non-positive scores and sorts
// by score descending. Equal scores keep corpus order.
func Rank(companies []*domain.Company, tagsLower []string) []*domain.Quiz {
	var rows []scoredQuiz
	for _, c := range companies {
		for _, q := range c.Quizzes {
			if score := Score(c, q, tagsLower); score > 0 {
				rows = append(rows, scoredQuiz{quiz: q, score: score})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })

	out := make([]*domain.Quiz, len(rows))
	for i, r := range rows {
		out[i] = r.quiz
	}
	return out
}

func lowerSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}
