package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-corpus/internal/cache"
	"quiz-corpus/internal/config"
	"quiz-corpus/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Redis:  config.RedisConfig{SearchTTL: 10 * time.Minute},
		Search: config.SearchConfig{ContextSize: 2},
	}
}

func corpusFixture() (q1, q2 *domain.Quiz, companies []*domain.Company) {
	q1 = &domain.Quiz{ID: "q1", Title: "Q1", Tags: []string{"QA", "Intel"}}
	q2 = &domain.Quiz{ID: "q2", Title: "Q2", Tags: []string{"QA"}}
	companies = []*domain.Company{{CompanyEn: "Acme", CompanyHe: "אקמי", Tags: []string{"Acme"}, Quizzes: []*domain.Quiz{q2, q1}}}
	return q1, q2, companies
}

func TestSearch_EndToEndExample(t *testing.T) {
	q1, q2, companies := corpusFixture()
	repo := new(MockCorpusRepository)
	repo.On("FindCandidates", mock.Anything, []string{"qa", "intel"}).Return(companies, nil)

	svc := NewSearchService(repo, nil, testConfig())
	got := svc.Search(context.Background(), []string{"QA", "Intel"})

	assert.Equal(t, []*domain.Quiz{q1, q2}, got)
	assert.Equal(t, 20, Score(companies[0], q1, []string{"qa", "intel"}))
	assert.Equal(t, 10, Score(companies[0], q2, []string{"qa", "intel"}))
	repo.AssertExpectations(t)
}

func TestScore(t *testing.T) {
	company := &domain.Company{Tags: []string{"Intel", "אינטל"}}
	quiz := &domain.Quiz{Tags: []string{"QA", "qa"}, Content: "They asked about Kubernetes and an Algorithm"}

	tests := []struct {
		name     string
		tags     []string
		expected int
	}{
		{"company tag", []string{"intel"}, 5},
		{"quiz tag counted once", []string{"qa"}, 10},
		{"content substring", []string{"kube"}, 1},
		{"everything", []string{"intel", "qa", "algorithm", "אינטל"}, 5 + 10 + 1 + 5},
		{"no match", []string{"devops"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(company, quiz, tt.tags))
		})
	}
}

func TestScore_OneMoreQuizTagAddsAtLeastTen(t *testing.T) {
	company := &domain.Company{Tags: []string{"Acme"}}
	a := &domain.Quiz{Tags: []string{"QA"}, Content: "qa devops"}
	b := &domain.Quiz{Tags: []string{"QA", "DevOps"}, Content: "qa devops"}
	tags := []string{"qa", "devops"}

	assert.GreaterOrEqual(t, Score(company, b, tags), Score(company, a, tags)+10)
}

func TestRank_OrderingAndFilter(t *testing.T) {
	mk := func(id string, tags ...string) *domain.Quiz { return &domain.Quiz{ID: id, Tags: tags} }
	companies := []*domain.Company{
		{Tags: []string{"x"}, Quizzes: []*domain.Quiz{mk("a"), mk("b", "go"), mk("c", "go", "redis")}},
		{Tags: []string{"go"}, Quizzes: []*domain.Quiz{mk("d"), mk("e", "go")}},
	}
	tags := []string{"go", "redis"}

	got := Rank(companies, tags)
	ids := make([]string, len(got))
	for i, q := range got {
		ids[i] = q.ID
	}
	// c=20, e=15, b=10, d=5 and a=0 is dropped
	assert.Equal(t, []string{"c", "e", "b", "d"}, ids)

	scores := map[string]int{"c": 20, "e": 15, "b": 10, "d": 5}
	for i := 1; i < len(ids); i++ {
		assert.GreaterOrEqual(t, scores[ids[i-1]], scores[ids[i]])
	}
}

func TestRank_TiesKeepCorpusOrder(t *testing.T) {
	companies := []*domain.Company{
		{Quizzes: []*domain.Quiz{{ID: "1", Tags: []string{"go"}}, {ID: "2", Tags: []string{"go"}}}},
		{Quizzes: []*domain.Quiz{{ID: "3", Tags: []string{"go"}}}},
	}
	got := Rank(companies, []string{"go"})
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "3", got[2].ID)
}

func TestSearch_EmptyTagsSkipStore(t *testing.T) {
	repo := new(MockCorpusRepository)
	svc := NewSearchService(repo, nil, testConfig())

	assert.Equal(t, []*domain.Quiz{}, svc.Search(context.Background(), nil))
	assert.Equal(t, []*domain.Quiz{}, svc.Search(context.Background(), []string{" ", ""}))
	repo.AssertNotCalled(t, "FindCandidates", mock.Anything, mock.Anything)
}

func TestSearch_StoreErrorYieldsEmpty(t *testing.T) {
	repo := new(MockCorpusRepository)
	repo.On("FindCandidates", mock.Anything, []string{"qa"}).Return(nil, errors.New("ORA-12541: no listener"))

	svc := NewSearchService(repo, nil, testConfig())
	got := svc.Search(context.Background(), []string{"QA"})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"qa", "intel", "אינטל"}, NormalizeTags([]string{" QA ", "Intel", "qa", "", "אינטל"}))
}

func TestSearch_CacheMissStoresResult(t *testing.T) {
	q1, q2, companies := corpusFixture()
	repo := new(MockCorpusRepository)
	repo.On("FindCandidates", mock.Anything, []string{"qa", "intel"}).Return(companies, nil)

	key := cache.SearchResultKey(4, []string{"qa", "intel"})
	c := new(MockCache)
	c.On("Get", mock.Anything, cache.CorpusGenerationKey()).Return("4", nil)
	c.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss)
	c.On("Set", mock.Anything, key, mock.AnythingOfType("string"), 10*time.Minute).Return(nil)

	svc := NewSearchService(repo, c, testConfig())
	got := svc.Search(context.Background(), []string{"QA", "Intel"})

	assert.Equal(t, []*domain.Quiz{q1, q2}, got)
	c.AssertExpectations(t)
}

func TestSearch_CacheHitSkipsStore(t *testing.T) {
	cached, err := json.Marshal([]*domain.Quiz{{ID: "cached", Title: "from cache", Tags: []string{"QA"}}})
	require.NoError(t, err)

	repo := new(MockCorpusRepository)
	c := new(MockCache)
	c.On("Get", mock.Anything, cache.CorpusGenerationKey()).Return("", domain.ErrCacheMiss)
	c.On("Get", mock.Anything, cache.SearchResultKey(0, []string{"qa"})).Return(string(cached), nil)

	svc := NewSearchService(repo, c, testConfig())
	got := svc.Search(context.Background(), []string{"qa"})

	require.Len(t, got, 1)
	assert.Equal(t, "cached", got[0].ID)
	repo.AssertNotCalled(t, "FindCandidates", mock.Anything, mock.Anything)
}

func TestSearch_CacheDownFallsBackToStore(t *testing.T) {
	_, _, companies := corpusFixture()
	repo := new(MockCorpusRepository)
	repo.On("FindCandidates", mock.Anything, []string{"qa"}).Return(companies, nil)

	c := new(MockCache)
	c.On("Get", mock.Anything, cache.CorpusGenerationKey()).Return("", errors.New("connection refused"))

	svc := NewSearchService(repo, c, testConfig())
	got := svc.Search(context.Background(), []string{"qa"})

	assert.Len(t, got, 2)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// blockingRepo holds FindCandidates open until released and honours ctx.
type blockingRepo struct {
	*MockCorpusRepository
	companies []*domain.Company
	started   chan struct{}
	release   chan struct{}
	once      sync.Once
	calls     int32
}

func (r *blockingRepo) FindCandidates(ctx context.Context, _ []string) ([]*domain.Company, error) {
	atomic.AddInt32(&r.calls, 1)
	r.once.Do(func() { close(r.started) })
	select {
	case <-r.release:
		return r.companies, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSearch_ConcurrentIdenticalSearchesShareOneQuery(t *testing.T) {
	q1, q2, companies := corpusFixture()
	repo := &blockingRepo{
		MockCorpusRepository: new(MockCorpusRepository),
		companies:            companies,
		started:              make(chan struct{}),
		release:              make(chan struct{}),
	}
	svc := NewSearchService(repo, nil, testConfig())

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	resultA := make(chan []*domain.Quiz, 1)
	go func() { resultA <- svc.Search(ctxA, []string{"QA", "Intel"}) }()
	<-repo.started

	resultB := make(chan []*domain.Quiz, 1)
	go func() { resultB <- svc.Search(context.Background(), []string{"qa", " INTEL", "QA"}) }()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case got := <-resultA:
		assert.Empty(t, got)
		assert.NotNil(t, got)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(repo.release)
	select {
	case got := <-resultB:
		assert.Equal(t, []*domain.Quiz{q1, q2}, got)
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.calls))
}
