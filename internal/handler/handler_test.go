package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"quiz-corpus/internal/config"
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/logger"
	"quiz-corpus/internal/middleware"
	"quiz-corpus/internal/service"
	"quiz-corpus/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{Level: "debug", Env: "test"}); err != nil {
		panic("Failed to initialize logger for handler tests: " + err.Error())
	}
	exitCode := m.Run()
	_ = logger.Sync()
	os.Exit(exitCode)
}

// --- Manual Mocks ---

type MockSearchService struct {
	SearchFunc func(ctx context.Context, tags []string) []*domain.Quiz
}

func (m *MockSearchService) Search(ctx context.Context, tags []string) []*domain.Quiz {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, tags)
	}
	panic("MockSearchService.SearchFunc not implemented")
}

type MockQuizGeneratorService struct {
	GenerateFunc func(ctx context.Context, subject string) (*domain.GeneratedQuiz, error)
}

func (m *MockQuizGeneratorService) Generate(ctx context.Context, subject string) (*domain.GeneratedQuiz, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, subject)
	}
	panic("MockQuizGeneratorService.GenerateFunc not implemented")
}

type MockQuizGraderService struct {
	GradeFunc func(ctx context.Context, quiz *domain.AnsweredQuiz) (*domain.GradingResult, error)
}

func (m *MockQuizGraderService) Grade(ctx context.Context, quiz *domain.AnsweredQuiz) (*domain.GradingResult, error) {
	if m.GradeFunc != nil {
		return m.GradeFunc(ctx, quiz)
	}
	panic("MockQuizGraderService.GradeFunc not implemented")
}

type MockCorpusIngestionService struct {
	BootstrapFunc func(ctx context.Context, opts service.BootstrapOptions) (*service.IngestionReport, error)
}

func (m *MockCorpusIngestionService) Bootstrap(ctx context.Context, opts service.BootstrapOptions) (*service.IngestionReport, error) {
	if m.BootstrapFunc != nil {
		return m.BootstrapFunc(ctx, opts)
	}
	panic("MockCorpusIngestionService.BootstrapFunc not implemented")
}

type testServer struct {
	app       *fiber.App
	search    *MockSearchService
	generator *MockQuizGeneratorService
	grader    *MockQuizGraderService
	ingestion *MockCorpusIngestionService
}

const testAdminToken = "s3cret"

func newTestServer(checks map[string]HealthCheck) *testServer {
	s := &testServer{
		search:    &MockSearchService{},
		generator: &MockQuizGeneratorService{},
		grader:    &MockQuizGraderService{},
		ingestion: &MockCorpusIngestionService{},
	}
	v := validation.NewValidator()
	s.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	s.app.Use(middleware.RequestLogger())
	Routes{
		Quiz:       NewQuizHandler(s.search, s.generator, s.grader, v),
		Admin:      NewAdminHandler(s.ingestion),
		Health:     NewHealthHandler(checks),
		Validation: middleware.NewValidationMiddleware(v),
		AdminToken: testAdminToken,
	}.Register(s.app)
	return s
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestGetRawQuizzes(t *testing.T) {
	s := newTestServer(nil)
	var gotTags []string
	s.search.SearchFunc = func(ctx context.Context, tags []string) []*domain.Quiz {
		gotTags = tags
		return []*domain.Quiz{{ID: "q1", Title: "Intel QA", Tags: []string{"QA", "Intel"}}}
	}

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/quiz/raw?tags=QA,%20Intel", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"QA", "Intel"}, gotTags)
	var quizzes []domain.Quiz
	require.NoError(t, json.Unmarshal(body, &quizzes))
	require.Len(t, quizzes, 1)
	assert.Equal(t, "q1", quizzes[0].ID)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestGetRawQuizzes_EmptyResultIsArray(t *testing.T) {
	s := newTestServer(nil)
	s.search.SearchFunc = func(ctx context.Context, tags []string) []*domain.Quiz { return nil }

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/quiz/raw", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestGenerateQuiz(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		generateErr    error
		expectedStatus int
		expectedCode   string
	}{
		{name: "success", body: map[string]string{"subject": "QA Intel"}, expectedStatus: http.StatusOK},
		{name: "missing subject", body: map[string]string{}, expectedStatus: http.StatusBadRequest, expectedCode: "VALIDATION_ERROR"},
		{name: "blank subject", body: map[string]string{"subject": "  "}, expectedStatus: http.StatusBadRequest, expectedCode: "VALIDATION_ERROR"},
		{name: "llm failure", body: map[string]string{"subject": "go"}, generateErr: domain.NewAIGenerationError(errors.New("boom")), expectedStatus: http.StatusInternalServerError, expectedCode: "AI_GENERATION_ERROR"},
		{name: "llm timeout", body: map[string]string{"subject": "go"}, generateErr: domain.NewLLMTimeoutError("chat", context.DeadlineExceeded), expectedStatus: http.StatusGatewayTimeout, expectedCode: "LLM_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil)
			called := false
			s.generator.GenerateFunc = func(ctx context.Context, subject string) (*domain.GeneratedQuiz, error) {
				called = true
				if tt.generateErr != nil {
					return nil, tt.generateErr
				}
				return &domain.GeneratedQuiz{ID: "gen-1", Title: subject, QuestionList: []string{"q"}, AnswerList: []string{"a"}, SpecialtyTags: []string{}}, nil
			}

			resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/quiz/generate", tt.body))

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedCode == "" {
				var quiz domain.GeneratedQuiz
				require.NoError(t, json.Unmarshal(body, &quiz))
				assert.Equal(t, "QA Intel", quiz.Title)
				return
			}
			var errResp middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.expectedCode, errResp.Code)
			if tt.expectedStatus == http.StatusBadRequest {
				assert.False(t, called, "generator must not run for invalid requests")
			}
		})
	}
}

func TestGenerateQuiz_MalformedBody(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/quiz/generate", bytes.NewBufferString("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, _ := s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGradeQuiz(t *testing.T) {
	s := newTestServer(nil)
	s.grader.GradeFunc = func(ctx context.Context, quiz *domain.AnsweredQuiz) (*domain.GradingResult, error) {
		assert.Equal(t, []string{"my answer"}, quiz.UserAnswerList)
		return &domain.GradingResult{
			GradedAnswers:  []domain.GradedAnswer{{Question: "q", UserAnswer: "my answer", Grade: 80, Tip: "more depth"}},
			FinalQuizGrade: 80,
		}, nil
	}
	body := map[string]interface{}{
		"answeredQuiz": map[string]interface{}{
			"id": "gen-1", "title": "t", "questionList": []string{"q"}, "answerList": []string{"a"},
			"userAnswerList": []string{"my answer"},
		},
	}

	resp, raw := s.do(t, jsonRequest(t, http.MethodPost, "/api/quiz/grade", body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result domain.GradingResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 80.0, result.FinalQuizGrade)
}

func TestGradeQuiz_ValidationFromService(t *testing.T) {
	s := newTestServer(nil)
	s.grader.GradeFunc = func(ctx context.Context, quiz *domain.AnsweredQuiz) (*domain.GradingResult, error) {
		return nil, domain.NewError(domain.ErrValidationCode, "Invalid answered quiz", quiz.Validate())
	}
	body := map[string]interface{}{
		"answeredQuiz": map[string]interface{}{"questionList": []string{"q1", "q2"}, "userAnswerList": []string{"a"}},
	}

	resp, raw := s.do(t, jsonRequest(t, http.MethodPost, "/api/quiz/grade", body))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp middleware.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "userAnswerList", errResp.Errors[0].Field)
}

func TestGradeQuiz_MissingQuiz(t *testing.T) {
	s := newTestServer(nil)

	resp, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/quiz/grade", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestCorpus(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		query          string
		expectedStatus int
		expectedForce  bool
	}{
		{name: "missing token", expectedStatus: http.StatusUnauthorized},
		{name: "wrong token", token: "nope", expectedStatus: http.StatusUnauthorized},
		{name: "bootstrap", token: testAdminToken, expectedStatus: http.StatusOK},
		{name: "forced", token: testAdminToken, query: "?force=true", expectedStatus: http.StatusOK, expectedForce: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil)
			var gotOpts *service.BootstrapOptions
			s.ingestion.BootstrapFunc = func(ctx context.Context, opts service.BootstrapOptions) (*service.IngestionReport, error) {
				gotOpts = &opts
				return &service.IngestionReport{Sources: []service.SourceReport{}, Companies: 2, Quizzes: 3, Written: true}, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/api/admin/corpus/ingest"+tt.query, nil)
			if tt.token != "" {
				req.Header.Set(middleware.AdminTokenHeader, tt.token)
			}
			resp, body := s.do(t, req)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus != http.StatusOK {
				assert.Nil(t, gotOpts)
				return
			}
			require.NotNil(t, gotOpts)
			assert.Equal(t, tt.expectedForce, gotOpts.Force)
			var report service.IngestionReport
			require.NoError(t, json.Unmarshal(body, &report))
			assert.True(t, report.Written)
			assert.Equal(t, 3, report.Quizzes)
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(map[string]HealthCheck{
		"db": func(ctx context.Context) error { return nil },
	})
	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","checks":{"db":"up"}}`, string(body))

	s = newTestServer(map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"down"}}`, string(body))
}
