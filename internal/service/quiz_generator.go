package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz-corpus/internal/config"
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/llmjson"
	"quiz-corpus/internal/logger"
	"quiz-corpus/internal/util"

	"go.uber.org/zap"
)

const defaultContextSize = 10

// QuizGeneratorService synthesizes a new quiz from a subject and the ranked corpus.
type QuizGeneratorService interface {
	Generate(ctx context.Context, subject string) (*domain.GeneratedQuiz, error)
}

type quizGeneratorService struct {
	search      SearchService
	chat        domain.ChatClient
	contextSize int
}

func NewQuizGeneratorService(search SearchService, chat domain.ChatClient, cfg *config.Config) QuizGeneratorService {
	size := cfg.Search.ContextSize
	if size <= 0 {
		size = defaultContextSize
	}
	return &quizGeneratorService{search: search, chat: chat, contextSize: size}
}

func (s *quizGeneratorService) Generate(ctx context.Context, subject string) (*domain.GeneratedQuiz, error) {
	l := logger.Get()

	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, domain.NewInvalidInputError("subject is required")
	}

	tokens := strings.Fields(subject)
	examples := s.search.Search(ctx, tokens)
	if len(examples) > s.contextSize {
		examples = examples[:s.contextSize]
	}
	specialty := SpecialtyDescriptor(tokens)

	prompt, err := buildGenerationPrompt(subject, specialty, examples)
	if err != nil {
		return nil, domain.NewInternalError("Failed to build generation prompt", err)
	}

	l.Info("Generating quiz", zap.String("subject", subject),
		zap.String("specialty", specialty), zap.Int("examples", len(examples)))

	raw, err := s.chat.Chat(ctx, generationPersona, []string{prompt})
	if err != nil {
		if domain.HasCode(err, domain.ErrLLMTimeout) {
			return nil, err
		}
		return nil, domain.NewAIGenerationError(err)
	}

	var quiz domain.GeneratedQuiz
	if err := generatedQuizSchema.Decode(raw, &quiz); err != nil {
		l.Error("LLM returned an unusable quiz", zap.Error(err), zap.String("raw_response", raw))
		return nil, withViolations(domain.NewAIGenerationError(err), err)
	}
	if len(quiz.AnswerList) != len(quiz.QuestionList) {
		err := fmt.Errorf("answerList has %d entries, questionList has %d", len(quiz.AnswerList), len(quiz.QuestionList))
		return nil, domain.NewAIGenerationError(err)
	}

	normalizeGeneratedQuiz(&quiz)
	return &quiz, nil
}

// normalizeGeneratedQuiz fills defaults the model may omit.
func normalizeGeneratedQuiz(q *domain.GeneratedQuiz) {
	if strings.TrimSpace(q.ID) == "" {
		q.ID = util.NewULID()
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if q.Keywords == nil {
		q.Keywords = []string{}
	}

	specialties := make([]string, 0, len(q.SpecialtyTags))
	seen := make(map[domain.Specialty]struct{})
	for _, t := range q.SpecialtyTags {
		sp, ok := domain.ParseSpecialty(t)
		if !ok {
			continue
		}
		if _, dup := seen[sp]; dup {
			continue
		}
		seen[sp] = struct{}{}
		specialties = append(specialties, string(sp))
	}
	q.SpecialtyTags = specialties
}

func withViolations(derr *domain.DomainError, err error) *domain.DomainError {
	var verr *llmjson.ValidationError
	if errors.As(err, &verr) {
		return derr.WithContext("violations", verr.Violations)
	}
	return derr
}
