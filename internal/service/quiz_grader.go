package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/logger"

	"go.uber.org/zap"
)

// QuizGraderService grades a candidate's answers to a generated quiz.
type QuizGraderService interface {
	Grade(ctx context.Context, quiz *domain.AnsweredQuiz) (*domain.GradingResult, error)
}

type quizGraderService struct {
	chat domain.ChatClient
}

func NewQuizGraderService(chat domain.ChatClient) QuizGraderService {
	return &quizGraderService{chat: chat}
}

type rawGradedAnswer struct {
	Question   string  `json:"question"`
	UserAnswer string  `json:"userAnswer"`
	Grade      float64 `json:"grade"`
	Tip        string  `json:"tip"`
}

type rawGradingResult struct {
	GradedAnswers   []rawGradedAnswer `json:"gradedAnswers"`
	FinalQuizGrade  *float64          `json:"finalQuizGrade"`
	FinalSummaryTip string            `json:"finalSummaryTip"`
}

// Grade makes one LLM call. Individual grades are rounded and clamped to
// [0, 100]; the final grade is always recomputed as their mean.
func (s *quizGraderService) Grade(ctx context.Context, quiz *domain.AnsweredQuiz) (*domain.GradingResult, error) {
	l := logger.Get()

	if quiz == nil {
		return nil, domain.NewInvalidInputError("answeredQuiz is required")
	}
	if err := quiz.Validate(); err != nil {
		return nil, domain.NewError(domain.ErrValidationCode, "Invalid answered quiz", err)
	}

	prompt, err := buildGradingPrompt(quiz)
	if err != nil {
		return nil, domain.NewInternalError("Failed to build grading prompt", err)
	}

	raw, err := s.chat.Chat(ctx, gradingPersona, []string{prompt})
	if err != nil {
		if domain.HasCode(err, domain.ErrLLMTimeout) {
			return nil, err
		}
		return nil, domain.NewAIGradingError(err)
	}

	var parsed rawGradingResult
	if err := gradingResultSchema.Decode(raw, &parsed); err != nil {
		l.Error("LLM returned an unusable grading", zap.Error(err), zap.String("raw_response", raw))
		return nil, withViolations(domain.NewAIGradingError(err), err)
	}
	if len(parsed.GradedAnswers) != len(quiz.QuestionList) {
		err := fmt.Errorf("got %d graded answers for %d questions", len(parsed.GradedAnswers), len(quiz.QuestionList))
		return nil, domain.NewAIGradingError(err)
	}

	result := &domain.GradingResult{
		GradedAnswers:   make([]domain.GradedAnswer, len(parsed.GradedAnswers)),
		FinalSummaryTip: strings.TrimSpace(parsed.FinalSummaryTip),
	}
	grades := make([]int, len(parsed.GradedAnswers))
	for i, ga := range parsed.GradedAnswers {
		question := ga.Question
		if strings.TrimSpace(question) == "" {
			question = quiz.QuestionList[i]
		}
		answer := ga.UserAnswer
		if strings.TrimSpace(answer) == "" {
			answer = quiz.UserAnswerList[i]
		}
		grades[i] = clampGrade(ga.Grade)
		result.GradedAnswers[i] = domain.GradedAnswer{
			Question:   question,
			UserAnswer: answer,
			Grade:      grades[i],
			Tip:        strings.TrimSpace(ga.Tip),
		}
	}
	result.FinalQuizGrade = MeanGrade(grades)

	if parsed.FinalQuizGrade != nil && math.Abs(*parsed.FinalQuizGrade-result.FinalQuizGrade) > 0.01 {
		l.Warn("Model final grade differs from mean of answer grades",
			zap.Float64("model", *parsed.FinalQuizGrade), zap.Float64("mean", result.FinalQuizGrade))
	}
	return result, nil
}

func clampGrade(g float64) int {
	if math.IsNaN(g) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(g))))
}

// MeanGrade is the arithmetic mean of grades rounded to two decimals, 0 for none.
func MeanGrade(grades []int) float64 {
	if len(grades) == 0 {
		return 0
	}
	sum := 0
	for _, g := range grades {
		sum += g
	}
	return math.Round(float64(sum)/float64(len(grades))*100) / 100
}
