package handler

import (
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/dto"
	"quiz-corpus/internal/logger"
	"quiz-corpus/internal/middleware"
	"quiz-corpus/internal/service"
	"quiz-corpus/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	search    service.SearchService
	generator service.QuizGeneratorService
	grader    service.QuizGraderService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(
	search service.SearchService,
	generator service.QuizGeneratorService,
	grader service.QuizGraderService,
	validator *validation.Validator,
) *QuizHandler {
	return &QuizHandler{
		search:    search,
		generator: generator,
		grader:    grader,
		validator: validator,
	}
}

// GetRawQuizzes godoc
// @Summary Search the interview corpus
// @Description Returns corpus quizzes ranked by tag relevance
// @Tags quiz
// @Produce json
// @Param tags query string false "Comma-separated tags"
// @Success 200 {array} domain.Quiz
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /quiz/raw [get]
func (h *QuizHandler) GetRawQuizzes(c *fiber.Ctx) error {
	tags := middleware.ValidatedTags(c)
	quizzes := h.search.Search(c.UserContext(), tags)
	if quizzes == nil {
		quizzes = []*domain.Quiz{}
	}
	return c.JSON(quizzes)
}

// GenerateQuiz godoc
// @Summary Generate an interview quiz
// @Description Synthesizes a new quiz from a subject and the most relevant corpus quizzes
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuizRequest true "Subject"
// @Success 200 {object} domain.GeneratedQuiz
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Failure 504 {object} middleware.ErrorResponse
// @Router /quiz/generate [post]
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Request body must be a JSON object")
	}
	if errs := h.validator.ValidateStruct(&req); len(errs) > 0 {
		return errs
	}

	quiz, err := h.generator.Generate(c.UserContext(), req.Subject)
	if err != nil {
		logger.Get().Error("Failed to generate quiz",
			zap.Error(err),
			zap.String("subject", req.Subject),
		)
		return err
	}
	return c.JSON(quiz)
}

// GradeQuiz godoc
// @Summary Grade a completed quiz
// @Description Grades every answer of a generated quiz and returns the mean grade
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.GradeQuizRequest true "Answered quiz"
// @Success 200 {object} domain.GradingResult
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Failure 504 {object} middleware.ErrorResponse
// @Router /quiz/grade [post]
func (h *QuizHandler) GradeQuiz(c *fiber.Ctx) error {
	var req dto.GradeQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Request body must be a JSON object")
	}
	if errs := h.validator.ValidateStruct(&req); len(errs) > 0 {
		return errs
	}

	result, err := h.grader.Grade(c.UserContext(), req.AnsweredQuiz)
	if err != nil {
		logger.Get().Error("Failed to grade quiz",
			zap.Error(err),
			zap.String("quiz_id", req.AnsweredQuiz.ID),
		)
		return err
	}
	return c.JSON(result)
}
