package handler

import (
	"quiz-corpus/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Routes groups the handlers mounted under /api.
type Routes struct {
	Quiz       *QuizHandler
	Admin      *AdminHandler
	Health     *HealthHandler
	Validation *middleware.ValidationMiddleware
	AdminToken string
}

// Register mounts every route on app.
func (r Routes) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", r.Health.Health)

	quiz := api.Group("/quiz")
	quiz.Get("/raw", r.Validation.ValidateTags(), r.Quiz.GetRawQuizzes)
	quiz.Post("/generate", r.Quiz.GenerateQuiz)
	quiz.Post("/grade", r.Quiz.GradeQuiz)

	admin := api.Group("/admin", middleware.AdminOnly(r.AdminToken))
	admin.Post("/corpus/ingest", r.Admin.IngestCorpus)
}
