package dto

import "quiz-corpus/internal/domain"

// GenerateQuizRequest is the body of POST /api/quiz/generate
// @Description Request body for quiz synthesis
type GenerateQuizRequest struct {
	Subject string `json:"subject" validate:"notblank,max=500"`
}

// GradeQuizRequest is the body of POST /api/quiz/grade
// @Description Request body for grading a completed quiz
type GradeQuizRequest struct {
	AnsweredQuiz *domain.AnsweredQuiz `json:"answeredQuiz" validate:"required"`
}

// HealthResponse reports process and dependency status
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
