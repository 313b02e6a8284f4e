package domain

import "strings"

// Specialty is a coarse skill area detected in quiz content.
type Specialty string

const (
	SpecialtyCode         Specialty = "CODE"
	SpecialtyDesign       Specialty = "DESIGN"
	SpecialtyTechnologies Specialty = "TECHNOLOGIES"
)

// Specialties lists every specialty in canonical order.
var Specialties = []Specialty{SpecialtyCode, SpecialtyDesign, SpecialtyTechnologies}

// ParseSpecialty maps a case-insensitive name to a Specialty.
func ParseSpecialty(s string) (Specialty, bool) {
	candidate := Specialty(strings.ToUpper(strings.TrimSpace(s)))
	for _, sp := range Specialties {
		if sp == candidate {
			return sp, true
		}
	}
	return "", false
}

// GeneratedQuiz is a quiz synthesized by the LLM from ranked corpus context.
type GeneratedQuiz struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Tags               []string `json:"tags"`
	Content            string   `json:"content"`
	JobRole            string   `json:"jobRole"`
	CompanyNameEn      string   `json:"companyNameEn"`
	CompanyNameHe      string   `json:"companyNameHe"`
	ProcessDetails     string   `json:"processDetails"`
	QuestionList       []string `json:"questionList"`
	AnswerList         []string `json:"answerList"`
	Keywords           []string `json:"keywords"`
	InterviewerMindset string   `json:"interviewerMindset"`
	SpecialtyTags      []string `json:"specialtyTags"`
}

// AnsweredQuiz is a generated quiz plus the candidate's answers, index-aligned with QuestionList.
type AnsweredQuiz struct {
	GeneratedQuiz
	UserAnswerList []string `json:"userAnswerList"`
}

// Validate checks the alignment invariants of an answered quiz.
func (a *AnsweredQuiz) Validate() error {
	var errs ValidationErrors
	if len(a.QuestionList) == 0 {
		errs = append(errs, NewMissingFieldError("questionList"))
	}
	if len(a.UserAnswerList) != len(a.QuestionList) {
		errs = append(errs, NewLengthMismatchError("userAnswerList", "questionList", len(a.UserAnswerList), len(a.QuestionList)))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// GradedAnswer is the grade and tip for a single answer.
type GradedAnswer struct {
	Question   string `json:"question"`
	UserAnswer string `json:"userAnswer"`
	Grade      int    `json:"grade"`
	Tip        string `json:"tip"`
}

// GradingResult is the outcome of grading an AnsweredQuiz.
type GradingResult struct {
	GradedAnswers   []GradedAnswer `json:"gradedAnswers"`
	FinalQuizGrade  float64        `json:"finalQuizGrade"`
	FinalSummaryTip string         `json:"finalSummaryTip"`
}
