package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/llmjson"
)

const specialtyPrefix = "SPECIALTY_"

const generationPersona = `You are a senior technical recruiter and interview coach who has sat on hundreds of hiring panels at Israeli tech companies.
You write realistic interview quizzes, grounded in real candidates' reports, in the language of the request (Hebrew or English).
You always answer with a single JSON object and nothing else.`

const gradingPersona = `You are a strict but fair interviewer grading a candidate's written answers to an interview quiz.
You explain each grade with one short, forward-looking tip, and you always answer with a single JSON object and nothing else.`

const specialtyLegend = `Specialty tags:
- CODE: coding, algorithms and data-structure questions
- DESIGN: system and software design questions
- TECHNOLOGIES: questions about specific technologies, tools and frameworks`

var generatedQuizSchema = llmjson.MustCompile(`{
	"type": "object",
	"required": ["title", "questionList", "answerList"],
	"properties": {
		"id": {"type": ["string", "null"]},
		"title": {"type": "string", "minLength": 1},
		"tags": {"type": ["array", "null"], "items": {"type": "string"}},
		"content": {"type": ["string", "null"]},
		"jobRole": {"type": ["string", "null"]},
		"companyNameEn": {"type": ["string", "null"]},
		"companyNameHe": {"type": ["string", "null"]},
		"processDetails": {"type": ["string", "null"]},
		"questionList": {"type": "array", "minItems": 1, "items": {"type": "string"}},
		"answerList": {"type": "array", "items": {"type": "string"}},
		"keywords": {"type": ["array", "null"], "items": {"type": "string"}},
		"interviewerMindset": {"type": ["string", "null"]},
		"specialtyTags": {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`)

var gradingResultSchema = llmjson.MustCompile(`{
	"type": "object",
	"required": ["gradedAnswers"],
	"properties": {
		"gradedAnswers": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["grade"],
				"properties": {
					"question": {"type": ["string", "null"]},
					"userAnswer": {"type": ["string", "null"]},
					"grade": {"type": "number"},
					"tip": {"type": ["string", "null"]}
				}
			}
		},
		"finalQuizGrade": {"type": ["number", "null"]},
		"finalSummaryTip": {"type": ["string", "null"]}
	}
}`)

// SpecialtyDescriptor joins the SPECIALTY_-prefixed tokens of a subject, prefix stripped.
func SpecialtyDescriptor(tokens []string) string {
	var names []string
	for _, t := range tokens {
		if len(t) > len(specialtyPrefix) && strings.EqualFold(t[:len(specialtyPrefix)], specialtyPrefix) {
			names = append(names, strings.ToUpper(t[len(specialtyPrefix):]))
		}
	}
	return strings.Join(names, ", ")
}

func buildGenerationPrompt(subject, specialty string, examples []*domain.Quiz) (string, error) {
	ex, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode example quizzes: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create one interview quiz for the subject: %q.\n\n", subject)
	if specialty != "" {
		fmt.Fprintf(&b, "Focus on these specialties: %s.\n%s\n\n", specialty, specialtyLegend)
	}
	fmt.Fprintf(&b, "Real interview reports for context (%d):\n%s\n\n", len(examples), ex)
	b.WriteString(`Return a JSON object with exactly these fields:
- "id": string, leave empty
- "title": string, a short title for the quiz
- "tags": array of strings
- "content": string, a realistic description of the interview
- "jobRole": string
- "companyNameEn": string, company name in English
- "companyNameHe": string, company name in Hebrew
- "processDetails": string, the stages of the interview process
- "questionList": array of strings, the interview questions
- "answerList": array of strings, a model answer for each question, same length and order as questionList
- "keywords": array of strings
- "interviewerMindset": string, what the interviewer is looking for
`)
	if specialty != "" {
		b.WriteString(`- "specialtyTags": array of strings, any of CODE, DESIGN, TECHNOLOGIES
`)
	}
	b.WriteString("\nReturn ONLY the JSON.")
	return b.String(), nil
}

func buildGradingPrompt(quiz *domain.AnsweredQuiz) (string, error) {
	data, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode answered quiz: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Grade the candidate's answers to this quiz. userAnswerList[i] answers questionList[i]:\n%s\n\n", data)
	b.WriteString(`Rubric for every answer:
1. Accuracy: is it technically correct?
2. Completeness: does it cover what the question asks?
3. Clarity and conciseness
4. Depth: does it go beyond the obvious?
5. Professional judgement: trade-offs, edge cases, real-world experience
6. Context: does it fit the question and the job role?

Give each answer a grade from 0 to 100 and one short tip on how to improve it next time.

Return a JSON object with exactly these fields:
- "gradedAnswers": array with one object per question, in order: {"question": string, "userAnswer": string, "grade": number, "tip": string}
- "finalQuizGrade": number, the average of all grades
- "finalSummaryTip": string, an overall tip that refers to the interviewerMindset of the quiz

Return ONLY the JSON.`)
	return b.String(), nil
}
