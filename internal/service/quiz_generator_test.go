package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quiz-corpus/internal/domain"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const fencedQuiz = "<think>the user wants a QA quiz</think>\nHere you go:\n```json\n" + `{
  "id": "",
  "title": "Intel QA interview",
  "tags": ["QA", "Intel"],
  "content": "Two rounds with the team lead.",
  "jobRole": "QA engineer",
  "companyNameEn": "Intel",
  "companyNameHe": "אינטל",
  "processDetails": "Phone screen, then a home assignment.",
  "questionList": ["How do you test a login page?", "What is a regression test?"],
  "answerList": ["Boundary values and negative cases.", "Re-running tests after a change."],
  "keywords": ["testing"],
  "interviewerMindset": "Looks for structured thinking."
}` + "\n```\n"

func TestGenerate_ParsesFencedResponse(t *testing.T) {
	examples := []*domain.Quiz{{ID: "q1", Title: "Q1", Tags: []string{"QA"}}}
	search := new(MockSearchService)
	search.On("Search", mock.Anything, []string{"QA", "Intel"}).Return(examples)

	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, generationPersona, mock.MatchedBy(func(msgs []string) bool {
		return len(msgs) == 1 && strings.Contains(msgs[0], `"QA Intel"`) && !strings.Contains(msgs[0], `"specialtyTags"`)
	})).Return(fencedQuiz, nil)

	svc := NewQuizGeneratorService(search, chat, testConfig())
	quiz, err := svc.Generate(context.Background(), "  QA Intel ")

	require.NoError(t, err)
	assert.Equal(t, "Intel QA interview", quiz.Title)
	assert.Equal(t, "אינטל", quiz.CompanyNameHe)
	assert.Len(t, quiz.AnswerList, len(quiz.QuestionList))
	assert.Equal(t, []string{}, quiz.SpecialtyTags)
	_, err = ulid.Parse(quiz.ID)
	assert.NoError(t, err, "empty id is replaced with a ULID")
	chat.AssertNumberOfCalls(t, "Chat", 1)
}

func TestGenerate_SpecialtySubject(t *testing.T) {
	search := new(MockSearchService)
	search.On("Search", mock.Anything, []string{"SPECIALTY_CODE", "specialty_design", "Go"}).Return([]*domain.Quiz{})

	response := `{"id":"gen-1","title":"Go","questionList":["q"],"answerList":["a"],"specialtyTags":["code","DESIGN","code","ART"],"tags":null}`
	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, generationPersona, mock.MatchedBy(func(msgs []string) bool {
		return strings.Contains(msgs[0], "CODE, DESIGN") && strings.Contains(msgs[0], `"specialtyTags"`)
	})).Return(response, nil)

	svc := NewQuizGeneratorService(search, chat, testConfig())
	quiz, err := svc.Generate(context.Background(), "SPECIALTY_CODE specialty_design Go")

	require.NoError(t, err)
	assert.Equal(t, "gen-1", quiz.ID)
	assert.Equal(t, []string{"CODE", "DESIGN"}, quiz.SpecialtyTags)
	assert.Equal(t, []string{}, quiz.Tags)
	assert.Equal(t, []string{}, quiz.Keywords)
}

func TestGenerate_TruncatesContext(t *testing.T) {
	examples := make([]*domain.Quiz, 5)
	for i := range examples {
		examples[i] = &domain.Quiz{ID: fmt.Sprintf("ctx-%d", i), Title: "t"}
	}
	search := new(MockSearchService)
	search.On("Search", mock.Anything, []string{"go"}).Return(examples)

	chat := new(MockChatClient)
	chat.On("Chat", mock.Anything, generationPersona, mock.MatchedBy(func(msgs []string) bool {
		// testConfig keeps two examples
		return strings.Contains(msgs[0], "ctx-1") && !strings.Contains(msgs[0], "ctx-2")
	})).Return(`{"title":"Go","questionList":["q"],"answerList":["a"]}`, nil)

	svc := NewQuizGeneratorService(search, chat, testConfig())
	_, err := svc.Generate(context.Background(), "go")
	require.NoError(t, err)
	chat.AssertExpectations(t)
}

func TestGenerate_Errors(t *testing.T) {
	timeout := domain.NewLLMTimeoutError("chat", context.DeadlineExceeded)

	tests := []struct {
		name          string
		response      string
		chatErr       error
		expectedCode  domain.ErrorCode
		hasViolations bool
	}{
		{name: "timeout passes through", chatErr: timeout, expectedCode: domain.ErrLLMTimeout},
		{name: "transport failure", chatErr: errors.New("connection reset"), expectedCode: domain.ErrAIGeneration},
		{name: "no json", response: "I cannot help with that.", expectedCode: domain.ErrAIGeneration},
		{name: "missing answer list", response: `{"title":"x","questionList":["q"]}`, expectedCode: domain.ErrAIGeneration, hasViolations: true},
		{name: "list length mismatch", response: `{"title":"x","questionList":["q1","q2"],"answerList":["a1"]}`, expectedCode: domain.ErrAIGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := new(MockSearchService)
			search.On("Search", mock.Anything, mock.Anything).Return([]*domain.Quiz{})
			chat := new(MockChatClient)
			chat.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(tt.response, tt.chatErr)

			svc := NewQuizGeneratorService(search, chat, testConfig())
			quiz, err := svc.Generate(context.Background(), "backend")

			assert.Nil(t, quiz)
			var derr *domain.DomainError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.expectedCode, derr.Code)
			if tt.hasViolations {
				assert.NotEmpty(t, derr.Context["violations"])
			}
		})
	}
}

func TestGenerate_BlankSubject(t *testing.T) {
	search := new(MockSearchService)
	chat := new(MockChatClient)

	svc := NewQuizGeneratorService(search, chat, testConfig())
	_, err := svc.Generate(context.Background(), "   ")

	assert.True(t, domain.HasCode(err, domain.ErrInvalidInput))
	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	chat.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything)
}

func TestSpecialtyDescriptor(t *testing.T) {
	assert.Equal(t, "CODE, DESIGN", SpecialtyDescriptor([]string{"SPECIALTY_code", "go", "Specialty_Design"}))
	assert.Equal(t, "", SpecialtyDescriptor([]string{"SPECIALTY_", "backend"}))
}
