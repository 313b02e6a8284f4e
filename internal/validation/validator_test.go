package validation

import (
	"strings"
	"testing"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct_GenerateRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateStruct(&dto.GenerateQuizRequest{Subject: "backend QA"}))

	errs := v.ValidateStruct(&dto.GenerateQuizRequest{Subject: "   "})
	require.Len(t, errs, 1)
	assert.Equal(t, "subject", errs[0].Field)
	assert.Equal(t, "field is required", errs[0].Message)

	errs = v.ValidateStruct(&dto.GenerateQuizRequest{Subject: strings.Repeat("x", 501)})
	require.Len(t, errs, 1)
	assert.Equal(t, "must be at most 500 characters", errs[0].Message)
}

func TestValidateStruct_GradeRequest(t *testing.T) {
	v := NewValidator()

	errs := v.ValidateStruct(&dto.GradeQuizRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "answeredQuiz", errs[0].Field)

	assert.Empty(t, v.ValidateStruct(&dto.GradeQuizRequest{AnsweredQuiz: &domain.AnsweredQuiz{}}))
}

func TestParseTags(t *testing.T) {
	v := NewValidator()

	tags, errs := v.ParseTags(" QA, Intel ,,אינטל ")
	assert.Empty(t, errs)
	assert.Equal(t, []string{"QA", "Intel", "אינטל"}, tags)

	tags, errs = v.ParseTags("")
	assert.Empty(t, errs)
	assert.Empty(t, tags)

	_, errs = v.ParseTags(strings.Repeat("a,", MaxSearchTags+1))
	require.Len(t, errs, 1)
	assert.Equal(t, "tags", errs[0].Field)

	_, errs = v.ParseTags(strings.Repeat("x", 101))
	assert.Len(t, errs, 1)
}
