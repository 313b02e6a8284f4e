package domain

import (
	"strings"
)

// Company is one organization's merged interview-quiz corpus.
type Company struct {
	ID        string   `json:"id"`
	CompanyEn string   `json:"companyEn"`
	CompanyHe string   `json:"companyHe"`
	Tags      []string `json:"tags"`
	Quizzes   []*Quiz  `json:"quizzes"`
}

// NewCompany creates a Company with trimmed names and no quizzes.
func NewCompany(companyEn, companyHe string) *Company {
	return &Company{
		CompanyEn: strings.TrimSpace(companyEn),
		CompanyHe: strings.TrimSpace(companyHe),
		Tags:      []string{},
		Quizzes:   []*Quiz{},
	}
}

// CompanyKey identifies a company across source files.
type CompanyKey struct {
	En string
	He string
}

// Key returns the identity key used to merge companies.
func (c *Company) Key() CompanyKey {
	return CompanyKey{En: strings.TrimSpace(c.CompanyEn), He: strings.TrimSpace(c.CompanyHe)}
}

// Validate reports a company without any name.
func (c *Company) Validate() error {
	if strings.TrimSpace(c.CompanyEn) == "" && strings.TrimSpace(c.CompanyHe) == "" {
		return NewValidationError("company name is required")
	}
	return nil
}

// Quiz is one normalized interview-experience record.
type Quiz struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	SourceQuizID       int64    `json:"sourceQuizId"`
	Tags               []string `json:"tags"`
	Content            string   `json:"content"`
	ForumLink          string   `json:"forumLink,omitempty"`
	ProcessDetails     string   `json:"processDetails,omitempty"`
	InterviewQuestions string   `json:"interviewQuestions,omitempty"`
}

// Validate reports a quiz that cannot be stored.
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return NewValidationError("title is required")
	}
	if q.SourceQuizID == 0 {
		return NewValidationError("source quiz id is required")
	}
	return nil
}

// MergeTags appends tags that are not already present, comparing case-insensitively.
// The first spelling of a tag wins and the order of first appearance is kept.
func MergeTags(existing []string, more ...string) []string {
	seen := make(map[string]struct{}, len(existing)+len(more))
	out := make([]string, 0, len(existing)+len(more))
	for _, group := range [][]string{existing, more} {
		for _, tag := range group {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			lower := strings.ToLower(tag)
			if _, ok := seen[lower]; ok {
				continue
			}
			seen[lower] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// LowerTags returns the lower-cased, de-duplicated form of tags.
func LowerTags(tags []string) []string {
	merged := MergeTags(nil, tags...)
	for i, tag := range merged {
		merged[i] = strings.ToLower(tag)
	}
	return merged
}
