package ingestion

import (
	"quiz-corpus/internal/domain"
)

// Rejection is a parsed record that failed validation and was left out of the merge.
type Rejection struct {
	CompanyEn    string
	CompanyHe    string
	Title        string
	SourceQuizID int64
	Err          error
}

// Merge combines batches of companies by (en, he) identity, keeping the first
// occurrence order. Quizzes are de-duplicated by source id within a company and
// their tags unioned. Invalid companies and quizzes are returned as rejections,
// and companies left without quizzes are dropped. Inputs are not modified.
func Merge(batches ...[]*domain.Company) ([]*domain.Company, []Rejection) {
	var order []*domain.Company
	var rejected []Rejection
	companies := make(map[domain.CompanyKey]*domain.Company)
	quizzes := make(map[domain.CompanyKey]map[int64]*domain.Quiz)

	for _, batch := range batches {
		for _, c := range batch {
			if err := c.Validate(); err != nil {
				for _, q := range c.Quizzes {
					rejected = append(rejected, rejection(c, q, err))
				}
				continue
			}

			key := c.Key()
			merged, ok := companies[key]
			if !ok {
				merged = domain.NewCompany(c.CompanyEn, c.CompanyHe)
				companies[key] = merged
				quizzes[key] = make(map[int64]*domain.Quiz)
				order = append(order, merged)
			}
			merged.Tags = domain.MergeTags(merged.Tags, c.Tags...)

			for _, q := range c.Quizzes {
				if err := q.Validate(); err != nil {
					rejected = append(rejected, rejection(c, q, err))
					continue
				}
				if prev, dup := quizzes[key][q.SourceQuizID]; dup {
					mergeQuiz(prev, q)
					continue
				}
				cp := *q
				cp.Tags = domain.MergeTags(nil, q.Tags...)
				quizzes[key][q.SourceQuizID] = &cp
				merged.Quizzes = append(merged.Quizzes, &cp)
			}
		}
	}

	var out []*domain.Company
	for _, c := range order {
		if len(c.Quizzes) > 0 {
			out = append(out, c)
		}
	}
	return out, rejected
}

func rejection(c *domain.Company, q *domain.Quiz, err error) Rejection {
	return Rejection{
		CompanyEn:    c.CompanyEn,
		CompanyHe:    c.CompanyHe,
		Title:        q.Title,
		SourceQuizID: q.SourceQuizID,
		Err:          err,
	}
}

func mergeQuiz(dst, src *domain.Quiz) {
	dst.Tags = domain.MergeTags(dst.Tags, src.Tags...)
	if dst.Content == "" {
		dst.Content = src.Content
	}
	if dst.ForumLink == "" {
		dst.ForumLink = src.ForumLink
	}
	if dst.ProcessDetails == "" {
		dst.ProcessDetails = src.ProcessDetails
	}
	if dst.InterviewQuestions == "" {
		dst.InterviewQuestions = src.InterviewQuestions
	}
}
