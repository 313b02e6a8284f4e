// Package ingestion turns scraped interview-experience HTML into companies and quizzes.
package ingestion

import (
	"strings"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/tagging"

	"go.uber.org/zap"
)

// Stats counts what a parse produced.
type Stats struct {
	Files   int `json:"files"`
	Records int `json:"records"`
	Skipped int `json:"skipped"`
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Records += o.Records
	s.Skipped += o.Skipped
}

// tagger holds what both parsers need to build tag sets.
type tagger struct {
	classifier *tagging.Classifier
	log        *zap.Logger
}

func (t tagger) companyTags(en, he string) []string {
	return domain.MergeTags([]string{en, he}, t.classifier.MatchPredefinedTags(en+" "+he)...)
}

// quizTags builds {en, he, title tokens} ∪ matched(title) ∪ matched(content) ∪ specialties(content) ∪ extra.
func (t tagger) quizTags(en, he, title, contentText string, extra ...string) []string {
	tags := domain.MergeTags([]string{en, he}, titleTokens(title)...)
	tags = domain.MergeTags(tags, t.classifier.MatchPredefinedTags(title)...)
	tags = domain.MergeTags(tags, t.classifier.MatchPredefinedTags(contentText)...)
	tags = domain.MergeTags(tags, t.classifier.SpecialtyTags(contentText)...)
	return domain.MergeTags(tags, extra...)
}

func (t tagger) skip(source string, err *domain.DomainError, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String("source", source), zap.String("reason", err.Message)}, fields...)
	t.log.Warn("Skipping quiz record", fields...)
}

// companySet keeps companies of one document in first-seen order.
type companySet struct {
	order []*domain.Company
	byKey map[domain.CompanyKey]*domain.Company
}

func newCompanySet() *companySet {
	return &companySet{byKey: make(map[domain.CompanyKey]*domain.Company)}
}

func (s *companySet) get(t tagger, en, he string) *domain.Company {
	c := domain.NewCompany(en, he)
	if existing, ok := s.byKey[c.Key()]; ok {
		return existing
	}
	c.Tags = t.companyTags(c.CompanyEn, c.CompanyHe)
	s.byKey[c.Key()] = c
	s.order = append(s.order, c)
	return c
}

// nonEmpty drops companies that ended up without quizzes.
func (s *companySet) nonEmpty() []*domain.Company {
	out := make([]*domain.Company, 0, len(s.order))
	for _, c := range s.order {
		if len(c.Quizzes) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func fillNames(en, he, fallback string) (string, string) {
	en, he = strings.TrimSpace(en), strings.TrimSpace(he)
	switch {
	case en == "" && he == "":
		return fallback, fallback
	case en == "":
		return fallback, he
	case he == "":
		return en, fallback
	}
	return en, he
}
