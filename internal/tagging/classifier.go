package tagging

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"quiz-corpus/internal/domain"
)

// Word characters for boundary checks. Go's \b is ASCII-only, which would never
// separate Hebrew words, so boundaries are spelled out with Unicode classes.
const (
	leftBoundary  = `(?:^|[^\p{L}\p{M}\p{N}_])`
	rightBoundary = `(?:$|[^\p{L}\p{M}\p{N}_])`
)

type compiledTag struct {
	tag     string
	pattern *regexp.Regexp
}

type specialtyTerms struct {
	specialty domain.Specialty
	terms     []string
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	tags        []compiledTag
	specialties []specialtyTerms
}

// NewClassifier compiles a dictionary.
func NewClassifier(dict *Dictionary) (*Classifier, error) {
	c := &Classifier{}
	seen := make(map[string]struct{})
	for _, group := range dict.Predefined {
		for _, tag := range group.Terms.Terms() {
			tag = strings.TrimSpace(tag)
			key := strings.ToLower(tag)
			if tag == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			re, err := regexp.Compile(`(?i)` + leftBoundary + regexp.QuoteMeta(tag) + rightBoundary)
			if err != nil {
				return nil, fmt.Errorf("failed to compile tag %q: %w", tag, err)
			}
			c.tags = append(c.tags, compiledTag{tag: tag, pattern: re})
		}
	}

	for _, sp := range domain.Specialties {
		list, ok := dict.Specialties[sp]
		if !ok {
			continue
		}
		st := specialtyTerms{specialty: sp}
		for _, term := range list.Terms() {
			if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
				st.terms = append(st.terms, term)
			}
		}
		c.specialties = append(c.specialties, st)
	}
	return c, nil
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
	defaultErr        error
)

// Default returns the classifier built from the embedded dictionary.
func Default() *Classifier {
	defaultOnce.Do(func() {
		dict, err := ParseDictionary(embeddedDictionary)
		if err != nil {
			defaultErr = err
			return
		}
		defaultClassifier, defaultErr = NewClassifier(dict)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded tag dictionary is invalid: %v", defaultErr))
	}
	return defaultClassifier
}

// Load builds a classifier from path, falling back to the embedded dictionary when path is empty.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	dict, err := LoadDictionary(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(dict)
}

// MatchPredefinedTags returns every dictionary tag that occurs in text as a whole word,
// ignoring case, in dictionary order.
func (c *Classifier) MatchPredefinedTags(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	matches := []string{}
	for _, t := range c.tags {
		if t.pattern.MatchString(text) {
			matches = append(matches, t.tag)
		}
	}
	return matches
}

// DetectSpecialties reports each specialty with at least one term contained in text.
// Containment is a case-insensitive substring test, not a whole-word one.
func (c *Classifier) DetectSpecialties(text string) []domain.Specialty {
	found := []domain.Specialty{}
	if text == "" {
		return found
	}
	lower := strings.ToLower(text)
	for _, st := range c.specialties {
		for _, term := range st.terms {
			if strings.Contains(lower, term) {
				found = append(found, st.specialty)
				break
			}
		}
	}
	return found
}

// SpecialtyTags is DetectSpecialties rendered as tag strings.
func (c *Classifier) SpecialtyTags(text string) []string {
	specialties := c.DetectSpecialties(text)
	out := make([]string, 0, len(specialties))
	for _, sp := range specialties {
		out = append(out, string(sp))
	}
	return out
}
