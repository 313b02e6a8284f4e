// Package tagging classifies free text against a static bilingual tag dictionary.
package tagging

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"quiz-corpus/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var embeddedDictionary []byte

// Locale tags a synonym list with its language.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleHebrew  Locale = "he"
)

// Kind groups predefined tags by what they describe.
type Kind string

const (
	KindCompany    Kind = "company"
	KindRole       Kind = "role"
	KindTechnology Kind = "technology"
	KindProcess    Kind = "process"
)

// TermList holds locale-tagged synonyms.
type TermList map[Locale][]string

// Group is one kind of predefined tags.
type Group struct {
	Kind  Kind     `yaml:"kind"`
	Terms TermList `yaml:"terms"`
}

// Dictionary is the static classification data.
type Dictionary struct {
	Predefined  []Group                       `yaml:"predefined"`
	Specialties map[domain.Specialty]TermList `yaml:"specialties"`
}

// ParseDictionary decodes and validates a YAML dictionary.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var dict Dictionary
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("failed to decode tag dictionary: %w", err)
	}
	for sp := range dict.Specialties {
		if _, ok := domain.ParseSpecialty(string(sp)); !ok {
			return nil, fmt.Errorf("unknown specialty %q in tag dictionary", sp)
		}
	}
	if len(dict.Predefined) == 0 {
		return nil, fmt.Errorf("tag dictionary has no predefined tags")
	}
	return &dict, nil
}

// LoadDictionary reads a dictionary from path, or the embedded one when path is empty.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		return ParseDictionary(embeddedDictionary)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag dictionary %s: %w", path, err)
	}
	return ParseDictionary(data)
}

// locales returns the locales of a term list in a stable order.
func (t TermList) locales() []Locale {
	out := make([]Locale, 0, len(t))
	for loc := range t {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Terms flattens all locales, in locale order.
func (t TermList) Terms() []string {
	var out []string
	for _, loc := range t.locales() {
		out = append(out, t[loc]...)
	}
	return out
}
