// Package llmjson pulls a JSON value out of free-form model output and checks it against a schema.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fenceOpen  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
)

// ErrNoJSON is returned when the output holds no JSON value.
var ErrNoJSON = errors.New("no JSON value found in model output")

// ValidationError lists schema violations of an extracted document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "model output does not match schema: " + strings.Join(e.Violations, "; ")
}

// Extract returns the first top-level JSON object or array in s, ignoring
// <think> blocks, markdown fences and surrounding prose.
func Extract(s string) (json.RawMessage, error) {
	return extract(s, "{[")
}

// ExtractObject is Extract restricted to objects, so bracketed prose such as
// "[1]" ahead of the payload is skipped.
func ExtractObject(s string) (json.RawMessage, error) {
	return extract(s, "{")
}

func extract(s, openers string) (json.RawMessage, error) {
	s = thinkBlock.ReplaceAllString(s, "")
	// an unterminated <think> swallows everything after it
	if i := strings.Index(s, "<think>"); i >= 0 {
		s = s[:i]
	}
	s = fenceOpen.ReplaceAllString(s, "")

	for start := strings.IndexAny(s, openers); start >= 0; {
		dec := json.NewDecoder(strings.NewReader(s[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return raw, nil
		}
		next := strings.IndexAny(s[start+1:], openers)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, ErrNoJSON
}

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema literal, panicking on a malformed schema.
func MustCompile(schemaJSON string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("llmjson: invalid schema: %v", err))
	}
	return &Schema{schema: s}
}

// Validate checks doc against the schema.
func (s *Schema) Validate(doc []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate model output: %w", err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, re := range result.Errors() {
		verr.Violations = append(verr.Violations, re.String())
	}
	return verr
}

// Decode extracts the JSON object from output, validates it and unmarshals it into v.
func (s *Schema) Decode(output string, v any) error {
	raw, err := ExtractObject(output)
	if err != nil {
		return err
	}
	if err := s.Validate(raw); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode model output: %w", err)
	}
	return nil
}
