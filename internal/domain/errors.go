package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"

	// Corpus errors
	ErrParseSkip      ErrorCode = "PARSE_SKIP"
	ErrIngestionIO    ErrorCode = "INGESTION_IO_ERROR"
	ErrSearchStore    ErrorCode = "SEARCH_STORE_ERROR"
	ErrAIGeneration   ErrorCode = "AI_GENERATION_ERROR"
	ErrAIGrading      ErrorCode = "AI_GRADING_ERROR"
	ErrLLMTimeout     ErrorCode = "LLM_TIMEOUT"
	ErrValidationCode ErrorCode = "VALIDATION_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Err     error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a detail that is surfaced in error responses.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err carries a DomainError with the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(ErrUnauthorized, message, nil)
}

func NewParseSkipError(reason string) *DomainError {
	return NewError(ErrParseSkip, reason, nil)
}

func NewIngestionIOError(source string, err error) *DomainError {
	return NewError(ErrIngestionIO, fmt.Sprintf("Failed to read ingestion source %s", source), err).
		WithContext("source", source)
}

func NewSearchStoreError(err error) *DomainError {
	return NewError(ErrSearchStore, "Corpus store unavailable", err)
}

func NewAIGenerationError(err error) *DomainError {
	return NewError(ErrAIGeneration, "Failed to generate quiz with LLM service", err)
}

func NewAIGradingError(err error) *DomainError {
	return NewError(ErrAIGrading, "Failed to grade quiz with LLM service", err)
}

func NewLLMTimeoutError(operation string, err error) *DomainError {
	return NewError(ErrLLMTimeout, "LLM request timed out", err).WithContext("operation", operation)
}
