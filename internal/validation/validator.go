package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"quiz-corpus/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	MaxSearchTags = 20
	maxTagLength  = 100
)

// Validator provides request validation functionality
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// report json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct runs the struct's validate tags and converts failures to domain.ValidationErrors.
func (v *Validator) ValidateStruct(s interface{}) domain.ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationErrors{{Message: err.Error()}}
	}

	var out domain.ValidationErrors
	for _, fe := range fieldErrs {
		out = append(out, toValidationError(fe))
	}
	return out
}

func toValidationError(fe validator.FieldError) domain.ValidationError {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return domain.NewMissingFieldError(field)
	case "max":
		return domain.ValidationError{Field: field, Message: fmt.Sprintf("must be at most %s characters", fe.Param())}
	default:
		return domain.NewInvalidFormatError(field, fe.Value())
	}
}

// ParseTags splits a comma-separated tag list. Blank entries are dropped; an
// empty list is valid and yields no tags.
func (v *Validator) ParseTags(raw string) ([]string, domain.ValidationErrors) {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	var errs domain.ValidationErrors
	if len(tags) > MaxSearchTags {
		errs = append(errs, domain.NewOutOfRangeError("tags", len(tags), 0, MaxSearchTags))
	}
	for _, t := range tags {
		if len([]rune(t)) > maxTagLength {
			errs = append(errs, domain.NewOutOfRangeError("tags", t, 1, maxTagLength))
			break
		}
	}
	return tags, errs
}
