package middleware

import (
	"quiz-corpus/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const ValidatedTagsKey = "validated_tags"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(v *validation.Validator) *ValidationMiddleware {
	return &ValidationMiddleware{validator: v}
}

// ValidateTags parses the comma-separated tags query parameter
func (vm *ValidationMiddleware) ValidateTags() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, errs := vm.validator.ParseTags(c.Query("tags"))
		if len(errs) > 0 {
			return errs // This will be handled by ErrorHandler
		}

		// Store validated value in context for handlers to use
		c.Locals(ValidatedTagsKey, tags)
		return c.Next()
	}
}

// ValidatedTags returns the tags stored by ValidateTags.
func ValidatedTags(c *fiber.Ctx) []string {
	tags, _ := c.Locals(ValidatedTagsKey).([]string)
	return tags
}
