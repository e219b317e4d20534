package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps struct field names to human readable messages.
type ValidationErrors map[string]string

// ProcessValidatorErrors converts validator errors into per-field messages.
// labelFor maps a struct field to its display name; empty falls back to the
// field name itself.
func ProcessValidatorErrors(errs validator.ValidationErrors, labelFor func(field string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fieldErr := range errs {
		label := ""
		if labelFor != nil {
			label = labelFor(fieldErr.Field())
		}
		if label == "" {
			label = fieldErr.Field()
		}
		out[fieldErr.Field()] = messageFor(label, fieldErr)
	}
	return out
}

func messageFor(label string, err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, err.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, err.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
