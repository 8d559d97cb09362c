package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// isoDatePattern matches the YYYY-MM-DD dates the workspace API emits
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isoDatePattern.MatchString(fl.Field().String())
	})
}

// FieldError describes the first struct field that failed validation.
type FieldError struct {
	Field string // namespaced field, e.g. "RelationNode.FactSheet.ID"
	Tag   string
	Param string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s: field is required", e.Field)
	case "min":
		return fmt.Sprintf("%s: must be at least %s", e.Field, e.Param)
	case "max":
		return fmt.Sprintf("%s: must not exceed %s", e.Field, e.Param)
	case "isodate":
		return fmt.Sprintf("%s: must be a YYYY-MM-DD date", e.Field)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", e.Field, e.Param)
	case "transport":
		return fmt.Sprintf("%s: must use one of the transports [%s]", e.Field, e.Param)
	default:
		return fmt.Sprintf("%s: validation failed (%s)", e.Field, e.Tag)
	}
}

// Struct validates v against its `validate` struct tags.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a *FieldError
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error
	for _, e := range validationErrs {
		return &FieldError{
			Field: e.Namespace(),
			Tag:   e.Tag(),
			Param: e.Param(),
		}
	}

	return err
}
