package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig matches every error returned by ConfigValidator.Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError lists every problem found in one configuration source.
type ConfigError struct {
	Source   string
	Problems []*FieldError
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%s: %s", e.Source, strings.Join(msgs, "; "))
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ConfigValidator collects problems with configuration fields instead of
// stopping at the first. Fields are named by their dotted YAML path, e.g.
// "workspace.page_size".
type ConfigValidator struct {
	source   string
	problems []*FieldError
}

// NewConfigValidator starts a validation of the named source.
func NewConfigValidator(source string) *ConfigValidator {
	return &ConfigValidator{source: source}
}

func (cv *ConfigValidator) add(field, tag, param string) *ConfigValidator {
	cv.problems = append(cv.problems, &FieldError{Field: field, Tag: tag, Param: param})
	return cv
}

// Required reports an empty value.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		return cv.add(field, "required", "")
	}
	return cv
}

// IntRange reports a value outside [min, max].
func (cv *ConfigValidator) IntRange(field string, value, min, max int) *ConfigValidator {
	switch {
	case value < min:
		return cv.add(field, "min", fmt.Sprint(min))
	case value > max:
		return cv.add(field, "max", fmt.Sprint(max))
	}
	return cv
}

// MinDuration reports a duration below min.
func (cv *ConfigValidator) MinDuration(field string, value, min time.Duration) *ConfigValidator {
	if value < min {
		return cv.add(field, "min", min.String())
	}
	return cv
}

// OneOf reports a value outside allowed.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	return cv.add(field, "oneof", strings.Join(allowed, " "))
}

// Date reports a value that is not a calendar date written YYYY-MM-DD.
func (cv *ConfigValidator) Date(field, value string) *ConfigValidator {
	if !isoDatePattern.MatchString(value) {
		return cv.add(field, "isodate", "")
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return cv.add(field, "isodate", "")
	}
	return cv
}

// Transport reports an address whose scheme is not one of schemes.
func (cv *ConfigValidator) Transport(field, addr string, schemes ...string) *ConfigValidator {
	for _, s := range schemes {
		if strings.HasPrefix(addr, s+"://") {
			return cv
		}
	}
	return cv.add(field, "transport", strings.Join(schemes, " "))
}

// When runs validations only if condition holds.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// Problems returns the problems collected so far.
func (cv *ConfigValidator) Problems() []*FieldError {
	return cv.problems
}

// Validate returns a *ConfigError holding every problem, or nil.
func (cv *ConfigValidator) Validate() error {
	if len(cv.problems) == 0 {
		return nil
	}
	return &ConfigError{Source: cv.source, Problems: cv.problems}
}

// DefaultOr returns value unless it is the zero value of T.
func DefaultOr[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}
