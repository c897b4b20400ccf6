package validator

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/subtrack/subtrack/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonTagName)
	})
	return validate
}

// ValidateRequest runs struct tag validation and converts failures into validation errors
func ValidateRequest(req interface{}) error {
	err := GetValidator().Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !ierr.As(err, &validationErrs) {
		return ierr.WithError(err).
			WithHint("Invalid request").
			Mark(ierr.ErrValidation)
	}

	details := make(map[string]interface{}, len(validationErrs))
	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		details[fe.Field()] = describe(fe)
		fields = append(fields, fe.Field())
	}

	return ierr.WithError(err).
		WithHintf("Invalid value for: %s", strings.Join(fields, ", ")).
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}
