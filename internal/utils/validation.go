package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/storefront/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct checks `validate` tags and returns a Validation error
// naming the failing fields.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), describeTag(fe)))
	}
	return apperr.WithMessage(apperr.ErrValidation, strings.Join(msgs, "; "))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "not a valid email"
	case "min":
		return "shorter than " + fe.Param()
	case "max":
		return "longer than " + fe.Param()
	case "gte":
		return "less than " + fe.Param()
	case "oneof":
		return "not one of " + fe.Param()
	case "len":
		return "not " + fe.Param() + " characters long"
	case "numeric":
		return "not numeric"
	default:
		return "invalid"
	}
}
