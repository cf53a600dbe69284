package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// messages overrides the generic wording for specific field/tag pairs.
var messages = map[string]string{
	"username.min":        "Username must be at least 3 characters",
	"username.max":        "Username must be at most 20 characters",
	"username.username":   "Username can only contain letters, numbers, and underscores",
	"email.email":         "Invalid email address",
	"password.min":        "Password must be at least 8 characters",
	"content.min":         "Tweet cannot be empty",
	"content.max":         "Tweet cannot exceed 140 characters",
	"bio.max":             "Bio cannot exceed 160 characters",
	"avatarUrl.url|len=0": "Must be a valid URL",
}

// ValidationError lists every failed rule in field order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Use JSON tag names instead of struct field names for error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return &Validator{
		validate: v,
	}
}

// Validate returns a *ValidationError when i breaks a rule.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return formatValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	out := &ValidationError{}
	for _, err := range errs {
		if msg, ok := messages[err.Field()+"."+err.Tag()]; ok {
			out.Messages = append(out.Messages, msg)
			continue
		}

		var message string
		field := err.Field()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", field)
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
		default:
			message = fmt.Sprintf("%s failed validation for %s", field, err.Tag())
		}
		out.Messages = append(out.Messages, message)
	}

	return out
}
