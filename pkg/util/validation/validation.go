package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

var (
	validate = newValidator()
	// strict drops every element; script and style bodies go with it.
	strict = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", validatePassword)
	return v
}

// validatePassword requires at least one uppercase letter, one lowercase letter and one digit.
func validatePassword(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// ValidateStruct runs struct tag validation and converts failures to a BadRequest DomainError.
// The message lists every failing field; Details maps field name to its message.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewBadRequest("Invalid request payload")
	}

	messages := make([]string, 0, len(verrs))
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		messages = append(messages, msg)
		if _, seen := details[fe.Field()]; !seen {
			details[fe.Field()] = msg
		}
	}
	return apperrors.NewValidationError(strings.Join(messages, ", "), details)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + param + " characters"
		}
		return field + " must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + param + " characters"
		}
		return field + " must be at most " + param
	case "email":
		return "Please provide a valid email address"
	case "uuid":
		return field + " must be a valid id"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "password":
		return "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	default:
		return field + " is invalid"
	}
}

// StripTags removes HTML markup and surrounding whitespace from a string input.
// Remaining text is HTML-escaped.
func StripTags(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// StripTagsPtr applies StripTags to an optional string.
func StripTagsPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := StripTags(*s)
	return &out
}

// IsUUID reports whether s is a well-formed id.
func IsUUID(s string) bool {
	return validate.Var(s, "required,uuid") == nil
}
