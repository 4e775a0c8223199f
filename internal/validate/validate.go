// Package validate checks request payloads at the HTTP and form boundary.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"gamerlink/internal/domain"

	"github.com/go-playground/validator/v10"
)

const MaxGamertagLength = 32

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{f.Tag.Get("json"), f.Tag.Get("form")} {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = val.RegisterValidation("username", validUsername)
	_ = val.RegisterValidation("gamertag", validGamertag)
	_ = val.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		return domain.ValidTimezone(fl.Field().String())
	})
	_ = val.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParsePlatform(fl.Field().String())
		return ok
	})
	_ = val.RegisterValidation("avatar", func(fl validator.FieldLevel) bool {
		_, ok := domain.FindAvatar(fl.Field().String())
		return ok
	})
	return val
}

// Struct validates s and reports failures as a *domain.ValidationError keyed
// by the json (or form) field name.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return domain.NewValidationError(fields)
}

// Var validates a single value against a tag list.
func Var(field string, value any, tag string) error {
	err := v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return domain.NewValidationError(map[string]string{field: message(verrs[0])})
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "invalid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be " + fe.Param() + " characters or less"
	case "username":
		return "must be 3-24 characters: letters, numbers, underscore"
	case "gamertag":
		return "must be 32 characters or less without control characters"
	case "timezone":
		return "unknown timezone"
	case "platform":
		return "unknown platform"
	case "avatar":
		return "unknown avatar"
	default:
		return "invalid"
	}
}

func validUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 3 || len(s) > 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// An empty gamertag is allowed; it clears the field.
func validGamertag(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len([]rune(s)) > MaxGamertagLength {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
