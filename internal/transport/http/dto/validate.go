package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/devstudio/site-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so error meta matches what the client sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// normalizer is implemented by requests whose fields are canonicalized
// before the tags are checked.
type normalizer interface {
	Normalize()
}

// Validate checks the struct tags of a request DTO and converts the first
// failing field into a domain error.
func Validate(req any) error {
	if n, ok := req.(normalizer); ok {
		n.Normalize()
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.ErrInvalidField("body", err.Error())
	}
	return fieldError(fieldErrs[0])
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.ErrMissingField(field)
	case "email":
		return domain.ErrInvalidField(field, "must be a valid email address")
	case "max":
		return domain.ErrInvalidField(field, "must be at most "+fe.Param()+" characters")
	case "url", "http_url":
		return domain.ErrInvalidField(field, "must be a valid URL")
	case "oneof":
		return domain.ErrInvalidField(field, "must be one of: "+fe.Param())
	default:
		return domain.ErrInvalidField(field, "is invalid")
	}
}
