package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"todoguard/internal/core/model/response"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name
	Validator.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")
	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}
}

// Result is the outcome of validating a T: either a usable Value or the list
// of problems found.
type Result[T any] struct {
	Value  T
	Errors []response.ValidationError
}

func (r Result[T]) Valid() bool {
	return len(r.Errors) == 0
}

// Validate checks value against its validate tags.
func Validate[T any](value T) Result[T] {
	if err := Validator.Struct(value); err != nil {
		return Result[T]{Value: value, Errors: FormatValidationErrors(err)}
	}
	return Result[T]{Value: value}
}

// BindJSON decodes the request body into a T and validates it.
func BindJSON[T any](c *gin.Context) Result[T] {
	var value T

	if err := c.ShouldBindJSON(&value); err != nil {
		return Result[T]{Errors: formatDecodeError(err)}
	}

	return Validate(value)
}

func FormatValidationErrors(err error) []response.ValidationError {
	var errs []response.ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			errs = append(errs, response.ValidationError{
				Field:   fieldError.Field(),
				Message: fieldError.Translate(Translator),
			})
		}
		return errs
	}

	return []response.ValidationError{{Field: "body", Message: err.Error()}}
}

func formatDecodeError(err error) []response.ValidationError {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &typeErr):
		return []response.ValidationError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type.String()),
		}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []response.ValidationError{{Field: "body", Message: "request body is not valid JSON"}}
	case errors.Is(err, io.EOF):
		return []response.ValidationError{{Field: "body", Message: "request body is required"}}
	default:
		return []response.ValidationError{{Field: "body", Message: err.Error()}}
	}
}
