package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation wraps rule violations found by the validator.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps JSON or query decoding failures.
	ErrBinding = errors.New("binding failed")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in its errors are the
// JSON names of the request structs, and it knows the notempty tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		_ = validate.RegisterValidation("notempty", validateNotEmpty)
	})

	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	return name
}

// Validate runs the struct's validate tags.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	return bindAndValidate(c.ShouldBindJSON, v)
}

// BindQueryAndValidate decodes the query string into v and validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	return bindAndValidate(c.ShouldBindQuery, v)
}

func bindAndValidate(bind func(any) error, v any) error {
	if err := bind(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// ValidationErrors returns one message per failing field, keyed by the JSON
// field name. Errors that did not come from the validator yield an empty map.
func ValidationErrors(err error) map[string]string {
	fieldErrors := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fe := range validationErrs {
			fieldErrors[fe.Field()] = validationMessage(fe)
		}
	}

	return fieldErrors
}

func IsValidationError(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}

// validationMessages maps tags to message templates; {param} is replaced by
// the tag parameter. min and max depend on the field kind and are handled by
// minMaxMessage.
var validationMessages = map[string]string{
	"required": "this field is required",
	"notempty": "must not be empty",
	"email":    "must be a valid email address",
	"url":      "must be a valid URL",
	"gte":      "must be greater than or equal to {param}",
	"lte":      "must be less than or equal to {param}",
	"gt":       "must be greater than {param}",
	"lt":       "must be less than {param}",
	"oneof":    "must be one of: {param}",
}

func validationMessage(fe validator.FieldError) string {
	switch tag := fe.Tag(); tag {
	case "min", "max":
		return minMaxMessage(tag, fe.Param(), fe.Type().Kind())
	default:
		if msg, ok := validationMessages[tag]; ok {
			return strings.ReplaceAll(msg, "{param}", fe.Param())
		}

		return "failed validation: " + tag
	}
}

// minMaxMessage counts characters for strings and compares values otherwise.
func minMaxMessage(tag, param string, kind reflect.Kind) string {
	bound := "at most"
	if tag == "min" {
		bound = "at least"
	}

	if kind == reflect.String {
		return fmt.Sprintf("must be %s %s characters", bound, param)
	}

	return fmt.Sprintf("must be %s %s", bound, param)
}

// validateNotEmpty rejects strings that are blank after trimming.
func validateNotEmpty(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
