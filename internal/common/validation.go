package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()
	// setParams holds the allowed values of tags registered by RegisterSetValidation.
	setParams = map[string]string{}
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// RegisterSetValidation registers tag as a check that a string field holds one
// of values. Call it from package init, before any validation runs.
func RegisterSetValidation(tag string, values []string) {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	})
	if err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
	setParams[tag] = strings.Join(values, " ")
}

// ValidationError carries per-field validation messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s %s", field, msg))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ValidateStruct validates a struct using go-playground/validator tags.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			fields := make(map[string]string, len(errs))
			for _, fe := range errs {
				fields[fe.Field()] = validationMessage(fe)
			}
			return &ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

// DecodeJSON decodes a JSON body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	}
	return nil
}

// DecodeAndValidate decodes a JSON body into dst and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	return ValidateStruct(dst)
}

// WriteValidationError renders a ValidationError as 422 with field details.
func WriteValidationError(w http.ResponseWriter, err *ValidationError) {
	JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", err.Fields)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "number":
		return "must contain digits only"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		if allowed, ok := setParams[fe.Tag()]; ok {
			return fmt.Sprintf("must be one of: %s", allowed)
		}
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
