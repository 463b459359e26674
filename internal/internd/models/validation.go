package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ves ValidationErrors) Error() string {
	if len(ves) == 0 {
		return ""
	}
	if len(ves) == 1 {
		return ves[0].Error()
	}

	var messages []string
	for _, ve := range ves {
		messages = append(messages, ve.Error())
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

var validate = NewValidator()

// NewValidator creates a validator with the request-specific rules registered
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("app_status", validateAppStatus)
	v.RegisterValidation("account_role", validateAccountRole)

	return v
}

// Validate runs tag validation on a request struct
func Validate(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return convertValidatorErrors(err)
	}
	return nil
}

// convertValidatorErrors converts go-playground validator errors to our format
func convertValidatorErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var out ValidationErrors
	for _, fe := range validationErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: getValidationMessage(fe),
		})
	}
	return out
}

// getValidationMessage returns a human-readable message for a failed rule
func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "app_status":
		return "must be one of applied, shortlisted, accepted, rejected"
	case "account_role":
		return "must be student or provider"
	default:
		return fe.Error()
	}
}

func validateAppStatus(fl validator.FieldLevel) bool {
	s := lifecycle.Status(fl.Field().String())
	return s.Valid() && s != lifecycle.StatusWithdrawn
}

func validateAccountRole(fl validator.FieldLevel) bool {
	role, err := lifecycle.ParseRole(fl.Field().String())
	if err != nil {
		return false
	}
	return role == lifecycle.RoleStudent || role == lifecycle.RoleProvider
}
