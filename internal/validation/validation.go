// Package validation checks user input before it reaches the services.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Username and password limits.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
	PasswordMinLength = 6
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// notblank rejects whitespace-only strings.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Struct validates s against its `validate` tags and returns the first
// violation as a readable message.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return errors.New(describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := label(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return field + " is invalid"
	}
}

func label(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// ValidateCredentials checks registration input. username is expected
// already trimmed.
func ValidateCredentials(username, password, confirm string) error {
	if username == "" || strings.TrimSpace(password) == "" {
		return errors.New("Username and password are required")
	}
	if n := utf8.RuneCountInString(username); n < UsernameMinLength || n > UsernameMaxLength {
		return fmt.Errorf("Username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)
	}
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return fmt.Errorf("Password must be at least %d characters", PasswordMinLength)
	}
	if password != confirm {
		return errors.New("Passwords do not match")
	}
	return nil
}

// ValidateBoard checks that board is one of allowed (case-sensitive).
func ValidateBoard(board string, allowed []string) error {
	for _, b := range allowed {
		if board == b {
			return nil
		}
	}
	return fmt.Errorf("Board must be one of: %s", strings.Join(allowed, ", "))
}
