package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// Validator wraps go-playground validator with the portal's custom rules
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the "phone" rule registered
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("phone", validatePhone)
	return &Validator{validate: v}
}

// Validate validates a struct and flattens field errors into one message
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// IsValidPhone reports whether s looks like a dialable phone number
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(NormalizePhone(s))
}

// NormalizePhone drops spaces and dashes users type between digit groups
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}
