// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ResultKinds are the place types a suggestion request may be restricted to.
var ResultKinds = []string{"address", "geocode", "establishment", "regions", "cities"}

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the domain rules registered:
//
//	resultkind   one of ResultKinds
//	notblank     non-empty after trimming whitespace
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("resultkind", validateResultKind)
	_ = v.RegisterValidation("notblank", validateNotBlank)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

func validateResultKind(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	for _, k := range ResultKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
