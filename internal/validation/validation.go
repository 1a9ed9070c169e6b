// Package validation wraps go-playground/validator and reports failures as domain VALIDATION errors.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/cineza/cineza-server/internal/errors"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// Validator validates request structs.
type Validator struct {
	v *validator.Validate
}

// New returns a validator that names fields by their json tag and knows the
// "username" and "rating" tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
		return ValidRating(fl.Field().Float())
	})

	return &Validator{v: v}
}

// ValidRating reports whether r lies in [0, 5] on a 0.1 grid.
func ValidRating(r float64) bool {
	if math.IsNaN(r) || r < 0 || r > 5 {
		return false
	}
	tenths := r * 10
	return math.Abs(tenths-math.Round(tenths)) < 1e-6
}

// Validate checks s and returns a *errors.Error with per-field details.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "validation failed")
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "username":
		return "must be 3-30 lowercase letters, digits or underscores"
	case "rating":
		return "must be between 0 and 5 in steps of 0.1"
	default:
		return "is invalid"
	}
}
