package handler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

// Global validator instance
var validate *Validator

var recipeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// InitValidator initializes the global validator
func InitValidator() {
	v := validator.New()

	_ = v.RegisterValidation("recipe_id", validateRecipeID)
	_ = v.RegisterValidation("world", validateWorld)

	validate = &Validator{validate: v}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateVar validates a single value against a tag
func (v *Validator) ValidateVar(value interface{}, tag string) error {
	return v.validate.Var(value, tag)
}

// FormatValidationError formats validation errors into a user-friendly map
// This prevents leaking internal struct names and provides cleaner error messages
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "recipe_id":
			errs[field] = "May only contain letters, digits, '-' and '_'"
		case "world":
			errs[field] = "Invalid world name"
		case "uuid":
			errs[field] = "Must be a UUID"
		case "oneof":
			errs[field] = fmt.Sprintf("Must be one of: %s", e.Param())
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

// validateRecipeID accepts ids the builder will normalize. Empty values pass
// so that 'required' decides.
func validateRecipeID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" {
		return true
	}
	return recipeIDPattern.MatchString(id)
}

// validateWorld rejects world names with path separators or control characters
func validateWorld(fl validator.FieldLevel) bool {
	world := fl.Field().String()
	if world == "" {
		return true
	}
	if strings.TrimSpace(world) == "" || strings.ContainsAny(world, `/\`) {
		return false
	}
	for _, r := range world {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
