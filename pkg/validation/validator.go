package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the global validator instance
	Validate *validator.Validate

	directions   = []string{"n", "e", "s", "w"}
	environments = []string{"trail", "prefer trails", "suburban", "urban", "scenic", "shaded", "none"}
)

func init() {
	Validate = validator.New()

	// Register custom validators
	_ = Validate.RegisterValidation("latitude", validateLatitude)
	_ = Validate.RegisterValidation("longitude", validateLongitude)
	_ = Validate.RegisterValidation("direction", validateDirection)
	_ = Validate.RegisterValidation("route_environment", validateRouteEnvironment)
}

// ValidationError collects per-field messages.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError converts validator errors into a ValidationError keyed
// by field name.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		ve.AddError(fe.Field(), fieldMessage(fe))
	}
	return ve
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Errors[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) AddError(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	e.Errors[field] = message
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := e.Errors[field]
	return msg, ok
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "latitude":
		return "latitude must be between -90 and 90"
	case "longitude":
		return "longitude must be between -180 and 180"
	case "direction":
		return "direction must be one of N, E, S, W"
	case "route_environment":
		return "environment must be one of trail, suburban, urban, scenic, shaded, none"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
}

// validateLatitude checks if latitude is within valid range (-90 to 90)
func validateLatitude(fl validator.FieldLevel) bool {
	latitude := fl.Field().Float()
	return latitude >= -90.0 && latitude <= 90.0
}

// validateLongitude checks if longitude is within valid range (-180 to 180)
func validateLongitude(fl validator.FieldLevel) bool {
	longitude := fl.Field().Float()
	return longitude >= -180.0 && longitude <= 180.0
}

// validateDirection accepts a single compass letter, any case.
func validateDirection(fl validator.FieldLevel) bool {
	return contains(directions, fl.Field().String())
}

func validateRouteEnvironment(fl validator.FieldLevel) bool {
	return contains(environments, fl.Field().String())
}

// contains checks if a string slice contains a specific string
func contains(slice []string, item string) bool {
	item = strings.ToLower(strings.TrimSpace(item))
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// ValidateCoordinates validates latitude and longitude
func ValidateCoordinates(latitude, longitude float64) error {
	if latitude < -90.0 || latitude > 90.0 {
		return fmt.Errorf("latitude must be between -90 and 90, got: %f", latitude)
	}
	if longitude < -180.0 || longitude > 180.0 {
		return fmt.Errorf("longitude must be between -180 and 180, got: %f", longitude)
	}
	return nil
}

// ValidateDistanceMiles rejects non-positive and absurd target distances.
func ValidateDistanceMiles(miles float64) error {
	if miles <= 0 {
		return fmt.Errorf("distance must be positive, got: %f", miles)
	}
	if miles > MaxDistanceMiles {
		return fmt.Errorf("distance exceeds maximum of %d miles: %f", MaxDistanceMiles, miles)
	}
	return nil
}

// MaxDistanceMiles caps a single requested route.
const MaxDistanceMiles = 100
