package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers meridian-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// duration: validates Go duration strings like "30s", "10m"
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration validates that a field parses as a positive Go duration.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error with actionable messages if validation fails.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return c.validateRegistryBackend()
}

// validateRegistryBackend ensures the selected registry mode has the fields
// it needs.
func (c *Config) validateRegistryBackend() error {
	switch c.Registry.Mode {
	case RegistryModeStatic:
		if c.Registry.CatalogPath == "" {
			return errors.New("registry: catalog_path is required in static mode")
		}
	case RegistryModeHTTP:
		if c.Registry.BaseURL == "" {
			return errors.New("registry: base_url is required in http mode")
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single
// validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration like \"30s\" or \"10m\"", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}

// Duration parses a validated duration field, falling back to def when the
// field is empty or unparsable. Call only after Validate.
func Duration(field string, def time.Duration) time.Duration {
	if field == "" {
		return def
	}
	d, err := time.ParseDuration(field)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
