package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// minAutosaveInterval guards against sub-second autosave loops.
const minAutosaveInterval = time.Second

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The snapshot name becomes a file name or object key
	if err := snapshot.ValidateName(cfg.Snapshot.Name); err != nil {
		return fmt.Errorf("snapshot.name: %w", err)
	}

	// An enabled collector needs a positive interval
	if cfg.GC.Enabled && cfg.GC.Interval <= 0 {
		return fmt.Errorf("gc: enabled but interval is not positive")
	}

	// Autosave without a usable store type is caught by tag validation;
	// a sub-second interval is almost certainly a unit mistake
	if cfg.Snapshot.AutosaveInterval > 0 && cfg.Snapshot.AutosaveInterval < minAutosaveInterval {
		return fmt.Errorf("snapshot: autosave_interval %s is below the minimum %s",
			cfg.Snapshot.AutosaveInterval, minAutosaveInterval)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
