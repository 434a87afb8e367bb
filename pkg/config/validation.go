package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/funcbox/pkg/function/validate"
)

// SectionIDValidation is the identifier for the validation section
const SectionIDValidation = "validation"

// ValidationSection holds static validation thresholds.
type ValidationSection struct {
	limits validate.Limits
	mu     sync.RWMutex
}

// NewValidationSection creates a validation section with default limits.
func NewValidationSection() *ValidationSection {
	return &ValidationSection{limits: validate.DefaultLimits()}
}

// ID returns the section identifier.
func (s *ValidationSection) ID() string {
	return SectionIDValidation
}

// Title returns the section title.
func (s *ValidationSection) Title() string {
	return "Validation"
}

// Description returns the section description.
func (s *ValidationSection) Description() string {
	return "Name length bounds and the soft parameter and line limits checked before a function is stored."
}

// Data returns the current configuration data.
func (s *ValidationSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"min_name_length": s.limits.MinNameLength,
		"max_name_length": s.limits.MaxNameLength,
		"max_parameters":  s.limits.MaxParameters,
		"max_lines":       s.limits.MaxLines,
	}
}

// SetData updates the configuration from the provided data.
func (s *ValidationSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var target *int
		switch key {
		case "min_name_length":
			target = &s.limits.MinNameLength
		case "max_name_length":
			target = &s.limits.MaxNameLength
		case "max_parameters":
			target = &s.limits.MaxParameters
		case "max_lines":
			target = &s.limits.MaxLines
		default:
			continue
		}
		n, err := intValue(key, value)
		if err != nil {
			return err
		}
		*target = n
	}
	return nil
}

// Validate validates the current configuration.
func (s *ValidationSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.limits
	if l.MinNameLength < 1 {
		return fmt.Errorf("min_name_length must be at least 1, got %d", l.MinNameLength)
	}
	if l.MaxNameLength < l.MinNameLength {
		return fmt.Errorf("max_name_length (%d) must not be less than min_name_length (%d)", l.MaxNameLength, l.MinNameLength)
	}
	if l.MaxParameters < 1 {
		return fmt.Errorf("max_parameters must be at least 1, got %d", l.MaxParameters)
	}
	if l.MaxLines < 1 {
		return fmt.Errorf("max_lines must be at least 1, got %d", l.MaxLines)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ValidationSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = validate.DefaultLimits()
}

// Limits returns the configured thresholds.
func (s *ValidationSection) Limits() validate.Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limits
}
