package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/funcbox/pkg/function/sandbox"
)

const (
	// SectionIDSandbox is the identifier for the sandbox section
	SectionIDSandbox = "sandbox"

	minTimeout      = 10 * time.Millisecond
	maxTimeout      = 5 * time.Minute
	minCallStack    = 64
	maxCallStackCap = 1 << 20
)

// SandboxSection holds execution limits.
type SandboxSection struct {
	Timeout      time.Duration
	MaxCallStack int
	mu           sync.RWMutex
}

// NewSandboxSection creates a sandbox section with default limits.
func NewSandboxSection() *SandboxSection {
	return &SandboxSection{
		Timeout:      sandbox.DefaultTimeout,
		MaxCallStack: sandbox.DefaultMaxCallStackSize,
	}
}

// ID returns the section identifier.
func (s *SandboxSection) ID() string {
	return SectionIDSandbox
}

// Title returns the section title.
func (s *SandboxSection) Title() string {
	return "Sandbox"
}

// Description returns the section description.
func (s *SandboxSection) Description() string {
	return "Execution limits applied to every custom function run."
}

// Data returns the current configuration data.
func (s *SandboxSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"timeout":        s.Timeout.String(),
		"max_call_stack": s.MaxCallStack,
	}
}

// SetData updates the configuration from the provided data.
func (s *SandboxSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "timeout":
			d, err := durationValue(key, value)
			if err != nil {
				return err
			}
			s.Timeout = d
		case "max_call_stack":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.MaxCallStack = n
		}
	}
	return nil
}

// Validate checks the limits are within sane bounds.
func (s *SandboxSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Timeout < minTimeout || s.Timeout > maxTimeout {
		return fmt.Errorf("timeout must be between %v and %v, got %v", minTimeout, maxTimeout, s.Timeout)
	}
	if s.MaxCallStack < minCallStack || s.MaxCallStack > maxCallStackCap {
		return fmt.Errorf("max_call_stack must be between %d and %d, got %d", minCallStack, maxCallStackCap, s.MaxCallStack)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *SandboxSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Timeout = sandbox.DefaultTimeout
	s.MaxCallStack = sandbox.DefaultMaxCallStackSize
}

// Limits returns the timeout and call stack size.
func (s *SandboxSection) Limits() (time.Duration, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Timeout, s.MaxCallStack
}
