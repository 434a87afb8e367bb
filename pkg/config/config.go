package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Load builds a manager over the file at configPath with every funcbox
// section registered and loaded.
func Load(configPath string) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)
	for _, section := range []Section{
		NewSandboxSection(),
		NewValidationSection(),
		NewStorageSection(),
	} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	manager, err := Load(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetSandbox returns the sandbox section from global config.
// Returns nil if config is not initialized.
func GetSandbox() *SandboxSection {
	return globalSection[*SandboxSection](SectionIDSandbox)
}

// GetValidation returns the validation section from global config.
// Returns nil if config is not initialized.
func GetValidation() *ValidationSection {
	return globalSection[*ValidationSection](SectionIDValidation)
}

// GetStorage returns the storage section from global config.
// Returns nil if config is not initialized.
func GetStorage() *StorageSection {
	return globalSection[*StorageSection](SectionIDStorage)
}

func globalSection[T Section](id string) T {
	var zero T
	if !IsInitialized() {
		return zero
	}
	section, ok := Global().GetSection(id)
	if !ok {
		return zero
	}
	typed, ok := section.(T)
	if !ok {
		return zero
	}
	return typed
}
