package config

import (
	"fmt"
	"testing"
)

// mockSection is a test implementation of the Section interface
type mockSection struct {
	id          string
	data        map[string]interface{}
	validateErr error
}

func (m *mockSection) ID() string                                { return m.id }
func (m *mockSection) Title() string                             { return m.id }
func (m *mockSection) Description() string                       { return "" }
func (m *mockSection) Data() map[string]interface{}              { return m.data }
func (m *mockSection) SetData(data map[string]interface{}) error { m.data = data; return nil }
func (m *mockSection) Validate() error                           { return m.validateErr }
func (m *mockSection) Reset()                                    { m.data = make(map[string]interface{}) }

// mockStore is an in-memory Store
type mockStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saves    int
}

func newMockStore() *mockStore {
	return &mockStore{sections: make(map[string]map[string]interface{})}
}

func (m *mockStore) Load() error { return m.loadErr }

func (m *mockStore) Save() error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	return nil
}

func (m *mockStore) GetSection(sectionID string) (map[string]interface{}, error) {
	return m.sections[sectionID], nil
}

func (m *mockStore) SetSection(sectionID string, data map[string]interface{}) error {
	m.sections[sectionID] = data
	return nil
}

func (m *mockStore) GetAll() (map[string]map[string]interface{}, error) {
	return m.sections, nil
}

func TestManager_RegisterSection(t *testing.T) {
	manager := NewManager(newMockStore())

	for _, id := range []string{"first", "second", "third"} {
		if err := manager.RegisterSection(&mockSection{id: id}); err != nil {
			t.Fatalf("RegisterSection(%s) failed: %v", id, err)
		}
	}

	if err := manager.RegisterSection(&mockSection{id: "second"}); err == nil {
		t.Error("Expected error for duplicate registration")
	}

	sections := manager.GetSections()
	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}
	if sections[0].ID() != "first" || sections[1].ID() != "second" || sections[2].ID() != "third" {
		t.Error("Sections not in registration order")
	}

	if _, ok := manager.GetSection("missing"); ok {
		t.Error("Expected missing section lookup to fail")
	}
}

func TestManager_LoadAll(t *testing.T) {
	t.Run("pushes stored data into sections", func(t *testing.T) {
		store := newMockStore()
		store.sections["test"] = map[string]interface{}{"key": "value"}
		manager := NewManager(store)
		section := &mockSection{id: "test"}
		other := &mockSection{id: "other", data: map[string]interface{}{"keep": true}}
		manager.RegisterSection(section)
		manager.RegisterSection(other)

		if err := manager.LoadAll(); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if section.data["key"] != "value" {
			t.Error("Section data not loaded correctly")
		}
		if other.data["keep"] != true {
			t.Error("Section without stored data should keep its values")
		}
	})

	t.Run("handles store load error", func(t *testing.T) {
		store := newMockStore()
		store.loadErr = fmt.Errorf("load error")
		manager := NewManager(store)

		if err := manager.LoadAll(); err == nil {
			t.Error("Expected error from store")
		}
	})

	t.Run("rejects invalid stored data", func(t *testing.T) {
		store := newMockStore()
		store.sections["test"] = map[string]interface{}{"key": "value"}
		manager := NewManager(store)
		manager.RegisterSection(&mockSection{id: "test", validateErr: fmt.Errorf("bad")})

		if err := manager.LoadAll(); err == nil {
			t.Error("Expected validation error")
		}
	})
}

func TestManager_SaveAll(t *testing.T) {
	t.Run("writes every section", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		manager.RegisterSection(&mockSection{id: "a", data: map[string]interface{}{"k": 1}})
		manager.RegisterSection(&mockSection{id: "b", data: map[string]interface{}{"k": 2}})

		if err := manager.SaveAll(); err != nil {
			t.Fatalf("SaveAll failed: %v", err)
		}
		if store.sections["a"]["k"] != 1 || store.sections["b"]["k"] != 2 {
			t.Errorf("Sections not saved correctly: %v", store.sections)
		}
		if store.saves != 1 {
			t.Errorf("Expected 1 save, got %d", store.saves)
		}
	})

	t.Run("validates before writing", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		manager.RegisterSection(&mockSection{id: "a", validateErr: fmt.Errorf("validation error")})

		if err := manager.SaveAll(); err == nil {
			t.Error("Expected validation error")
		}
		if store.saves != 0 {
			t.Error("Store should not be saved when validation fails")
		}
	})

	t.Run("handles store save error", func(t *testing.T) {
		store := newMockStore()
		store.saveErr = fmt.Errorf("save error")
		manager := NewManager(store)
		manager.RegisterSection(&mockSection{id: "a"})

		if err := manager.SaveAll(); err == nil {
			t.Error("Expected error from store")
		}
	})
}

func TestManager_ResetAll(t *testing.T) {
	manager := NewManager(newMockStore())
	section := &mockSection{id: "a", data: map[string]interface{}{"k": 1}}
	manager.RegisterSection(section)

	manager.ResetAll()

	if len(section.data) != 0 {
		t.Error("Section was not reset")
	}
}
