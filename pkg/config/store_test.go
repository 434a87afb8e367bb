package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileStore_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	expected := filepath.Join(home, ".funcbox", "config.yaml")
	if store.Path() != expected {
		t.Errorf("Expected default path %s, got %s", expected, store.Path())
	}
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	all, _ := store.GetAll()
	if len(all) != 0 {
		t.Errorf("Expected empty config, got %v", all)
	}
	if store.IsModified() {
		t.Error("New store should not be modified")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store, err := NewFileStore(path)
			if err != nil {
				t.Fatalf("NewFileStore failed: %v", err)
			}

			if err := store.SetSection("sandbox", map[string]interface{}{"timeout": "2s"}); err != nil {
				t.Fatalf("SetSection failed: %v", err)
			}
			if !store.IsModified() {
				t.Error("Store should be modified after SetSection")
			}
			if err := store.Save(); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if store.IsModified() {
				t.Error("Store should not be modified after Save")
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Error("Temp file should not remain after Save")
			}

			reloaded, err := NewFileStore(path)
			if err != nil {
				t.Fatalf("reload failed: %v", err)
			}
			section, _ := reloaded.GetSection("sandbox")
			if section["timeout"] != "2s" {
				t.Errorf("Expected timeout=2s, got %v", section["timeout"])
			}
		})
	}
}

func TestFileStore_YAMLOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	store, _ := NewFileStore(path)
	store.SetSection("storage", map[string]interface{}{"backend": "sqlite"})
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(raw), "backend: sqlite") {
		t.Errorf("Expected YAML output, got:\n%s", raw)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Error("Expected error for corrupt config")
	}
}

func TestFileStore_CopiesData(t *testing.T) {
	store, _ := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	data := map[string]interface{}{"k": "v"}
	store.SetSection("s", data)
	data["k"] = "changed"

	got, _ := store.GetSection("s")
	if got["k"] != "v" {
		t.Error("SetSection should store a copy")
	}
	got["k"] = "changed"
	again, _ := store.GetSection("s")
	if again["k"] != "v" {
		t.Error("GetSection should return a copy")
	}
}
