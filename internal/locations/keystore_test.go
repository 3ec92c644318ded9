package locations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeyStoreAbsentFileYieldsEmptyMap(t *testing.T) {
	store, err := NewKeyStore(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("NewKeyStore: %v", err)
	}
	keys, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if keys == nil || len(keys) != 0 {
		t.Fatalf("expected empty map, got %v", keys)
	}
}

func TestKeyStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keys.json")
	store, err := NewKeyStore(path)
	if err != nil {
		t.Fatalf("NewKeyStore: %v", err)
	}
	in := map[string]string{"Dwarka": "189928", "Najafgarh": "2627484"}
	if err := store.Store(in); err != nil {
		t.Fatalf("Store: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d keys, got %d", len(in), len(out))
	}
	for name, key := range in {
		if out[name] != key {
			t.Fatalf("key mismatch for %s: got %q want %q", name, out[name], key)
		}
	}
}

func TestKeyStoreMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewKeyStore(path)
	if err != nil {
		t.Fatalf("NewKeyStore: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewKeyStoreEmptyPath(t *testing.T) {
	if _, err := NewKeyStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
