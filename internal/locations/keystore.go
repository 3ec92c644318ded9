package locations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// KeyStore persists the locationName -> providerKey mapping as a JSON file.
type KeyStore struct {
	path string
}

// NewKeyStore constructs a key store for the given file path.
func NewKeyStore(path string) (*KeyStore, error) {
	if path == "" {
		return nil, errors.New("keystore: empty path")
	}
	return &KeyStore{path: path}, nil
}

// Load reads the key mapping. An absent file yields an empty mapping, not an
// error.
func (s *KeyStore) Load() (map[string]string, error) {
	if s == nil {
		return nil, errors.New("keystore: nil store")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("keystore: read %s: %w", s.path, err)
	}
	keys := map[string]string{}
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("keystore: parse %s: %w", s.path, err)
	}
	return keys, nil
}

// Store writes the key mapping, creating parent directories as needed.
func (s *KeyStore) Store(keys map[string]string) error {
	if s == nil {
		return errors.New("keystore: nil store")
	}
	if keys == nil {
		keys = map[string]string{}
	}
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("keystore: mkdir %s: %w", dir, err)
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}
