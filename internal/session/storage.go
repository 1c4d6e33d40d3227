package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"taskdeck/internal/config"
	"taskdeck/internal/service"
)

// ErrNoSession is returned by Storage.Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// Storage persists the session across runs.
type Storage interface {
	Load() (token string, identity service.Identity, err error)
	Save(token string, identity service.Identity) error
	Clear() error
}

// FileStorage keeps the token and the identity in two files.
type FileStorage struct {
	TokenPath string
	UserPath  string
}

// NewFileStorage returns a FileStorage inside the config directory.
func NewFileStorage(cfg *config.Config) *FileStorage {
	return &FileStorage{TokenPath: cfg.TokenPath(), UserPath: cfg.UserPath()}
}

// Load implements Storage.
func (s *FileStorage) Load() (string, service.Identity, error) {
	raw, err := os.ReadFile(s.TokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", service.Identity{}, ErrNoSession
	}
	if err != nil {
		return "", service.Identity{}, fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", service.Identity{}, ErrNoSession
	}

	data, err := os.ReadFile(s.UserPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", service.Identity{}, ErrNoSession
	}
	if err != nil {
		return "", service.Identity{}, fmt.Errorf("failed to read user: %w", err)
	}
	var id service.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return "", service.Identity{}, fmt.Errorf("failed to parse user: %w", err)
	}
	return token, id, nil
}

// Save implements Storage. Both files are readable by the owner only.
func (s *FileStorage) Save(token string, identity service.Identity) error {
	data, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	for _, p := range []string{s.TokenPath, s.UserPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(s.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := os.WriteFile(s.UserPath, data, 0600); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Clear implements Storage. Missing files are not an error.
func (s *FileStorage) Clear() error {
	for _, p := range []string{s.TokenPath, s.UserPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}
