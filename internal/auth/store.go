package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/arbitrage-pro/dashboard/pkg/types"
	json "github.com/goccy/go-json"
)

// StoredSession is what survives a process restart: the access token, the
// user it belongs to, and the backend cookies (refresh_token, csrf_token).
type StoredSession struct {
	AccessToken string            `json:"accessToken"`
	User        *types.User       `json:"user,omitempty"`
	Cookies     map[string]string `json:"cookies,omitempty"`
}

// TokenStore persists the session between runs.
type TokenStore interface {
	// Load returns (nil, nil) when nothing is stored.
	Load() (*StoredSession, error)
	Save(s *StoredSession) error
	Clear() error
}

// FileTokenStore keeps the session in a 0600 JSON file. It is safe for
// concurrent use.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore stores the session at dir/session.json.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{path: filepath.Join(dir, "session.json")}
}

// Load reads the stored session.
func (f *FileTokenStore) Load() (*StoredSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var stored StoredSession
	err = json.Unmarshal(data, &stored)
	if err != nil {
		return nil, fmt.Errorf("unmarshal session file: %w", err)
	}

	return &stored, nil
}

// Save writes the session via a temp file and rename so readers never see a
// partial file.
func (f *FileTokenStore) Save(s *StoredSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	err = os.MkdirAll(filepath.Dir(f.path), 0o700)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp := f.path + ".tmp"
	err = os.WriteFile(tmp, data, 0o600)
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	err = os.Rename(tmp, f.path)
	if err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}

	return nil
}

// Clear deletes the stored session. Missing files are not an error.
func (f *FileTokenStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the session in memory only. It is safe for
// concurrent use.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	stored *StoredSession
}

// Load returns the stored session.
func (m *MemoryTokenStore) Load() (*StoredSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stored, nil
}

// Save replaces the stored session.
func (m *MemoryTokenStore) Save(s *StoredSession) error {
	m.mu.Lock()
	m.stored = s
	m.mu.Unlock()
	return nil
}

// Clear drops the stored session.
func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	m.stored = nil
	m.mu.Unlock()
	return nil
}
