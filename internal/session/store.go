package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
)

// ErrNoTokens is returned by a Store that holds nothing.
var ErrNoTokens = errors.New("no stored tokens")

// Tokens is the access/refresh pair issued by the backend.
type Tokens struct {
	Access  string `json:"token"`
	Refresh string `json:"refreshToken"`
}

// Store persists the token pair between runs.
type Store interface {
	Load() (Tokens, error)
	Save(t Tokens) error
	Clear() error
}

// FileStore keeps tokens in a JSON file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is the per-user session file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "user config dir")
	}
	return filepath.Join(dir, "salesledger", "session.json"), nil
}

func (s *FileStore) Load() (Tokens, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Tokens{}, ErrNoTokens
	}
	if err != nil {
		return Tokens{}, errors.Wrap(err, "read session file")
	}

	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return Tokens{}, errors.Wrap(err, "decode session file")
	}
	if t.Access == "" {
		return Tokens{}, ErrNoTokens
	}
	return t, nil
}

func (s *FileStore) Save(t Tokens) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "write session file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace session file")
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove session file")
	}
	return nil
}

// MemoryStore keeps tokens for the lifetime of the process.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func (s *MemoryStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens.Access == "" {
		return Tokens{}, ErrNoTokens
	}
	return s.tokens, nil
}

func (s *MemoryStore) Save(t Tokens) error {
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.mu.Unlock()
	return nil
}
