package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the credential in a user-only file, for the CLI.
type FileStore struct {
	Path string
}

// DefaultCredentialsPath returns ~/.config/spendtrack/credentials.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "spendtrack", "credentials"), nil
}

// Load returns the stored credential, "" if none.
func (f FileStore) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credentials %s: %w", f.Path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (f FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write credentials %s: %w", f.Path, err)
	}
	return nil
}

func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials %s: %w", f.Path, err)
	}
	return nil
}

// Open loads the credential into a Session that removes the file when the
// API rejects it.
func (f FileStore) Open() (*Session, error) {
	tok, err := f.Load()
	if err != nil {
		return nil, err
	}
	s := New(tok)
	s.Subscribe(func(Reason) {
		_ = f.Clear()
	})
	return s, nil
}
