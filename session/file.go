package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kbukum/walletkit/encryption"
	apperrors "github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/wallet"
)

// FileStore keeps the session in a single file. Writes go to a temp file
// in the same directory and are renamed over the target.
type FileStore struct {
	path   string
	sealer encryption.Sealer
	log    *logger.Logger
}

var _ Store = (*FileStore)(nil)

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithSealer encrypts the file at rest.
func WithSealer(s encryption.Sealer) FileOption {
	return func(f *FileStore) { f.sealer = s }
}

// WithFileLogger overrides the store logger.
func WithFileLogger(l *logger.Logger) FileOption {
	return func(f *FileStore) { f.log = l }
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{path: path, log: logger.Get("session")}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(_ context.Context) (wallet.PersistedSession, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return Empty(), apperrors.PersistenceFailure("load", err)
	}

	if f.sealer != nil {
		if data, err = f.sealer.Open(data); err != nil {
			f.log.Warn("discarding unreadable session file", logger.Fields("path", f.path, logger.FieldError, err.Error()))
			return Empty(), nil
		}
	}
	p, err := Decode(data)
	if err != nil {
		f.log.Warn("discarding corrupt session file", logger.Fields("path", f.path, logger.FieldError, err.Error()))
		return Empty(), nil
	}
	return p, nil
}

func (f *FileStore) Save(_ context.Context, state wallet.SessionState) error {
	data, err := Encode(state.Persisted())
	if err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	if f.sealer != nil {
		if data, err = f.sealer.Seal(data); err != nil {
			return apperrors.PersistenceFailure("save", err)
		}
	}
	if err := writeAtomic(f.path, data); err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.PersistenceFailure("clear", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
