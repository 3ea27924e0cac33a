package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

const lockFileSuffix = ".lock"

// DBLock serializes writers of a palmares database across processes with a
// lock file next to it. Inside one process it is shared: the file stays
// locked as long as at least one holder has not called Unlock, so concurrent
// updates of a server do not queue behind each other.
type DBLock struct {
	file *flock.Flock
	path string

	mu      sync.Mutex
	holders int
}

// NewDBLock returns the lock of the database at dbPath.
func NewDBLock(dbPath string) (*DBLock, error) {
	abs, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve database path: %w", err)
	}
	path := abs + lockFileSuffix
	return &DBLock{file: flock.New(path), path: path}, nil
}

// Lock takes the database for writing. The first holder waits for other
// processes to release the file.
func (l *DBLock) Lock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders == 0 {
		locked, err := l.file.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", l.path, err)
		}
		if !locked {
			Log.Warnf("Another palmares process is writing to the database, waiting for it to finish...")
			if err := l.file.Lock(); err != nil {
				return fmt.Errorf("failed to lock %s after waiting: %w", l.path, err)
			}
		}
	}
	l.holders++
	return nil
}

// Unlock releases one hold. The file is unlocked with the last one.
func (l *DBLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders == 0 {
		return nil
	}
	l.holders--
	if l.holders > 0 {
		return nil
	}
	if err := l.file.Unlock(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return nil
}

// GetAbsDBPath resolves the database path, defaulting to
// ~/.config/palmares/palmares.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "palmares", "palmares.sqlite"), nil
	}
	return filepath.Abs(dbPath)
}
