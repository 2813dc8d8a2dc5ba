package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

// Store persists agent state snapshots. Implementations need not be safe
// for concurrent use; the agent serializes access.
type Store interface {
	// Put replaces the stored snapshot.
	Put(data []byte) error
	// Get returns the stored snapshot, or false when none exists.
	Get() ([]byte, bool, error)
}

// FileStore persists the agent snapshot to a single file, created with
// owner-only permissions since it contains private key material.
type FileStore struct {
	Path string
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) Put(data []byte) error {
	if err := os.MkdirAll(path.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("writing agent state: %w", err)
	}
	return nil
}

func (s *FileStore) Get() ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading agent state: %w", err)
	}
	return data, true, nil
}

func (a *Agent) persist() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persistLocked()
}

// persistLocked writes a snapshot to the store. Callers must hold the
// mutex.
func (a *Agent) persistLocked() error {
	if a.store == nil {
		return nil
	}
	data, err := a.snapshotLocked()
	if err != nil {
		return fmt.Errorf("encoding agent state: %w", err)
	}
	if err := a.store.Put(data); err != nil {
		return err
	}
	log.Debugw("persisted agent state", "bytes", len(data))
	return nil
}

// load restores state from the store. It reports whether a snapshot was
// found.
func (a *Agent) load() (bool, error) {
	data, ok, err := a.store.Get()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := a.restore(data); err != nil {
		return false, err
	}
	log.Debugw("restored agent state", "spaces", len(a.spaces), "proofs", len(a.proofs))
	return true, nil
}
