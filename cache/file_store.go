package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AlhasanIQ/oriki/config"
)

const (
	fileLockWait   = 3 * time.Second
	fileLockMaxAge = 10 * time.Second
)

// FileStore keeps entries in one JSON file guarded by a lock file, so two
// oriki processes never interleave writes.
type FileStore struct {
	path string
	lock string
}

func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("invalid cache file path")
	}
	return &FileStore{path: path, lock: path + ".lock"}, nil
}

func (s *FileStore) Name() string { return config.CacheBackendFile }

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var out []byte
	var ok bool
	err := s.withLock(ctx, func() error {
		state, err := s.loadLocked()
		if err != nil {
			return err
		}
		var raw json.RawMessage
		raw, ok = state[key]
		out = []byte(raw)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, ok, nil
}

func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("file store: value for %q is not JSON", key)
	}
	return s.withLock(ctx, func() error {
		state, err := s.loadLocked()
		if err != nil {
			// A corrupt file is replaced rather than blocking every write.
			state = make(map[string]json.RawMessage)
		}
		state[key] = json.RawMessage(value)
		return s.saveLocked(state)
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.withLock(ctx, func() error {
		state, err := s.loadLocked()
		if err != nil {
			state = make(map[string]json.RawMessage)
		}
		if _, ok := state[key]; !ok && err == nil {
			return nil
		}
		delete(state, key)
		return s.saveLocked(state)
	})
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	deadline := time.Now().Add(fileLockWait)
	for {
		lockFile, err := os.OpenFile(s.lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = lockFile.WriteString(fmt.Sprintf("%d\n", os.Getpid()))
			_ = lockFile.Close()
			defer os.Remove(s.lock)
			return fn()
		}
		if !os.IsExist(err) {
			return err
		}
		stale, staleErr := s.isStaleLock()
		if staleErr == nil && stale {
			_ = os.Remove(s.lock)
			continue
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for cache lock %s", s.lock)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func (s *FileStore) isStaleLock() (bool, error) {
	st, err := os.Stat(s.lock)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	rawPID, _ := os.ReadFile(s.lock)
	pid, parseErr := strconv.Atoi(strings.TrimSpace(string(rawPID)))
	if parseErr == nil && pid > 0 && runtime.GOOS != "windows" {
		return !processExists(pid), nil
	}

	// Unreadable owner: fall back to lock age.
	return time.Since(st.ModTime()) > fileLockMaxAge, nil
}

func processExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EPERM:
			return true
		case syscall.ESRCH:
			return false
		}
	}
	return false
}

func (s *FileStore) loadLocked() (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, err
	}
	if len(b) == 0 {
		return make(map[string]json.RawMessage), nil
	}

	state := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}
	return state, nil
}

func (s *FileStore) saveLocked(state map[string]json.RawMessage) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
