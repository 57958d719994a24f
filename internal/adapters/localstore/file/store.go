// Package file is a KeyValueStore that keeps one file per key in a data
// directory, so several processes on one machine can share the cache.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/fsnotify/fsnotify"
)

const tempPrefix = ".tmp-"

// Store writes every key to <dir>/<key> with an atomic write-rename.
type Store struct {
	dir string

	// Hash of the content this process last wrote or read per key, so the
	// watcher only reports writes made elsewhere.
	hashMu sync.Mutex
	hashes map[string]string
}

// NewStore creates the data directory when needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Store{dir: dir, hashes: make(map[string]string)}, nil
}

var (
	_ portsrepo.KeyValueStore  = (*Store)(nil)
	_ portsrepo.ChangeNotifier = (*Store)(nil)
)

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get reads a key. A missing file is found=false.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	s.remember(key, data)
	return string(data), true, nil
}

// Set replaces a key's file atomically.
func (s *Store) Set(_ context.Context, key string, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, tempPrefix+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	// Remember before the rename so our own event is already known.
	s.remember(key, []byte(value))
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// Watch reports keys whose file changed to content this process did not
// write. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(key string)) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	logger.Info("Watching local data directory", slog.String("dir", s.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			key := filepath.Base(event.Name)
			if strings.HasPrefix(key, ".") {
				continue
			}
			if s.changedElsewhere(key) {
				logger.Debug("Local key changed by another process", slog.String("key", key))
				onChange(key)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Local data watcher error", slog.String("error", err.Error()))
		}
	}
}

// changedElsewhere reads the key's file and reports whether its content
// differs from what this process last saw, recording the new hash.
func (s *Store) changedElsewhere(key string) bool {
	p, err := s.path(key)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return false
	}
	sum := hash(data)

	s.hashMu.Lock()
	defer s.hashMu.Unlock()
	if s.hashes[key] == sum {
		return false
	}
	s.hashes[key] = sum
	return true
}

func (s *Store) remember(key string, data []byte) {
	s.hashMu.Lock()
	defer s.hashMu.Unlock()
	s.hashes[key] = hash(data)
}

func hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
