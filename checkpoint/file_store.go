package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileSuffix = ".checkpoint.json"

// FileStore keeps one JSON snapshot per workflow id at
// <dir>/<workflow_id>.checkpoint.json. Writes go through a temp file and
// rename so a crash mid-write never leaves a torn snapshot behind.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// DefaultDir returns the per-user checkpoint directory,
// <home>/.stepflow/workflows/checkpoints, falling back to the system temp
// directory when no home is resolvable.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".stepflow", "workflows", "checkpoints")
}

// NewFileStore creates a file store rooted at dir, creating it as needed.
// An empty dir selects DefaultDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory snapshots are written to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(workflowID string) string {
	return filepath.Join(s.dir, workflowID+fileSuffix)
}

// Put writes the snapshot atomically, overwriting any prior file.
func (s *FileStore) Put(ctx context.Context, workflowID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(workflowID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

// Get reads the snapshot, or ErrNotFound.
func (s *FileStore) Get(ctx context.Context, workflowID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(workflowID))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Exists reports whether a snapshot file is present.
func (s *FileStore) Exists(ctx context.Context, workflowID string) (bool, error) {
	_, err := os.Stat(s.path(workflowID))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the snapshot file. Idempotent.
func (s *FileStore) Delete(ctx context.Context, workflowID string) error {
	err := os.Remove(s.path(workflowID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns the workflow ids with a snapshot file, sorted.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}
