package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CursorStore remembers the last block a named replay finished.
type CursorStore interface {
	LoadCursor(ctx context.Context, name string) (uint64, bool, error)
	SaveCursor(ctx context.Context, name string, block uint64) error
}

// Cursor is one entry of the cursor file.
type Cursor struct {
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// FileCursorStore keeps cursors for every replay name in one JSON file,
// replaced atomically on each save.
type FileCursorStore struct {
	path string
	mu   sync.Mutex
}

func NewFileCursorStore(path string) *FileCursorStore {
	return &FileCursorStore{path: path}
}

func (s *FileCursorStore) LoadCursor(_ context.Context, name string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursors, err := s.read()
	if err != nil {
		return 0, false, err
	}
	cur, ok := cursors[name]
	return cur.LastProcessedBlock, ok, nil
}

func (s *FileCursorStore) SaveCursor(_ context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("cursor name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cursors, err := s.read()
	if err != nil {
		return err
	}
	cursors[name] = Cursor{
		LastProcessedBlock: block,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cursor dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cursors, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cursors: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cursor tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename cursor: %w", err)
	}
	return nil
}

func (s *FileCursorStore) read() (map[string]Cursor, error) {
	cursors := make(map[string]Cursor)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cursors, nil
		}
		return nil, fmt.Errorf("read cursor: %w", err)
	}
	if err := json.Unmarshal(data, &cursors); err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}
	return cursors, nil
}
