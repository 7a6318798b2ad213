package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"NewsRanker/internal/freshness"
	"NewsRanker/internal/ports"
)

// FileSeenStore keeps one JSON document per vertical under dir.
type FileSeenStore struct {
	dir string
}

var _ ports.SeenStore = (*FileSeenStore)(nil)

// NewFileSeenStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileSeenStore(dir string) *FileSeenStore {
	return &FileSeenStore{dir: dir}
}

// Path is the state file of a vertical.
func (s *FileSeenStore) Path(vertical string) string {
	return filepath.Join(s.dir, safeName(vertical)+"_seen.json")
}

// Load reads the state of vertical. A missing file is an empty state; an
// unreadable or corrupt one is an error.
func (s *FileSeenStore) Load(ctx context.Context, vertical string) (freshness.SeenState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.Path(vertical))
	if errors.Is(err, fs.ErrNotExist) {
		return freshness.SeenState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen state: %w", err)
	}

	state := freshness.SeenState{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode seen state %s: %w", s.Path(vertical), err)
	}
	return state, nil
}

// Save replaces the state of vertical. The document is written to a
// temporary file and renamed so readers never observe a partial write.
func (s *FileSeenStore) Save(ctx context.Context, vertical string, state freshness.SeenState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil {
		state = freshness.SeenState{}
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seen state: %w", err)
	}
	return writeAtomic(s.Path(vertical), payload)
}

func writeAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func safeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
}
