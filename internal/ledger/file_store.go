package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON document per entity group under a state
// directory, written atomically via a temp file and rename.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(group string) string {
	return filepath.Join(s.dir, group+"_seen.json")
}

func (s *FileStore) Load(_ context.Context, group string) (Document, error) {
	data, err := os.ReadFile(s.path(group))
	if os.IsNotExist(err) {
		return Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ledger file: %w", err)
	}
	return doc, nil
}

func (s *FileStore) Save(_ context.Context, group string, doc Document) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := s.path(group) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger tmp file: %w", err)
	}
	if err := os.Rename(tmp, s.path(group)); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
