// Package file persists the target list to a single JSON or YAML file.
//
// Writes go to a temp file in the same directory, are synced, and are then
// renamed over the destination, so readers never observe a partial file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadAll returns an empty list when the file does not exist yet.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Target{}, nil
		}
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return []domain.Target{}, nil
	}

	var out []domain.Target
	if s.isYAML() {
		err = yaml.Unmarshal(b, &out)
	} else {
		err = json.Unmarshal(b, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", s.path, err)
	}
	if out == nil {
		out = []domain.Target{}
	}
	return out, nil
}

func (s *Store) SaveAll(ctx context.Context, targets []domain.Target) error {
	if targets == nil {
		targets = []domain.Target{}
	}
	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(targets)
	} else {
		data, err = json.MarshalIndent(targets, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode targets: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".targets-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}
