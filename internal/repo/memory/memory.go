package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)

type Store struct {
	mu      sync.RWMutex
	targets []domain.Target
	saves   int

	// FailWith, when set, is returned by SaveAll without changing state.
	FailWith error
}

func New(seed ...domain.Target) *Store {
	return &Store{targets: append([]domain.Target(nil), seed...)}
}

func (m *Store) LoadAll(ctx context.Context) ([]domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Target(nil), m.targets...), nil
}

func (m *Store) SaveAll(ctx context.Context, targets []domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.targets = append([]domain.Target(nil), targets...)
	m.saves++
	return nil
}

// Saves reports how many successful SaveAll calls the store has seen.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *Store) SetFailure(err error) {
	m.mu.Lock()
	m.FailWith = err
	m.mu.Unlock()
}
