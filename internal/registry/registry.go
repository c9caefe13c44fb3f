package registry

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/repo"
)

// Entry is a registered target plus the epoch of its registration. A url
// that is removed and registered again gets a new epoch, which lets callers
// recognise results that belong to the earlier registration.
type Entry struct {
	domain.Target
	Epoch uint64
}

// Registry owns the set of monitored targets. Every mutation is persisted
// through the store before it becomes visible; a failed write leaves the
// in-memory set unchanged.
type Registry struct {
	log   *zap.Logger
	store repo.TargetStore

	mu      sync.RWMutex
	entries []Entry
	epoch   uint64
}

func New(log *zap.Logger, store repo.TargetStore) *Registry {
	return &Registry{log: log, store: store}
}

// Load replaces the in-memory set with the store's contents. An unreadable
// store is not fatal: the registry starts empty and a warning is logged.
// Entries that are invalid or duplicate an earlier entry are skipped, and
// the cleaned set is written back so the store matches memory.
func (r *Registry) Load(ctx context.Context) int {
	targets, err := r.store.LoadAll(ctx)
	if err != nil {
		r.log.Warn("targets_load_failed", zap.Error(err))
		targets = nil
	}

	r.mu.Lock()
	r.entries = r.entries[:0]
	names := make(map[string]bool, len(targets))
	urls := make(map[string]bool, len(targets))
	skipped := 0
	for _, t := range targets {
		if err := Validate(t.Name, t.URL); err != nil {
			r.log.Warn("target_skipped", zap.String("name", t.Name), zap.String("url", t.URL), zap.Error(err))
			skipped++
			continue
		}
		if names[t.Name] || urls[t.URL] {
			r.log.Warn("target_skipped", zap.String("name", t.Name), zap.String("url", t.URL),
				zap.String("reason", "duplicate"))
			skipped++
			continue
		}
		names[t.Name], urls[t.URL] = true, true
		r.epoch++
		r.entries = append(r.entries, Entry{Target: t, Epoch: r.epoch})
	}
	n := len(r.entries)
	r.mu.Unlock()

	if skipped > 0 {
		if err := r.Save(ctx); err != nil {
			r.log.Warn("targets_cleanup_failed", zap.Int("skipped", skipped), zap.Error(err))
		}
	}
	return n
}

// Register validates and appends a target, then persists the new set.
func (r *Registry) Register(ctx context.Context, name, rawURL string) (Entry, error) {
	if err := Validate(name, rawURL); err != nil {
		return Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.URL == rawURL {
			return Entry{}, domain.ErrDuplicateURL
		}
	}
	for _, e := range r.entries {
		if e.Name == name {
			return Entry{}, domain.ErrDuplicateName
		}
	}

	r.epoch++
	e := Entry{Target: domain.Target{Name: name, URL: rawURL}, Epoch: r.epoch}
	next := append(append(make([]Entry, 0, len(r.entries)+1), r.entries...), e)
	if err := r.store.SaveAll(ctx, targetsOf(next)); err != nil {
		return Entry{}, &domain.PersistenceError{Op: "register", Err: err}
	}
	r.entries = next
	return e, nil
}

// Remove deletes the target monitored at rawURL. Removing an unknown url
// reports false and no error.
func (r *Registry) Remove(ctx context.Context, rawURL string) (Entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, e := range r.entries {
		if e.URL == rawURL {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Entry{}, false, nil
	}

	removed := r.entries[idx]
	next := make([]Entry, 0, len(r.entries)-1)
	next = append(next, r.entries[:idx]...)
	next = append(next, r.entries[idx+1:]...)
	if err := r.store.SaveAll(ctx, targetsOf(next)); err != nil {
		return Entry{}, false, &domain.PersistenceError{Op: "remove", Err: err}
	}
	r.entries = next
	return removed, true, nil
}

// Save writes the current in-memory set to the store.
func (r *Registry) Save(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.store.SaveAll(ctx, targetsOf(r.entries)); err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func (r *Registry) Get(rawURL string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.URL == rawURL {
			return e, true
		}
	}
	return Entry{}, false
}

func (r *Registry) Has(rawURL string) bool {
	_, ok := r.Get(rawURL)
	return ok
}

func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a snapshot in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Registry) List() []domain.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return targetsOf(r.entries)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func targetsOf(entries []Entry) []domain.Target {
	out := make([]domain.Target, len(entries))
	for i, e := range entries {
		out[i] = e.Target
	}
	return out
}

// IsPersistence reports whether err came from the backing store.
func IsPersistence(err error) bool {
	var pe *domain.PersistenceError
	return errors.As(err, &pe)
}
