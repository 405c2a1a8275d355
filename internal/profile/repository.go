package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/apexathon/careerdash/internal/storage"
)

// StateStore defines the storage operations the Repository needs.
// Implemented by storage.Store.
type StateStore interface {
	GetState(key string) (string, error)
	SetState(key, value string) error
	DeleteState(key string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Repository persists the form draft and the current submitted profile under
// two independent keys. Malformed stored content is treated as absent.
type Repository struct {
	store StateStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewRepository creates a Repository with a 60-second cache TTL for the
// current profile.
func NewRepository(store StateStore) *Repository {
	return &Repository{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewRepositoryWithClock creates a Repository with a custom clock (for testing).
func NewRepositoryWithClock(store StateStore, clock Clock, ttl time.Duration) *Repository {
	return &Repository{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// LoadDraft returns the persisted draft, or an empty draft when none is
// stored or the stored value cannot be decoded.
func (r *Repository) LoadDraft() (Draft, error) {
	var d Draft
	ok, err := r.load(storage.KeyDraft, &d)
	if err != nil {
		return Draft{}, err
	}
	if !ok {
		return Draft{}, nil
	}
	return d, nil
}

// SaveDraft persists the full draft.
func (r *Repository) SaveDraft(d Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshalling draft: %w", err)
	}
	if err := r.store.SetState(storage.KeyDraft, string(b)); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// ClearDraft removes the persisted draft.
func (r *Repository) ClearDraft() error {
	if err := r.store.DeleteState(storage.KeyDraft); err != nil {
		return fmt.Errorf("clearing draft: %w", err)
	}
	return nil
}

// Current returns the last submitted profile. ok is false when no profile
// has been submitted or the stored value is malformed or fails validation.
func (r *Repository) Current() (p Profile, ok bool, err error) {
	r.mu.RLock()
	if r.cached != nil && r.clock.Now().Before(r.cachedAt.Add(r.ttl)) {
		p := *r.cached
		r.mu.RUnlock()
		return p, true, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && r.clock.Now().Before(r.cachedAt.Add(r.ttl)) {
		return *r.cached, true, nil
	}

	found, err := r.load(storage.KeyProfile, &p)
	if err != nil || !found {
		return Profile{}, false, err
	}
	if err := p.Validate(); err != nil {
		slog.Warn("ignoring invalid stored profile", "error", err)
		return Profile{}, false, nil
	}
	r.cached = &p
	r.cachedAt = r.clock.Now()
	return p, true, nil
}

// SetCurrent persists p as the current profile, superseding any previous one.
func (r *Repository) SetCurrent(p Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshalling profile: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SetState(storage.KeyProfile, string(b)); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	r.cached = nil
	return nil
}

// ClearCurrent removes the current profile.
func (r *Repository) ClearCurrent() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.DeleteState(storage.KeyProfile); err != nil {
		return fmt.Errorf("clearing profile: %w", err)
	}
	r.cached = nil
	return nil
}

// SubmittedAt reports when the current profile was stored. It returns false
// when no profile is stored or the store does not track write times.
func (r *Repository) SubmittedAt() (time.Time, bool) {
	ts, ok := r.store.(interface {
		StateUpdatedAt(key string) (time.Time, error)
	})
	if !ok {
		return time.Time{}, false
	}
	t, err := ts.StateUpdatedAt(storage.KeyProfile)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("reading profile timestamp", "error", err)
		}
		return time.Time{}, false
	}
	return t, true
}

// load decodes the value under key into target. It reports false when the
// key is absent or holds malformed JSON.
func (r *Repository) load(key string, target any) (bool, error) {
	raw, err := r.store.GetState(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		slog.Warn("malformed persisted state, treating as absent", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}
