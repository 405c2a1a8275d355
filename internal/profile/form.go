package profile

import (
	"fmt"
	"sync"
)

// Form is the intake form controller. It owns the draft buffer, mirrors it
// to the Repository on every change and hands a validated Profile to the
// caller on submit.
type Form struct {
	repo *Repository

	mu    sync.Mutex
	draft Draft
}

// NewForm creates a Form restored from the persisted draft, if any.
func NewForm(repo *Repository) (*Form, error) {
	d, err := repo.LoadDraft()
	if err != nil {
		return nil, fmt.Errorf("restoring draft: %w", err)
	}
	return &Form{repo: repo, draft: d}, nil
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Set updates one field and persists the whole draft.
func (f *Form) Set(field, value string) error {
	return f.SetAll(map[string]string{field: value})
}

// SetAll updates several fields at once and persists the whole draft. No
// field is changed if any name is unknown.
func (f *Form) SetAll(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.draft
	for field, value := range values {
		if err := next.Set(field, value); err != nil {
			return err
		}
	}
	f.draft = next
	return f.repo.SaveDraft(next)
}

// Submit validates the draft and passes the resulting Profile to handler.
// When validation fails the handler is not called and the draft is kept.
// When the handler fails the draft is kept as well. On success the
// persisted draft is cleared and the in-memory draft reset to empty.
func (f *Form) Submit(handler func(Profile) error) (Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.draft.Validate()
	if err != nil {
		return Profile{}, err
	}

	if err := handler(p); err != nil {
		return Profile{}, fmt.Errorf("submitting profile: %w", err)
	}

	if err := f.repo.ClearDraft(); err != nil {
		return Profile{}, err
	}
	f.draft = Draft{}
	return p, nil
}

// Reset discards the draft without submitting it.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.repo.ClearDraft(); err != nil {
		return err
	}
	f.draft = Draft{}
	return nil
}
