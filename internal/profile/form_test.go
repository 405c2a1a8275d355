package profile

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/apexathon/careerdash/internal/storage"
)

// --- Mock store ---

type mockStore struct {
	mu   sync.Mutex
	data map[string]string

	getCalls int
	setCalls int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) GetState(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	v, ok := m.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *mockStore) SetState(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	m.data[key] = value
	return nil
}

func (m *mockStore) DeleteState(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func validDraft() Draft {
	return Draft{
		Province:      "Ontario",
		CMA:           "Toronto",
		Age:           "34",
		Gender:        "Female",
		MaritalStatus: "Single",
		Education:     "Bachelor's degree",
		Immigration:   "Non-immigrant",
	}
}

func fill(t *testing.T, f *Form, d Draft) {
	t.Helper()
	for _, field := range Fields {
		v, _ := d.Get(field)
		if err := f.Set(field, v); err != nil {
			t.Fatalf("Set(%s): %v", field, err)
		}
	}
}

// --- Tests ---

func TestForm_SetPersistsEveryChange(t *testing.T) {
	store := newMockStore()
	f, err := NewForm(NewRepository(store))
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}

	f.Set(FieldProvince, "Quebec")
	f.Set(FieldAge, "4")
	f.Set(FieldAge, "42")

	if store.setCalls != 3 {
		t.Errorf("setCalls = %d, want 3", store.setCalls)
	}
	raw := store.data[storage.KeyDraft]
	if !strings.Contains(raw, `"province":"Quebec"`) || !strings.Contains(raw, `"age":"42"`) {
		t.Errorf("persisted draft = %s", raw)
	}
}

func TestForm_RestoresDraft(t *testing.T) {
	store := newMockStore()
	store.data[storage.KeyDraft] = `{"province":"Manitoba","cma":"Winnipeg"}`

	f, err := NewForm(NewRepository(store))
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}
	d := f.Draft()
	if d.Province != "Manitoba" || d.CMA != "Winnipeg" {
		t.Errorf("restored draft = %+v", d)
	}
}

func TestForm_MalformedDraftTreatedAsAbsent(t *testing.T) {
	store := newMockStore()
	store.data[storage.KeyDraft] = `{not json`

	f, err := NewForm(NewRepository(store))
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}
	if !f.Draft().IsEmpty() {
		t.Errorf("draft = %+v, want empty", f.Draft())
	}
}

func TestForm_UnknownField(t *testing.T) {
	store := newMockStore()
	f, _ := NewForm(NewRepository(store))

	err := f.SetAll(map[string]string{FieldProvince: "Ontario", "name": "Ada"})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
	if f.Draft().Province != "" {
		t.Error("SetAll applied a partial update")
	}
}

func TestForm_SubmitValid(t *testing.T) {
	store := newMockStore()
	f, _ := NewForm(NewRepository(store))
	fill(t, f, validDraft())

	var got Profile
	calls := 0
	p, err := f.Submit(func(p Profile) error {
		calls++
		got = p
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
	if got != p {
		t.Errorf("handler got %+v, Submit returned %+v", got, p)
	}
	if p.Age != 34 || p.Province != "Ontario" || p.Education != "Bachelor's degree" {
		t.Errorf("profile = %+v", p)
	}
	if store.has(storage.KeyDraft) {
		t.Error("persisted draft not cleared")
	}
	if !f.Draft().IsEmpty() {
		t.Errorf("draft not reset: %+v", f.Draft())
	}
}

func TestForm_SubmitIncompleteNeverCallsHandler(t *testing.T) {
	for _, missing := range Fields {
		t.Run(missing, func(t *testing.T) {
			store := newMockStore()
			f, _ := NewForm(NewRepository(store))
			d := validDraft()
			d.Set(missing, "")
			fill(t, f, d)

			_, err := f.Submit(func(Profile) error {
				t.Fatal("handler must not be called")
				return nil
			})
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("err = %v, want ErrIncomplete", err)
			}
			if !strings.Contains(err.Error(), missing) {
				t.Errorf("error %q does not name %s", err, missing)
			}
			if !store.has(storage.KeyDraft) {
				t.Error("draft cleared on rejected submit")
			}
		})
	}
}

func TestForm_SubmitHandlerErrorKeepsDraft(t *testing.T) {
	store := newMockStore()
	f, _ := NewForm(NewRepository(store))
	fill(t, f, validDraft())

	_, err := f.Submit(func(Profile) error { return errors.New("boom") })
	if err == nil {
		t.Fatal("expected error")
	}
	if f.Draft() != validDraft() {
		t.Errorf("draft changed: %+v", f.Draft())
	}
	if !store.has(storage.KeyDraft) {
		t.Error("persisted draft cleared after handler error")
	}
}

func TestDraftValidate_AgeBounds(t *testing.T) {
	cases := []struct {
		age string
		ok  bool
	}{
		{"15", true},
		{"120", true},
		{" 40 ", true},
		{"14", false},
		{"121", false},
		{"-3", false},
		{"thirty", false},
		{"33.5", false},
	}
	for _, tc := range cases {
		d := validDraft()
		d.Age = tc.age
		_, err := d.Validate()
		if (err == nil) != tc.ok {
			t.Errorf("age %q: err = %v, want ok=%v", tc.age, err, tc.ok)
		}
	}
}

func TestDraftValidate_RejectsUnknownOption(t *testing.T) {
	d := validDraft()
	d.Province = "Yukon"
	if _, err := d.Validate(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("err = %v, want ErrIncomplete", err)
	}
}

func TestRepository_CurrentRoundTrip(t *testing.T) {
	store := newMockStore()
	repo := NewRepository(store)

	if _, ok, err := repo.Current(); ok || err != nil {
		t.Fatalf("Current on empty store = ok %v, err %v", ok, err)
	}

	want, _ := validDraft().Validate()
	if err := repo.SetCurrent(want); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	got, ok, err := repo.Current()
	if err != nil || !ok {
		t.Fatalf("Current = ok %v, err %v", ok, err)
	}
	if got != want {
		t.Errorf("Current = %+v, want %+v", got, want)
	}

	if err := repo.ClearCurrent(); err != nil {
		t.Fatalf("ClearCurrent: %v", err)
	}
	if _, ok, _ := repo.Current(); ok {
		t.Error("Current still present after ClearCurrent")
	}
}

func TestRepository_MalformedProfileTreatedAsAbsent(t *testing.T) {
	store := newMockStore()
	store.data[storage.KeyProfile] = `[1,2`

	_, ok, err := NewRepository(store).Current()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("malformed profile reported as present")
	}
}

func TestRepository_InvalidProfileTreatedAsAbsent(t *testing.T) {
	cases := map[string]string{
		"unknown province": `{"province":"Atlantis"}`,
		"age out of range": `{"province":"Ontario","cma":"Toronto","age":7,"gender":"Female",` +
			`"maritalStatus":"Single","education":"Bachelor's degree","immigration":"Non-immigrant"}`,
		"empty object": `{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMockStore()
			store.data[storage.KeyProfile] = raw

			_, ok, err := NewRepository(store).Current()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok {
				t.Errorf("invalid profile %s reported as present", raw)
			}
		})
	}
}

func TestRepository_CacheTTL(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Now()}
	ttl := 60 * time.Second
	repo := NewRepositoryWithClock(store, clock, ttl)

	p, _ := validDraft().Validate()
	repo.SetCurrent(p)

	repo.Current()
	repo.Current()
	if store.getCalls != 1 {
		t.Errorf("getCalls = %d, want 1 (second read cached)", store.getCalls)
	}

	clock.Advance(ttl + time.Second)
	repo.Current()
	if store.getCalls != 2 {
		t.Errorf("getCalls = %d, want 2 (cache expired)", store.getCalls)
	}
}

func TestRepository_SetCurrentInvalidatesCache(t *testing.T) {
	store := newMockStore()
	repo := NewRepository(store)

	p, _ := validDraft().Validate()
	repo.SetCurrent(p)
	repo.Current()

	p.Province = "Alberta"
	repo.SetCurrent(p)
	got, _, _ := repo.Current()
	if got.Province != "Alberta" {
		t.Errorf("Province = %q, want Alberta", got.Province)
	}
}
