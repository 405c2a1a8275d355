package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apexathon/careerdash/internal/chat"
	"github.com/apexathon/careerdash/internal/metrics"
	"github.com/apexathon/careerdash/internal/overlay"
	"github.com/apexathon/careerdash/internal/profile"
	"github.com/apexathon/careerdash/internal/recommend"
	"github.com/apexathon/careerdash/internal/reveal"
)

// ErrNotFound is returned for an id that is not mounted.
var ErrNotFound = errors.New("dashboard not found")

// Fetcher produces recommendations. It never fails.
type Fetcher interface {
	Fetch(ctx context.Context, req recommend.PredictRequest) []recommend.Recommendation
}

// ProfileSource supplies the current submitted profile.
type ProfileSource interface {
	Current() (profile.Profile, bool, error)
}

// Config controls how dashboards are mounted.
type Config struct {
	// RevealInterval is the delay between two reveals.
	RevealInterval time.Duration
	// UseProfile encodes the live profile into the prediction request. When
	// false, or when no profile was submitted, the fixed stub is sent.
	UseProfile bool
}

// Manager owns every mounted dashboard.
type Manager struct {
	fetcher   Fetcher
	profiles  ProfileSource
	completer chat.Completer
	cfg       Config
	logger    *slog.Logger

	// revealOpts is appended when building each scheduler (for testing).
	revealOpts []reveal.Option

	mu     sync.RWMutex
	mounts map[string]*Dashboard
}

// NewManager creates a Manager.
func NewManager(fetcher Fetcher, profiles ProfileSource, completer chat.Completer, cfg Config) *Manager {
	return &Manager{
		fetcher:   fetcher,
		profiles:  profiles,
		completer: completer,
		cfg:       cfg,
		logger:    slog.Default(),
		mounts:    make(map[string]*Dashboard),
	}
}

// Mount activates a new dashboard. The recommendation fetch runs once in the
// background and its result is revealed at the configured cadence.
func (m *Manager) Mount() *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		chat:      chat.NewSession(m.completer, m.profiles),
		cancel:    cancel,
		fetched:   make(chan struct{}),
		fetching:  true,
		subs:      make(map[chan reveal.Event]struct{}),
	}
	opts := append([]reveal.Option{reveal.WithNotify(d.broadcast)}, m.revealOpts...)
	d.scheduler = reveal.New(m.cfg.RevealInterval, opts...)
	d.overlay = overlay.New(d)

	m.mu.Lock()
	m.mounts[d.ID] = d
	m.mu.Unlock()
	metrics.DashboardsMounted.Inc()

	req := m.predictRequest()
	go func() {
		recs := m.fetcher.Fetch(ctx, req)
		d.reveal(recs)
	}()

	m.logger.Info("dashboard mounted", "id", d.ID)
	return d
}

// Get returns a mounted dashboard.
func (m *Manager) Get(id string) (*Dashboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.mounts[id]
	if !ok {
		return nil, fmt.Errorf("dashboard %s: %w", id, ErrNotFound)
	}
	return d, nil
}

// Unmount tears a dashboard down: the in-flight fetch is cancelled, pending
// reveals are stopped and event subscribers are released.
func (m *Manager) Unmount(id string) error {
	m.mu.Lock()
	d, ok := m.mounts[id]
	if ok {
		delete(m.mounts, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("dashboard %s: %w", id, ErrNotFound)
	}

	d.teardown()
	metrics.DashboardsMounted.Dec()
	m.logger.Info("dashboard unmounted", "id", id)
	return nil
}

// List returns the ids of all mounted dashboards.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.mounts))
	for id := range m.mounts {
		ids = append(ids, id)
	}
	return ids
}

// Close unmounts every dashboard.
func (m *Manager) Close() {
	for _, id := range m.List() {
		m.Unmount(id)
	}
}

// Recommend runs one fetch outside of any mount and returns the full list
// without staggering.
func (m *Manager) Recommend(ctx context.Context) []recommend.Recommendation {
	return m.fetcher.Fetch(ctx, m.predictRequest())
}

// NewChat starts a chat session that is not tied to a mount.
func (m *Manager) NewChat() *chat.Session {
	return chat.NewSession(m.completer, m.profiles)
}

func (m *Manager) predictRequest() recommend.PredictRequest {
	if !m.cfg.UseProfile || m.profiles == nil {
		return recommend.StubRequest()
	}
	p, ok, err := m.profiles.Current()
	if err != nil {
		m.logger.Warn("loading profile for prediction, using stub request", "error", err)
		return recommend.StubRequest()
	}
	if !ok {
		return recommend.StubRequest()
	}
	return recommend.RequestFromProfile(p)
}
