package reveal

import (
	"sync"
	"time"

	"github.com/apexathon/careerdash/internal/metrics"
	"github.com/apexathon/careerdash/internal/recommend"
)

// DefaultInterval is the reveal cadence.
const DefaultInterval = 800 * time.Millisecond

// Timer is a cancellable scheduled task.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// EventType distinguishes scheduler notifications.
type EventType string

const (
	EventReveal EventType = "reveal"
	EventDone   EventType = "done"
)

// Event is emitted after each reveal and once loading finishes.
type Event struct {
	Type    EventType                 `json:"type"`
	Item    *recommend.Recommendation `json:"item,omitempty"`
	Visible int                       `json:"visible"`
	Loading bool                      `json:"loading"`
}

// Snapshot is a copy of the scheduler's visible state.
type Snapshot struct {
	Visible []recommend.Recommendation `json:"visible"`
	Loading bool                       `json:"loading"`
}

// Scheduler reveals recommendations into a visible collection one at a
// time. Item k is revealed k intervals after Start. Identifiers in the
// visible collection are unique no matter in which order timers fire.
type Scheduler struct {
	interval  time.Duration
	afterFunc AfterFunc
	notify    func(Event)

	mu      sync.Mutex
	visible []recommend.Recommendation
	loading bool
	timers  []Timer
	pending int
	gen     uint64
	done    chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAfterFunc replaces time.AfterFunc (for testing).
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = fn }
}

// WithNotify registers a callback invoked outside the scheduler's lock for
// every Event.
func WithNotify(fn func(Event)) Option {
	return func(s *Scheduler) { s.notify = fn }
}

// New creates a Scheduler. A non-positive interval selects DefaultInterval.
func New(interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		interval:  interval,
		afterFunc: realAfterFunc,
		done:      closedChan(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start clears the visible collection, sets loading and schedules one
// reveal per item. A schedule already in progress is cancelled first. With
// no items loading ends immediately.
func (s *Scheduler) Start(items []recommend.Recommendation) {
	s.mu.Lock()
	s.cancelLocked()
	s.visible = nil
	s.done = make(chan struct{})

	if len(items) == 0 {
		s.loading = false
		close(s.done)
		s.mu.Unlock()
		s.emit(Event{Type: EventDone})
		return
	}

	s.loading = true
	s.pending = len(items)
	gen := s.gen
	for k, item := range items {
		item := item
		t := s.afterFunc(time.Duration(k)*s.interval, func() { s.fire(gen, item) })
		s.timers = append(s.timers, t)
	}
	s.mu.Unlock()
}

// Stop cancels every pending reveal. No reveal happens after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Snapshot returns a copy of the visible collection and the loading flag.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	vis := make([]recommend.Recommendation, len(s.visible))
	copy(vis, s.visible)
	return Snapshot{Visible: vis, Loading: s.loading}
}

// Find returns the visible recommendation with the given id.
func (s *Scheduler) Find(id int) (recommend.Recommendation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.visible {
		if r.ID == id {
			return r, true
		}
	}
	return recommend.Recommendation{}, false
}

// Done returns a channel closed when the current schedule finishes or is
// stopped.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Scheduler) fire(gen uint64, item recommend.Recommendation) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}

	s.pending--
	revealed := false
	if !s.containsLocked(item.ID) {
		s.visible = append(s.visible, item)
		revealed = true
	}
	finished := s.pending == 0
	if finished {
		s.loading = false
		s.timers = nil
		close(s.done)
	}
	n, loading := len(s.visible), s.loading
	s.mu.Unlock()

	if revealed {
		metrics.RecommendationsRevealed.Inc()
		s.emit(Event{Type: EventReveal, Item: &item, Visible: n, Loading: loading})
	}
	if finished {
		s.emit(Event{Type: EventDone, Visible: n})
	}
}

func (s *Scheduler) containsLocked(id int) bool {
	for _, r := range s.visible {
		if r.ID == id {
			return true
		}
	}
	return false
}

// cancelLocked stops outstanding timers and invalidates callbacks that
// already started running.
func (s *Scheduler) cancelLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.gen++
	if s.pending > 0 {
		s.pending = 0
		close(s.done)
	}
	s.loading = false
}

func (s *Scheduler) emit(ev Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
