package reveal

import (
	"sync"
	"testing"
	"time"

	"github.com/apexathon/careerdash/internal/recommend"
)

// --- Fake timers ---

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs timer i unless it was stopped.
func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	if !t.stopped {
		t.fn()
	}
}

// fireRaw runs timer i even if it was stopped, simulating a callback that
// was already in flight when Stop was called.
func (c *fakeClock) fireRaw(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	t.fn()
}

func newTestScheduler(events *[]Event) (*Scheduler, *fakeClock) {
	clock := &fakeClock{}
	var mu sync.Mutex
	s := New(100*time.Millisecond,
		WithAfterFunc(clock.AfterFunc),
		WithNotify(func(ev Event) {
			mu.Lock()
			defer mu.Unlock()
			if events != nil {
				*events = append(*events, ev)
			}
		}),
	)
	return s, clock
}

func items(n int) []recommend.Recommendation {
	titles := make([]string, n)
	for i := range titles {
		titles[i] = string(rune('A' + i))
	}
	return recommend.FromTitles(titles)
}

// --- Tests ---

func TestStart_SchedulesAtFixedCadence(t *testing.T) {
	s, clock := newTestScheduler(nil)
	s.Start(items(4))

	if len(clock.timers) != 4 {
		t.Fatalf("timers = %d, want 4", len(clock.timers))
	}
	for k, tm := range clock.timers {
		if want := time.Duration(k) * 100 * time.Millisecond; tm.delay != want {
			t.Errorf("timer %d delay = %v, want %v", k, tm.delay, want)
		}
	}
	snap := s.Snapshot()
	if !snap.Loading || len(snap.Visible) != 0 {
		t.Errorf("after Start: %+v", snap)
	}
}

func TestReveal_InOrder(t *testing.T) {
	var events []Event
	s, clock := newTestScheduler(&events)
	recs := items(3)
	s.Start(recs)

	for k := range recs {
		clock.fire(k)
		snap := s.Snapshot()
		if len(snap.Visible) != k+1 {
			t.Fatalf("after fire %d visible = %d", k, len(snap.Visible))
		}
		if wantLoading := k < len(recs)-1; snap.Loading != wantLoading {
			t.Errorf("after fire %d loading = %v, want %v", k, snap.Loading, wantLoading)
		}
	}
	for i, r := range s.Snapshot().Visible {
		if r != recs[i] {
			t.Errorf("visible[%d] = %+v, want %+v", i, r, recs[i])
		}
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done not closed after last reveal")
	}

	if len(events) != 4 || events[3].Type != EventDone {
		t.Errorf("events = %+v, want 3 reveals and done", events)
	}
}

func TestReveal_AnyFiringOrderKeepsIDsUnique(t *testing.T) {
	s, clock := newTestScheduler(nil)
	s.Start(items(5))

	for _, i := range []int{4, 1, 3, 0, 2} {
		if !s.Snapshot().Loading {
			t.Fatal("loading cleared before all reveals")
		}
		clock.fire(i)
	}
	snap := s.Snapshot()
	if snap.Loading {
		t.Error("still loading after all reveals")
	}
	if len(snap.Visible) != 5 {
		t.Fatalf("visible = %d, want 5", len(snap.Visible))
	}
	seen := map[int]bool{}
	for _, r := range snap.Visible {
		if seen[r.ID] {
			t.Errorf("duplicate id %d", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestReveal_DuplicateIDsInInput(t *testing.T) {
	var events []Event
	s, clock := newTestScheduler(&events)
	recs := []recommend.Recommendation{
		{ID: 1, Title: "A", RelevanceScore: 90},
		{ID: 1, Title: "A", RelevanceScore: 90},
	}
	s.Start(recs)
	clock.fire(0)
	clock.fire(1)

	snap := s.Snapshot()
	if len(snap.Visible) != 1 {
		t.Errorf("visible = %d, want 1", len(snap.Visible))
	}
	if snap.Loading {
		t.Error("loading not cleared")
	}
	reveals := 0
	for _, ev := range events {
		if ev.Type == EventReveal {
			reveals++
		}
	}
	if reveals != 1 {
		t.Errorf("reveal events = %d, want 1", reveals)
	}
}

func TestStart_EmptyFinishesImmediately(t *testing.T) {
	var events []Event
	s, clock := newTestScheduler(&events)
	s.Start(nil)

	if len(clock.timers) != 0 {
		t.Errorf("timers = %d, want 0", len(clock.timers))
	}
	if s.Snapshot().Loading {
		t.Error("loading after empty Start")
	}
	if len(events) != 1 || events[0].Type != EventDone {
		t.Errorf("events = %+v", events)
	}
}

func TestStop_CancelsPendingReveals(t *testing.T) {
	s, clock := newTestScheduler(nil)
	s.Start(items(3))
	clock.fire(0)
	s.Stop()

	for _, tm := range clock.timers[1:] {
		if !tm.stopped {
			t.Error("timer not stopped")
		}
	}
	// A callback already running when Stop was called must be a no-op.
	clock.fireRaw(1)
	clock.fireRaw(2)

	snap := s.Snapshot()
	if len(snap.Visible) != 1 {
		t.Errorf("visible = %d, want 1", len(snap.Visible))
	}
	if snap.Loading {
		t.Error("loading after Stop")
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done not closed after Stop")
	}
}

func TestStart_RestartDiscardsPreviousSchedule(t *testing.T) {
	s, clock := newTestScheduler(nil)
	s.Start(items(3))
	clock.fire(0)

	next := []recommend.Recommendation{{ID: 7, Title: "Z", RelevanceScore: 50}}
	s.Start(next)
	clock.fireRaw(1)
	clock.fire(3)

	snap := s.Snapshot()
	if len(snap.Visible) != 1 || snap.Visible[0].ID != 7 {
		t.Errorf("visible = %+v, want only id 7", snap.Visible)
	}
}

func TestFind(t *testing.T) {
	s, clock := newTestScheduler(nil)
	s.Start(items(2))
	clock.fire(0)

	if r, ok := s.Find(1); !ok || r.Title != "A" {
		t.Errorf("Find(1) = %+v, %v", r, ok)
	}
	if _, ok := s.Find(2); ok {
		t.Error("Find(2) found an unrevealed item")
	}
}

func TestRealTimers(t *testing.T) {
	s := New(time.Millisecond)
	s.Start(items(3))

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reveals")
	}
	if snap := s.Snapshot(); len(snap.Visible) != 3 || snap.Loading {
		t.Errorf("snapshot = %+v", snap)
	}
}
