package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/apexathon/careerdash/internal/chat"
	"github.com/apexathon/careerdash/internal/overlay"
	"github.com/apexathon/careerdash/internal/recommend"
	"github.com/apexathon/careerdash/internal/reveal"
)

const subscriberBuffer = 32

// Card is a revealed recommendation with its display band.
type Card struct {
	recommend.Recommendation
	Band recommend.Band `json:"band"`
}

// View is the externally visible state of a mounted dashboard.
type View struct {
	ID              string        `json:"id"`
	CreatedAt       time.Time     `json:"createdAt"`
	Loading         bool          `json:"loading"`
	Recommendations []Card        `json:"recommendations"`
	Overlay         overlay.State `json:"overlay"`
}

// Dashboard is one mount: a fetch followed by a staggered reveal, plus the
// overlays and chat session that live as long as the mount.
type Dashboard struct {
	ID        string
	CreatedAt time.Time

	scheduler *reveal.Scheduler
	overlay   *overlay.Controller
	chat      *chat.Session
	cancel    context.CancelFunc
	fetched   chan struct{}

	// lifeMu orders scheduler start against teardown.
	lifeMu   sync.Mutex
	fetching bool
	closed   bool

	subMu      sync.Mutex
	subs       map[chan reveal.Event]struct{}
	subsClosed bool
}

// Overlay returns the dashboard's overlay controller.
func (d *Dashboard) Overlay() *overlay.Controller { return d.overlay }

// Chat returns the dashboard's chat session.
func (d *Dashboard) Chat() *chat.Session { return d.chat }

// Find looks up a revealed recommendation.
func (d *Dashboard) Find(id int) (recommend.Recommendation, bool) {
	return d.scheduler.Find(id)
}

// View returns a snapshot of the dashboard. Loading stays true from mount
// until the last recommendation is revealed.
func (d *Dashboard) View() View {
	snap := d.scheduler.Snapshot()

	d.lifeMu.Lock()
	fetching := d.fetching
	d.lifeMu.Unlock()

	cards := make([]Card, len(snap.Visible))
	for i, r := range snap.Visible {
		cards[i] = Card{Recommendation: r, Band: r.Band()}
	}
	return View{
		ID:              d.ID,
		CreatedAt:       d.CreatedAt,
		Loading:         fetching || snap.Loading,
		Recommendations: cards,
		Overlay:         d.overlay.State(),
	}
}

// Wait blocks until every recommendation has been revealed, the dashboard is
// unmounted, or ctx is done.
func (d *Dashboard) Wait(ctx context.Context) error {
	select {
	case <-d.fetched:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-d.scheduler.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers for reveal events. The channel is closed when the
// dashboard is unmounted. Reveal events are dropped for slow subscribers;
// the done event always arrives.
func (d *Dashboard) Subscribe() (<-chan reveal.Event, func()) {
	ch := make(chan reveal.Event, subscriberBuffer)

	d.subMu.Lock()
	if d.subsClosed {
		d.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subMu.Lock()
			defer d.subMu.Unlock()
			if _, ok := d.subs[ch]; ok {
				delete(d.subs, ch)
				close(ch)
			}
		})
	}
}

func (d *Dashboard) broadcast(ev reveal.Event) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for ch := range d.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		if ev.Type != reveal.EventDone {
			continue
		}
		// Only broadcast sends, under subMu, so one receive frees a slot.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// reveal starts the scheduler with the fetched list unless the dashboard was
// unmounted while the fetch was running.
func (d *Dashboard) reveal(recs []recommend.Recommendation) {
	defer close(d.fetched)

	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()
	if d.closed {
		return
	}
	d.fetching = false
	d.scheduler.Start(recs)
}

func (d *Dashboard) teardown() {
	d.lifeMu.Lock()
	if d.closed {
		d.lifeMu.Unlock()
		return
	}
	d.closed = true
	d.fetching = false
	d.cancel()
	d.scheduler.Stop()
	d.lifeMu.Unlock()

	d.subMu.Lock()
	defer d.subMu.Unlock()
	d.subsClosed = true
	for ch := range d.subs {
		delete(d.subs, ch)
		close(ch)
	}
}
