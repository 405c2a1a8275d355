package overlay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/apexathon/careerdash/internal/recommend"
)

// ErrUnknownRecommendation is returned when an overlay is opened for a
// recommendation that is not in the visible collection.
var ErrUnknownRecommendation = errors.New("unknown recommendation")

// Kind is the detail overlay currently shown. Courses and listings are
// mutually exclusive.
type Kind string

const (
	KindNone     Kind = "none"
	KindCourses  Kind = "courses"
	KindListings Kind = "listings"
)

// State is a snapshot of the overlays of one dashboard. Chat is independent
// of Kind. Subject is the id of the recommendation the detail overlay is
// about, nil when no detail overlay has a subject.
type State struct {
	Kind    Kind `json:"kind"`
	Chat    bool `json:"chat"`
	Subject *int `json:"subject"`
}

// Lookup resolves recommendation ids against the visible collection.
type Lookup interface {
	Find(id int) (recommend.Recommendation, bool)
}

// Controller tracks which overlays of a dashboard are open.
type Controller struct {
	lookup Lookup

	mu      sync.Mutex
	kind    Kind
	chat    bool
	subject *int
}

// New creates a Controller with every overlay closed.
func New(lookup Lookup) *Controller {
	return &Controller{lookup: lookup, kind: KindNone}
}

// OpenCourses shows the course overlay for recommendation id and closes the
// listings overlay.
func (c *Controller) OpenCourses(id int) (recommend.Recommendation, error) {
	return c.openDetail(KindCourses, id)
}

// OpenListings shows the listings overlay for recommendation id and closes the
// course overlay.
func (c *Controller) OpenListings(id int) (recommend.Recommendation, error) {
	return c.openDetail(KindListings, id)
}

func (c *Controller) openDetail(kind Kind, id int) (recommend.Recommendation, error) {
	rec, ok := c.lookup.Find(id)
	if !ok {
		return recommend.Recommendation{}, fmt.Errorf("opening %s overlay for %d: %w", kind, id, ErrUnknownRecommendation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.kind = kind
	c.subject = &id
	return rec, nil
}

// OpenChat shows the chat overlay. Detail overlays are left as they are.
func (c *Controller) OpenChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat = true
}

// CloseAll closes every overlay and clears the subject.
func (c *Controller) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kind = KindNone
	c.chat = false
	c.subject = nil
}

// State returns a snapshot of the overlay state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{Kind: c.kind, Chat: c.chat}
	if c.subject != nil {
		id := *c.subject
		s.Subject = &id
	}
	return s
}
