package analytics

import (
	"context"
	"sync"
)

// Milestones are the scroll depth percentages reported, in ascending order.
var Milestones = [...]int{25, 50, 75, 100}

// Position is the page's scroll geometry when a scroll signal is delivered.
type Position struct {
	Offset         float64
	ScrollHeight   float64
	ViewportHeight float64
}

// Percent returns how far through the scrollable range the offset is, and
// false when the page is not scrollable.
func (p Position) Percent() (float64, bool) {
	scrollable := p.ScrollHeight - p.ViewportHeight
	if scrollable <= 0 {
		return 0, false
	}
	return p.Offset / scrollable * 100, true
}

// Tracker reports each scroll milestone at most once per active session.
//
// A tracker starts idle. Start begins a session with an empty fired set and
// Stop ends it, discarding the set. Scroll signals delivered while idle are
// ignored.
type Tracker struct {
	client *Client

	mu     sync.Mutex
	active bool
	fired  map[int]bool
}

// NewTracker creates an idle tracker that reports through client.
func NewTracker(client *Client) *Tracker {
	return &Tracker{client: client}
}

// Start begins a session. Calling Start on an active tracker does nothing.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		return
	}
	t.active = true
	t.fired = make(map[int]bool, len(Milestones))
}

// Stop ends the session. Calling Stop on an idle tracker does nothing.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = false
	t.fired = nil
}

// Active reports whether a session is in progress.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// HandleScroll evaluates one scroll signal and fires every milestone the
// position has reached that has not fired yet, in ascending order. It returns
// the milestones fired by this call.
func (t *Tracker) HandleScroll(ctx context.Context, pos Position) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return nil
	}

	percent, ok := pos.Percent()
	if !ok {
		return nil
	}

	var fired []int
	for _, m := range Milestones {
		if percent >= float64(m) && !t.fired[m] {
			t.client.TrackScrollDepth(ctx, m)
			t.fired[m] = true
			fired = append(fired, m)
		}
	}
	return fired
}
