package analytics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrPageViewNotFound is returned for page view ids that were never opened,
// were closed, or expired.
var ErrPageViewNotFound = errors.New("page view not found")

// DefaultPageViewTTL is how long a page view may go without a signal before
// it is expired. Browsers do not always report navigation away.
const DefaultPageViewTTL = 30 * time.Minute

type pageView struct {
	tracker  *Tracker
	lastSeen time.Time
}

// PageViews owns one Tracker per open page view.
type PageViews struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	views   map[uuid.UUID]*pageView
	observe func(open int)
}

// NewPageViews creates an empty registry. A ttl of zero uses DefaultPageViewTTL.
func NewPageViews(client *Client, ttl time.Duration) *PageViews {
	if ttl <= 0 {
		ttl = DefaultPageViewTTL
	}
	return &PageViews{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		views:  make(map[uuid.UUID]*pageView),
	}
}

// Open starts tracking a new page view and returns its id.
func (p *PageViews) Open(_ context.Context) uuid.UUID {
	tracker := NewTracker(p.client)
	tracker.Start()

	id := uuid.New()
	p.mu.Lock()
	p.views[id] = &pageView{tracker: tracker, lastSeen: p.now()}
	open, observe := len(p.views), p.observe
	p.mu.Unlock()

	if observe != nil {
		observe(open)
	}
	return id
}

// Observe registers fn to be called with the number of open page views
// whenever a page view is opened, closed or expired.
func (p *PageViews) Observe(fn func(open int)) {
	p.mu.Lock()
	p.observe = fn
	p.mu.Unlock()
}

// Scroll delivers a scroll signal to the page view's tracker and returns the
// milestones it fired.
func (p *PageViews) Scroll(ctx context.Context, id uuid.UUID, pos Position) ([]int, error) {
	p.mu.Lock()
	view, ok := p.views[id]
	if ok {
		view.lastSeen = p.now()
	}
	p.mu.Unlock()

	if !ok {
		return nil, ErrPageViewNotFound
	}
	return view.tracker.HandleScroll(ctx, pos), nil
}

// Close stops the page view's tracker and forgets it. Closing an unknown or
// already closed page view does nothing.
func (p *PageViews) Close(id uuid.UUID) {
	p.mu.Lock()
	view, ok := p.views[id]
	delete(p.views, id)
	open, observe := len(p.views), p.observe
	p.mu.Unlock()

	if ok {
		view.tracker.Stop()
		if observe != nil {
			observe(open)
		}
	}
}

// Len returns the number of open page views.
func (p *PageViews) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}

// Sweep closes page views idle for longer than the ttl and returns how many
// were closed.
func (p *PageViews) Sweep(now time.Time) int {
	var expired []*pageView

	p.mu.Lock()
	for id, view := range p.views {
		if now.Sub(view.lastSeen) > p.ttl {
			expired = append(expired, view)
			delete(p.views, id)
		}
	}
	open, observe := len(p.views), p.observe
	p.mu.Unlock()

	for _, view := range expired {
		view.tracker.Stop()
	}
	if len(expired) > 0 && observe != nil {
		observe(open)
	}
	return len(expired)
}

// Run sweeps expired page views every interval until ctx is done.
func (p *PageViews) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			p.Sweep(now)
		}
	}
}
