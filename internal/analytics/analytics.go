// Package analytics records page telemetry: external link clicks and the
// scroll depth milestones a visitor reaches during one page view.
package analytics

import "context"

// Event names sent to the sink.
const (
	EventLinkClick   = "external_link_click"
	EventScrollDepth = "scroll_depth"
)

// Client sends telemetry events to a sink.
type Client struct {
	sink Sink
}

// NewClient creates a client that records to sink.
func NewClient(sink Sink) *Client {
	return &Client{sink: sink}
}

// TrackLinkClick records a click on an outbound link.
func (c *Client) TrackLinkClick(ctx context.Context, name, url string) {
	c.sink.Record(ctx, EventLinkClick, Payload{"name": name, "url": url})
}

// TrackScrollDepth records that a scroll milestone was reached.
func (c *Client) TrackScrollDepth(ctx context.Context, depth int) {
	c.sink.Record(ctx, EventScrollDepth, Payload{"depth": depth})
}
