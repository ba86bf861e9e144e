package db

// Event names as stored. They match the names the analytics client emits.
const (
	EventScrollDepth = "scroll_depth"
	EventLinkClick   = "external_link_click"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS telemetry_events (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	payload     JSONB NOT NULL DEFAULT '{}'::jsonb,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS telemetry_events_name_recorded_at_idx
	ON telemetry_events (name, recorded_at);
`
