// Package db provides PostgreSQL storage for telemetry events.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/portfolio/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// EnsureSchema creates the telemetry tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// InsertEvent stores one telemetry event. payload must be a JSON object.
func (db *DB) InsertEvent(ctx context.Context, name string, payload []byte, recordedAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO telemetry_events (name, payload, recorded_at)
		 VALUES ($1, $2, $3)`,
		name, payload, recordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", name, err)
	}
	return nil
}

// Summary aggregates stored events into per-milestone and per-link counts
func (db *DB) Summary(ctx context.Context, since time.Time) (*types.AnalyticsSummary, error) {
	scroll, err := db.countByPayloadKey(ctx, EventScrollDepth, "depth", since)
	if err != nil {
		return nil, err
	}
	links, err := db.countByPayloadKey(ctx, EventLinkClick, "name", since)
	if err != nil {
		return nil, err
	}
	return &types.AnalyticsSummary{ScrollDepth: scroll, LinkClicks: links}, nil
}

// countByPayloadKey counts events of one name grouped by a payload field
func (db *DB) countByPayloadKey(ctx context.Context, name, key string, since time.Time) ([]types.EventCount, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT payload->>($2::text) AS label, COUNT(*)
		 FROM telemetry_events
		 WHERE name = $1 AND recorded_at >= $3
		 GROUP BY label
		 ORDER BY label`,
		name, key, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s events: %w", name, err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.EventCount, error) {
		c := types.EventCount{Name: name}
		var label *string
		if err := row.Scan(&label, &c.Count); err != nil {
			return c, err
		}
		if label != nil {
			c.Label = *label
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s summary: %w", name, err)
	}
	return counts, nil
}
