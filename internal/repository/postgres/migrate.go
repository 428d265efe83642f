package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		starts_at TIMESTAMPTZ NOT NULL,
		capacity INT NOT NULL CHECK (capacity >= 1),
		tickets_sold INT NOT NULL DEFAULT 0 CHECK (tickets_sold >= 0 AND tickets_sold <= capacity),
		price_cents BIGINT NOT NULL,
		currency TEXT NOT NULL,
		host_account_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS external_events (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		price_cents BIGINT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL,
		buyer_id TEXT NOT NULL,
		buyer_email TEXT NOT NULL,
		event_id UUID REFERENCES events(id),
		external_event_id UUID REFERENCES external_events(id),
		quantity INT NOT NULL CHECK (quantity >= 1 AND quantity <= 10),
		amount_cents BIGINT NOT NULL,
		fee_split_cents BIGINT NOT NULL,
		currency TEXT NOT NULL,
		payment_reference TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK ((event_id IS NULL) <> (external_event_id IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id),
		event_id UUID REFERENCES events(id),
		external_event_id UUID REFERENCES external_events(id),
		scan_token TEXT NOT NULL UNIQUE,
		sequence_number INT NOT NULL,
		status TEXT NOT NULL,
		scanned_at TIMESTAMPTZ,
		scanned_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK ((event_id IS NULL) <> (external_event_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_order ON tickets(order_id)`,
}

// Migrate bootstraps the schema at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run schema statement: %w", err)
		}
	}
	return nil
}
