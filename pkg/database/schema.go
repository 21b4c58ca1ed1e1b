package database

import (
	"context"
	"fmt"
)

// schema is applied in order on startup. Every statement is idempotent.
// The sessions table belongs to the auth provider and is only created here
// so a fresh database can boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL,
		token       UUID NOT NULL UNIQUE,
		user_agent  TEXT,
		ip_address  TEXT,
		expires_at  TIMESTAMPTZ NOT NULL,
		revoked_at  TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tours (
		id             UUID PRIMARY KEY,
		owner_id       UUID NOT NULL,
		name           TEXT NOT NULL,
		currency       CHAR(3) NOT NULL,
		price_per_seat BIGINT NOT NULL CHECK (price_per_seat >= 0),
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id         UUID PRIMARY KEY,
		tour_id    UUID NOT NULL REFERENCES tours(id),
		starts_at  TIMESTAMPTZ NOT NULL,
		ends_at    TIMESTAMPTZ NOT NULL,
		capacity   INT NOT NULL CHECK (capacity >= 1),
		status     TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (ends_at > starts_at)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id                UUID PRIMARY KEY,
		order_id          TEXT NOT NULL,
		schedule_id       UUID NOT NULL REFERENCES schedules(id),
		traveler_id       UUID NOT NULL,
		party_size        INT NOT NULL CHECK (party_size >= 1),
		total_amount      BIGINT NOT NULL,
		currency          CHAR(3) NOT NULL,
		status            TEXT NOT NULL,
		expires_at        TIMESTAMPTZ,
		payment_intent_id TEXT,
		payment_status    TEXT NOT NULL DEFAULT 'none',
		payment_attempts  INT NOT NULL DEFAULT 0,
		paid_at           TIMESTAMPTZ,
		metadata          JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_schedule_status ON bookings (schedule_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_pending_expiry ON bookings (expires_at) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_traveler ON bookings (traveler_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_refund ON bookings (updated_at DESC) WHERE payment_status = 'refund_required'`,
	`CREATE TABLE IF NOT EXISTS payment_events (
		event_id    TEXT PRIMARY KEY,
		type        TEXT NOT NULL,
		intent_id   TEXT NOT NULL,
		booking_id  UUID,
		received_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db PgxIface) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
