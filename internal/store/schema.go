package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		room_id    text    NOT NULL,
		number     integer NOT NULL DEFAULT 0,
		status     text    NOT NULL DEFAULT 'ready',
		created_at bigint  NOT NULL DEFAULT 0,
		expires_at bigint  NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS orders_room_created_idx
		ON orders (room_id, created_at DESC, number DESC)`,
	`CREATE TABLE IF NOT EXISTS room_config (
		room_id text   PRIMARY KEY,
		ttl_ms  bigint NOT NULL
	)`,
}

// EnsureSchema creates the store's tables if they do not exist yet.
// Rooms themselves have no table: a room exists once its first order or
// config row is written.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
