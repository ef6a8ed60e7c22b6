package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/readylabs/readyboard/internal/models"
)

// Repository is the Postgres side of the remote store: it owns the
// persisted orders and per-room TTL config, and exposes the store's
// authoritative clock.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateOrder inserts a new order and returns it with the store-assigned ID.
// Timestamps are taken verbatim from the request; the caller stamps them
// with server-corrected time.
func (r *Repository) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (room_id, number, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		req.RoomID, req.Number, string(req.Status), req.CreatedAt, req.ExpiresAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return &models.Order{
		ID:        id,
		RoomID:    req.RoomID,
		Number:    req.Number,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
		ExpiresAt: req.ExpiresAt,
	}, nil
}

// DeleteOrder removes an order by ID. Deleting an ID that is already gone
// is a no-op: every subscribed client sweeps expired orders independently,
// so concurrent deletes of the same ID are expected.
func (r *Repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// ListOrders returns the complete current order set for a room, newest
// first, ties broken by number descending. Fields are defensively
// defaulted so one malformed row cannot fail the whole snapshot.
func (r *Repository) ListOrders(ctx context.Context, roomID string) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, room_id, COALESCE(number, 0), COALESCE(status, 'ready'),
		        COALESCE(created_at, 0), COALESCE(expires_at, 0)
		 FROM orders
		 WHERE room_id = $1
		 ORDER BY created_at DESC, number DESC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var status string
		if err := rows.Scan(&o.ID, &o.RoomID, &o.Number, &status, &o.CreatedAt, &o.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = models.ParseOrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}

// GetTTL returns the room's configured TTL in milliseconds.
// ErrNoTTL is returned when the room has no config row yet.
func (r *Repository) GetTTL(ctx context.Context, roomID string) (int64, error) {
	var ttl int64
	err := r.pool.QueryRow(ctx,
		`SELECT ttl_ms FROM room_config WHERE room_id = $1`, roomID,
	).Scan(&ttl)
	if err == pgx.ErrNoRows {
		return 0, ErrNoTTL
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get ttl: %w", err)
	}
	return ttl, nil
}

// SetTTL writes the room's TTL in milliseconds. Existing orders keep the
// expiry they were created with.
func (r *Repository) SetTTL(ctx context.Context, roomID string, ttlMs int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO room_config (room_id, ttl_ms) VALUES ($1, $2)
		 ON CONFLICT (room_id) DO UPDATE SET ttl_ms = EXCLUDED.ttl_ms`,
		roomID, ttlMs,
	)
	if err != nil {
		return fmt.Errorf("failed to set ttl: %w", err)
	}
	return nil
}

// EnsureTTL returns the room's TTL, writing and adopting defaultMs when the
// room has none yet. The no-op DO UPDATE keeps an existing value intact
// while still returning it in one round trip.
func (r *Repository) EnsureTTL(ctx context.Context, roomID string, defaultMs int64) (int64, error) {
	var ttl int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO room_config (room_id, ttl_ms) VALUES ($1, $2)
		 ON CONFLICT (room_id) DO UPDATE SET ttl_ms = room_config.ttl_ms
		 RETURNING ttl_ms`,
		roomID, defaultMs,
	).Scan(&ttl)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure ttl: %w", err)
	}
	return ttl, nil
}

// ServerTime returns the store's authoritative clock as epoch milliseconds.
func (r *Repository) ServerTime(ctx context.Context) (int64, error) {
	var ms int64
	err := r.pool.QueryRow(ctx,
		`SELECT (extract(epoch FROM now()) * 1000)::bigint`,
	).Scan(&ms)
	if err != nil {
		return 0, fmt.Errorf("failed to read server time: %w", err)
	}
	return ms, nil
}
