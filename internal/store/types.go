package store

import (
	"errors"

	"github.com/readylabs/readyboard/internal/models"
)

// ErrNoTTL indicates a room has no TTL configured yet.
var ErrNoTTL = errors.New("room has no ttl configured")

// CreateOrderRequest represents a request to create a new order.
// The store assigns the ID; everything else is caller-supplied.
type CreateOrderRequest struct {
	RoomID    string             `json:"room_id"`
	Number    int                `json:"number"`
	Status    models.OrderStatus `json:"status"`
	CreatedAt int64              `json:"created_at"`
	ExpiresAt int64              `json:"expires_at"`
}

// OrderAddedEvent is the payload published on a room's orders.added
// subject after a successful create.
type OrderAddedEvent struct {
	Order       models.Order `json:"order"`
	PublishedAt int64        `json:"published_at"`
}
