package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus defines the status of a ready-board order.
type OrderStatus string

const (
	OrderStatusReady   OrderStatus = "ready"
	OrderStatusDone    OrderStatus = "done"
	OrderStatusRemoved OrderStatus = "removed"
)

// ParseOrderStatus maps a raw status string to an OrderStatus.
// Unrecognized values default to ready rather than failing the read.
func ParseOrderStatus(s string) OrderStatus {
	switch OrderStatus(s) {
	case OrderStatusReady, OrderStatusDone, OrderStatusRemoved:
		return OrderStatus(s)
	default:
		return OrderStatusReady
	}
}

// Order represents one customer-facing ready number in a room.
// CreatedAt and ExpiresAt are server-corrected epoch milliseconds.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	RoomID    string      `json:"room_id"`
	Number    int         `json:"number"`
	Status    OrderStatus `json:"status"`
	CreatedAt int64       `json:"created_at"`
	ExpiresAt int64       `json:"expires_at"`
}

// Expired reports whether the order's TTL has elapsed at the given
// server time (epoch milliseconds).
func (o Order) Expired(serverNowMs int64) bool {
	return o.ExpiresAt <= serverNowMs
}

// DeletedOrderSnapshot captures the fields of an order immediately before
// deletion so it can be re-submitted as a brand-new order by undo.
type DeletedOrderSnapshot struct {
	Number    int         `json:"number"`
	Status    OrderStatus `json:"status"`
	CreatedAt int64       `json:"created_at"`
	ExpiresAt int64       `json:"expires_at"`
}

// EpochMs converts a time.Time to epoch milliseconds.
func EpochMs(t time.Time) int64 {
	return t.UnixMilli()
}
