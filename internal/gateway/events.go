package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/readylabs/readyboard/internal/models"
)

// EventType represents the type of board event pushed to displays.
type EventType string

const (
	// EventTypeBoard carries the full ordered board snapshot.
	EventTypeBoard EventType = "Board"
	// EventTypeOrderAdded announces a genuine arrival.
	EventTypeOrderAdded EventType = "OrderAdded"
	// EventTypeHighlightExpired announces a lapsed highlight.
	EventTypeHighlightExpired EventType = "HighlightExpired"
)

// BoardEvent is the envelope for everything sent to attached displays.
type BoardEvent struct {
	RoomID    string          `json:"room_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// BoardPayload is the full snapshot payload: the ordered order list plus
// the IDs currently highlighted on this client.
type BoardPayload struct {
	Orders      []models.Order `json:"orders"`
	Highlighted []uuid.UUID    `json:"highlighted"`
}

// OrderAddedPayload announces one genuine arrival. Sound reflects the
// client-local toggle at the moment of arrival.
type OrderAddedPayload struct {
	Order models.Order `json:"order"`
	Sound bool         `json:"sound"`
}

// HighlightExpiredPayload identifies the order whose highlight lapsed.
type HighlightExpiredPayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

func newEvent(roomID string, eventType EventType, payload any) (*BoardEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &BoardEvent{
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}
