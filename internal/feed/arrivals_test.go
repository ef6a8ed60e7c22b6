package feed

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readylabs/readyboard/internal/models"
	"github.com/readylabs/readyboard/internal/store"
)

func addedEvent(number int) store.OrderAddedEvent {
	return store.OrderAddedEvent{
		Order: models.Order{ID: uuid.New(), RoomID: "lobby", Number: number},
	}
}

func TestDetectorIgnoresCatchUpEvents(t *testing.T) {
	d := NewDetector(func() bool { return false })

	var arrivals []models.Order
	d.SetArrivalHandler(func(o models.Order) { arrivals = append(arrivals, o) })

	for i := 1; i <= 5; i++ {
		d.Observe(addedEvent(i))
	}
	assert.Empty(t, arrivals, "pre-latch events must never highlight")
}

func TestDetectorForwardsGenuineArrivalsOnce(t *testing.T) {
	// Five orders exist before the client catches up, a sixth arrives
	// after: only the sixth is genuine.
	orders := make([]models.Order, 0, 5)
	lister := &mockLister{
		listOrdersFn: func(ctx context.Context, roomID string) ([]models.Order, error) {
			return orders, nil
		},
	}
	f := newTestFeed(lister)
	d := NewDetector(f.IsReady)

	var arrivals []models.Order
	d.SetArrivalHandler(func(o models.Order) { arrivals = append(arrivals, o) })

	for i := 1; i <= 5; i++ {
		event := addedEvent(i)
		orders = append(orders, event.Order)
		d.Observe(event)
	}
	require.NoError(t, f.Refresh(context.Background()))
	assert.Empty(t, arrivals)

	sixth := addedEvent(6)
	d.Observe(sixth)
	require.Len(t, arrivals, 1)
	assert.Equal(t, sixth.Order.ID, arrivals[0].ID)

	// Redelivery of the same event must not classify twice.
	d.Observe(sixth)
	assert.Len(t, arrivals, 1)
}

func TestDetectorHandlerSwap(t *testing.T) {
	d := NewDetector(func() bool { return true })

	var first, second int
	d.SetArrivalHandler(func(models.Order) { first++ })
	d.Observe(addedEvent(1))

	d.SetArrivalHandler(func(models.Order) { second++ })
	d.Observe(addedEvent(2))

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}
