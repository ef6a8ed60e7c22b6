package feed

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/models"
	"github.com/readylabs/readyboard/internal/store"
)

// Detector classifies order-added events as catch-up or genuine arrivals.
// Events observed before the feed's ready latch belong to the state that
// existed at subscription time and are ignored; everything after is a
// genuine arrival, forwarded at most once per order ID per session.
//
// The detector deliberately depends only on the latch, not on event
// ordering: the contract is that the full snapshot for pre-existing data
// logically precedes new arrivals.
type Detector struct {
	ready func() bool

	mu   sync.Mutex
	seen map[uuid.UUID]struct{}

	handler handlerSlot[models.Order]
}

// NewDetector creates a detector gated on the given readiness latch,
// typically Feed.IsReady.
func NewDetector(ready func() bool) *Detector {
	return &Detector{
		ready: ready,
		seen:  make(map[uuid.UUID]struct{}),
	}
}

// SetArrivalHandler replaces the handler invoked for genuine arrivals.
func (d *Detector) SetArrivalHandler(fn func(models.Order)) {
	d.handler.set(fn)
}

// Observe feeds one order-added event through the detector.
func (d *Detector) Observe(event store.OrderAddedEvent) {
	if !d.ready() {
		log.Debug().
			Str("order_id", event.Order.ID.String()).
			Msg("ignoring catch-up order added event")
		return
	}

	d.mu.Lock()
	if _, dup := d.seen[event.Order.ID]; dup {
		d.mu.Unlock()
		return
	}
	d.seen[event.Order.ID] = struct{}{}
	d.mu.Unlock()

	log.Debug().
		Str("order_id", event.Order.ID.String()).
		Int("number", event.Order.Number).
		Msg("genuine order arrival")
	d.handler.call(event.Order)
}
