package feed

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/models"
	"github.com/readylabs/readyboard/internal/store"
)

// Lister provides the complete current order set for a room.
type Lister interface {
	ListOrders(ctx context.Context, roomID string) ([]models.Order, error)
}

// Config holds configuration for the order feed.
type Config struct {
	// RefreshInterval is the fallback full-refresh cadence used when no
	// change events arrive.
	RefreshInterval time.Duration
	// AddedTailSize bounds the ring of recent order-added events kept for
	// late-attaching consumers.
	AddedTailSize int
}

// DefaultConfig returns default feed configuration.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 15 * time.Second,
		AddedTailSize:   20,
	}
}

// handlerSlot is a swappable current-handler cell. Event deliveries read
// through the slot on every call, so the handler can be replaced at any
// time without touching the underlying subscription.
type handlerSlot[T any] struct {
	fn atomic.Pointer[func(T)]
}

func (s *handlerSlot[T]) set(fn func(T)) {
	s.fn.Store(&fn)
}

func (s *handlerSlot[T]) call(v T) {
	if fn := s.fn.Load(); fn != nil {
		(*fn)(v)
	}
}

// Feed maintains a room's ordered local view of the remote order set.
// Every refresh replaces the whole snapshot: the remote store hands out
// complete sets, not diffs. The first completed refresh, empty or not,
// flips the ready latch exactly once; arrival classification gates on it.
type Feed struct {
	lister Lister
	roomID string
	clock  clockwork.Clock
	config Config

	mu      sync.RWMutex
	orders  []models.Order
	ready   bool
	readyCh chan struct{}
	tail    []store.OrderAddedEvent

	snapshotHandler handlerSlot[[]models.Order]
	refreshCh       chan struct{}
}

// New creates a feed for one room.
func New(lister Lister, roomID string, clock clockwork.Clock, config Config) *Feed {
	return &Feed{
		lister:    lister,
		roomID:    roomID,
		clock:     clock,
		config:    config,
		readyCh:   make(chan struct{}),
		refreshCh: make(chan struct{}, 1),
	}
}

// SetSnapshotHandler replaces the handler invoked with every new snapshot.
func (f *Feed) SetSnapshotHandler(fn func([]models.Order)) {
	f.snapshotHandler.set(fn)
}

// Snapshot returns a copy of the current ordered local view.
func (f *Feed) Snapshot() []models.Order {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]models.Order, len(f.orders))
	copy(out, f.orders)
	return out
}

// IsReady reports whether the initial snapshot has been received.
func (f *Feed) IsReady() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ready
}

// Ready returns a channel closed once the initial snapshot is in.
func (f *Feed) Ready() <-chan struct{} {
	return f.readyCh
}

// Nudge requests a refresh. Nudges are coalesced: one pending refresh
// absorbs any number of change events.
func (f *Feed) Nudge() {
	select {
	case f.refreshCh <- struct{}{}:
	default:
	}
}

// RecordAdded appends an order-added event to the bounded recent tail.
func (f *Feed) RecordAdded(event store.OrderAddedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tail = append(f.tail, event)
	if len(f.tail) > f.config.AddedTailSize {
		f.tail = f.tail[len(f.tail)-f.config.AddedTailSize:]
	}
}

// RecentAdded returns a copy of the recent order-added tail.
func (f *Feed) RecentAdded() []store.OrderAddedEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]store.OrderAddedEvent, len(f.tail))
	copy(out, f.tail)
	return out
}

// Refresh fetches the complete current set, reorders it locally and
// publishes it through the snapshot handler slot. The fetch failing keeps
// the previous snapshot and does not flip the latch.
func (f *Feed) Refresh(ctx context.Context) error {
	orders, err := f.lister.ListOrders(ctx, f.roomID)
	if err != nil {
		return err
	}
	sortOrders(orders)

	f.mu.Lock()
	f.orders = orders
	first := !f.ready
	if first {
		f.ready = true
		close(f.readyCh)
	}
	f.mu.Unlock()

	if first {
		log.Info().
			Str("room_id", f.roomID).
			Int("orders", len(orders)).
			Msg("initial order snapshot received")
	}

	f.snapshotHandler.call(orders)
	return nil
}

// Run refreshes once immediately, then on every nudge and on the fallback
// ticker, until the context is cancelled.
func (f *Feed) Run(ctx context.Context) {
	if err := f.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("room_id", f.roomID).Msg("initial order refresh failed")
	}

	ticker := f.clock.NewTicker(f.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.refreshCh:
		case <-ticker.Chan():
		}
		if err := f.Refresh(ctx); err != nil {
			log.Warn().Err(err).Str("room_id", f.roomID).Msg("order refresh failed")
		}
	}
}

// sortOrders orders newest first, ties broken by number descending. The
// store already orders its result but the feed owns its view's ordering
// and never trusts the wire.
func sortOrders(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt != orders[j].CreatedAt {
			return orders[i].CreatedAt > orders[j].CreatedAt
		}
		return orders[i].Number > orders[j].Number
	})
}
