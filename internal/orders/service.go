package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/models"
	"github.com/readylabs/readyboard/internal/store"
)

// Store is what the service needs from the remote store's persistence side.
type Store interface {
	CreateOrder(ctx context.Context, req store.CreateOrderRequest) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	SetTTL(ctx context.Context, roomID string, ttlMs int64) error
	EnsureTTL(ctx context.Context, roomID string, defaultMs int64) (int64, error)
}

// Publisher announces store writes to the room's subscribers.
type Publisher interface {
	PublishOrderAdded(order models.Order)
	PublishChanged(roomID string)
}

// View provides the current local order view used for duplicate checks.
type View interface {
	Snapshot() []models.Order
}

// ServerClock provides server-corrected time in epoch milliseconds.
type ServerClock interface {
	ServerNow() int64
}

// Service handles staff submissions for one room: duplicate checking,
// creation with server-corrected timestamps, deletion with single-slot
// undo, TTL config and next-number recommendations.
type Service struct {
	store  Store
	bus    Publisher
	view   View
	server ServerClock
	roomID string

	undo UndoBuffer

	mu    sync.RWMutex
	ttlMs int64
}

// NewService creates a submission service for a room. The room ID is an
// opaque external input; only non-emptiness is checked.
func NewService(st Store, bus Publisher, view View, server ServerClock, roomID string) (*Service, error) {
	if roomID == "" {
		return nil, ErrEmptyRoom
	}
	return &Service{
		store:  st,
		bus:    bus,
		view:   view,
		server: server,
		roomID: roomID,
		ttlMs:  DefaultTTLMs,
	}, nil
}

// Init reads the room's TTL, writing and adopting the default when the
// room has none yet. Called once on room entry.
func (s *Service) Init(ctx context.Context) error {
	ttl, err := s.store.EnsureTTL(ctx, s.roomID, DefaultTTLMs)
	if err != nil {
		return fmt.Errorf("failed to init room ttl: %w", err)
	}
	s.mu.Lock()
	s.ttlMs = ttl
	s.mu.Unlock()

	log.Info().Str("room_id", s.roomID).Int64("ttl_ms", ttl).Msg("room ttl loaded")
	return nil
}

// TTL returns the TTL applied to orders created from now on, in
// milliseconds.
func (s *Service) TTL() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ttlMs
}

// SetTTL writes a new TTL for the room, given in minutes. Orders already
// on the board keep the expiry they were created with.
func (s *Service) SetTTL(ctx context.Context, minutes int) error {
	if minutes < 1 {
		return ErrInvalidTTL
	}
	ttlMs := int64(minutes) * 60 * 1000
	if err := s.store.SetTTL(ctx, s.roomID, ttlMs); err != nil {
		return fmt.Errorf("failed to set ttl: %w", err)
	}
	s.mu.Lock()
	s.ttlMs = ttlMs
	s.mu.Unlock()

	log.Info().Str("room_id", s.roomID).Int64("ttl_ms", ttlMs).Msg("room ttl updated")
	return nil
}

// Submit creates a new order for the number after validation and the
// duplicate check. The duplicate check runs against the client's current
// local view only; two controllers racing within the propagation window
// can both pass it. That window is accepted, not closed here.
func (s *Service) Submit(ctx context.Context, number int) (*models.Order, error) {
	if number < 1 || number > MaxNumber {
		return nil, ErrInvalidNumber
	}

	now := s.server.ServerNow()
	if err := s.checkDuplicate(number, now); err != nil {
		return nil, err
	}

	return s.create(ctx, store.CreateOrderRequest{
		RoomID:    s.roomID,
		Number:    number,
		Status:    models.OrderStatusReady,
		CreatedAt: now,
		ExpiresAt: now + s.TTL(),
	})
}

// ActiveView returns the current ordered local view of the board.
func (s *Service) ActiveView() []models.Order {
	return s.view.Snapshot()
}

// checkDuplicate rejects a number that is active (not yet expired) in the
// current local view. No remote read happens here.
func (s *Service) checkDuplicate(number int, serverNowMs int64) error {
	for _, o := range s.view.Snapshot() {
		if o.Number == number && !o.Expired(serverNowMs) {
			return ErrDuplicateNumber
		}
	}
	return nil
}

// Delete removes an order, first capturing its live fields into the undo
// buffer. An order no longer in the local view is deleted anyway; there is
// just nothing left to capture for undo.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	for _, o := range s.view.Snapshot() {
		if o.ID == id {
			s.undo.Remember(models.DeletedOrderSnapshot{
				Number:    o.Number,
				Status:    o.Status,
				CreatedAt: o.CreatedAt,
				ExpiresAt: o.ExpiresAt,
			})
			break
		}
	}

	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.bus.PublishChanged(s.roomID)

	log.Info().Str("room_id", s.roomID).Str("order_id", id.String()).Msg("order deleted")
	return nil
}

// Undo re-submits the most recently deleted order as a brand-new entry:
// fresh store-assigned ID, original number, timestamps and status
// verbatim. The buffer is cleared only after the re-submit succeeds; with
// nothing buffered it returns ErrNothingToUndo.
func (s *Service) Undo(ctx context.Context) (*models.Order, error) {
	snap, ok := s.undo.Peek()
	if !ok {
		return nil, ErrNothingToUndo
	}

	order, err := s.create(ctx, store.CreateOrderRequest{
		RoomID:    s.roomID,
		Number:    snap.Number,
		Status:    snap.Status,
		CreatedAt: snap.CreatedAt,
		ExpiresAt: snap.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.undo.Clear()
	return order, nil
}

func (s *Service) create(ctx context.Context, req store.CreateOrderRequest) (*models.Order, error) {
	order, err := s.store.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.bus.PublishOrderAdded(*order)
	s.bus.PublishChanged(s.roomID)

	log.Info().
		Str("room_id", s.roomID).
		Str("order_id", order.ID.String()).
		Int("number", order.Number).
		Msg("order created")
	return order, nil
}
