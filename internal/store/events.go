package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/models"
)

// EventBusConfig holds configuration for the NATS event bus.
type EventBusConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultEventBusConfig returns default event bus configuration.
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "readyboard.rooms",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// EventBus is the change fan-out side of the remote store. Writers publish
// best-effort notifications after each Postgres write; subscribers use them
// to refresh their local view and to detect arrivals. It also exposes the
// connection's connectivity status as a read-only boolean signal.
type EventBus struct {
	nc     *nats.Conn
	config EventBusConfig

	statusMu        sync.RWMutex
	connected       bool
	statusListeners []func(bool)
}

// NewEventBus connects to NATS and wires connectivity status handlers.
func NewEventBus(config EventBusConfig) (*EventBus, error) {
	bus := &EventBus{config: config}

	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("event bus disconnected")
			bus.setConnected(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("event bus reconnected")
			bus.setConnected(true)
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("event bus error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	bus.nc = nc
	bus.connected = true
	return bus, nil
}

// Connected reports the current connectivity status.
func (b *EventBus) Connected() bool {
	b.statusMu.RLock()
	defer b.statusMu.RUnlock()
	return b.connected
}

// OnStatusChange registers a listener invoked on every connectivity
// transition. Listeners are called from the NATS callback goroutine and
// must not block.
func (b *EventBus) OnStatusChange(fn func(connected bool)) {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	b.statusListeners = append(b.statusListeners, fn)
}

func (b *EventBus) setConnected(connected bool) {
	b.statusMu.Lock()
	if b.connected == connected {
		b.statusMu.Unlock()
		return
	}
	b.connected = connected
	listeners := make([]func(bool), len(b.statusListeners))
	copy(listeners, b.statusListeners)
	b.statusMu.Unlock()

	for _, fn := range listeners {
		fn(connected)
	}
}

func (b *EventBus) addedSubject(roomID string) string {
	return fmt.Sprintf("%s.%s.orders.added", b.config.SubjectPrefix, roomID)
}

func (b *EventBus) changedSubject(roomID string) string {
	return fmt.Sprintf("%s.%s.orders.changed", b.config.SubjectPrefix, roomID)
}

// PublishOrderAdded announces a newly created order to the room. Publishing
// is best effort: a failure is logged and the write it follows stands; the
// periodic snapshot refresh covers any missed event.
func (b *EventBus) PublishOrderAdded(order models.Order) {
	payload, err := json.Marshal(OrderAddedEvent{
		Order:       order,
		PublishedAt: models.EpochMs(time.Now()),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal order added event")
		return
	}
	if err := b.nc.Publish(b.addedSubject(order.RoomID), payload); err != nil {
		log.Warn().
			Err(err).
			Str("room_id", order.RoomID).
			Str("order_id", order.ID.String()).
			Msg("failed to publish order added event")
	}
}

// PublishChanged nudges the room's subscribers to refresh their snapshot.
func (b *EventBus) PublishChanged(roomID string) {
	if err := b.nc.Publish(b.changedSubject(roomID), nil); err != nil {
		log.Warn().
			Err(err).
			Str("room_id", roomID).
			Msg("failed to publish orders changed event")
	}
}

// SubscribeAdded delivers every order-added event for the room to handler.
// Malformed payloads are dropped with a log line rather than failing the
// subscription.
func (b *EventBus) SubscribeAdded(roomID string, handler func(OrderAddedEvent)) (*nats.Subscription, error) {
	sub, err := b.nc.Subscribe(b.addedSubject(roomID), func(msg *nats.Msg) {
		var event OrderAddedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn().
				Err(err).
				Str("subject", msg.Subject).
				Msg("dropping malformed order added event")
			return
		}
		event.Order.Status = models.ParseOrderStatus(string(event.Order.Status))
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe added events: %w", err)
	}
	return sub, nil
}

// SubscribeChanged delivers a refresh nudge for every change in the room.
func (b *EventBus) SubscribeChanged(roomID string, handler func()) (*nats.Subscription, error) {
	sub, err := b.nc.Subscribe(b.changedSubject(roomID), func(msg *nats.Msg) {
		handler()
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe changed events: %w", err)
	}
	return sub, nil
}

// Close drains and closes the NATS connection.
func (b *EventBus) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}
