package reaper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/models"
)

// SnapshotSource provides the current local order view.
type SnapshotSource interface {
	Snapshot() []models.Order
}

// Deleter removes an order from the remote store by ID.
type Deleter interface {
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// ServerClock provides the server-corrected current time in epoch
// milliseconds.
type ServerClock interface {
	ServerNow() int64
}

// Config holds configuration for the expiry reaper.
type Config struct {
	SweepInterval time.Duration
}

// DefaultConfig returns default reaper configuration.
func DefaultConfig() Config {
	return Config{SweepInterval: 10 * time.Second}
}

// Reaper periodically deletes orders whose TTL has elapsed in server time.
// Every subscribed client runs its own sweep; deleting an ID another
// client already removed is a no-op at the store, so overlap is harmless.
type Reaper struct {
	source  SnapshotSource
	deleter Deleter
	server  ServerClock
	clock   clockwork.Clock
	config  Config
}

// New creates an expiry reaper.
func New(source SnapshotSource, deleter Deleter, server ServerClock, clock clockwork.Clock, config Config) *Reaper {
	return &Reaper{
		source:  source,
		deleter: deleter,
		server:  server,
		clock:   clock,
		config:  config,
	}
}

// Sweep partitions the current view by expiry against server time and
// issues a delete for each expired entry. Deletes are fire and forget:
// failures are logged and left for the next sweep, never retried inline.
// It returns the expired orders it attempted to delete.
func (r *Reaper) Sweep(ctx context.Context) []models.Order {
	now := r.server.ServerNow()

	var expired []models.Order
	for _, o := range r.source.Snapshot() {
		if o.Expired(now) {
			expired = append(expired, o)
		}
	}

	for _, o := range expired {
		if err := r.deleter.DeleteOrder(ctx, o.ID); err != nil {
			log.Warn().
				Err(err).
				Str("order_id", o.ID.String()).
				Int("number", o.Number).
				Msg("failed to delete expired order")
		}
	}

	if len(expired) > 0 {
		log.Info().
			Int("expired", len(expired)).
			Int64("server_now_ms", now).
			Msg("swept expired orders")
	}
	return expired
}

// Run sweeps at the configured interval until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Sweep(ctx)
		}
	}
}
