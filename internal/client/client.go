package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/clocksync"
	"github.com/readylabs/readyboard/internal/feed"
	"github.com/readylabs/readyboard/internal/store"
)

// Config holds everything one client needs to join a room.
type Config struct {
	RoomID      string
	DatabaseURL string
	Bus         store.EventBusConfig
	Feed        feed.Config
	Clock       clocksync.Config
}

// Client is one subscribed participant of a room: the remote store
// connection pair (Postgres + event bus), the synced clock, the live
// order feed and the arrival detector. Both the controller and the
// display daemons are built on top of it.
type Client struct {
	Pool     *pgxpool.Pool
	Repo     *store.Repository
	Bus      *store.EventBus
	Clock    *clocksync.Sync
	Feed     *feed.Feed
	Detector *feed.Detector

	subs []*nats.Subscription
}

// Connect joins a room: connects both legs of the remote store, ensures
// the schema, and wires the feed and arrival detector to the event bus.
// Nothing starts running until Start.
func Connect(ctx context.Context, clock clockwork.Clock, cfg Config) (*Client, error) {
	if cfg.RoomID == "" {
		return nil, errors.New("room id must not be empty")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	bus, err := store.NewEventBus(cfg.Bus)
	if err != nil {
		pool.Close()
		return nil, err
	}

	repo := store.NewRepository(pool)
	sync := clocksync.New(repo, clock, cfg.Clock)
	f := feed.New(repo, cfg.RoomID, clock, cfg.Feed)
	detector := feed.NewDetector(f.IsReady)

	c := &Client{
		Pool:     pool,
		Repo:     repo,
		Bus:      bus,
		Clock:    sync,
		Feed:     f,
		Detector: detector,
	}

	// A reconnect means an unknown gap: refresh the snapshot and take a
	// fresh clock sample right away instead of waiting for the tickers.
	bus.OnStatusChange(func(connected bool) {
		log.Info().Bool("connected", connected).Str("room_id", cfg.RoomID).Msg("store connectivity changed")
		if connected {
			f.Nudge()
			go func() {
				if err := sync.Resync(context.Background()); err != nil {
					log.Warn().Err(err).Msg("clock resync after reconnect failed")
				}
			}()
		}
	})

	changedSub, err := bus.SubscribeChanged(cfg.RoomID, f.Nudge)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.subs = append(c.subs, changedSub)

	addedSub, err := bus.SubscribeAdded(cfg.RoomID, func(event store.OrderAddedEvent) {
		f.RecordAdded(event)
		detector.Observe(event)
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	c.subs = append(c.subs, addedSub)

	return c, nil
}

// Start launches the clock sync and feed loops. They stop when ctx is
// cancelled.
func (c *Client) Start(ctx context.Context) {
	go c.Clock.Run(ctx)
	go c.Feed.Run(ctx)
}

// Connected reports the remote store's connectivity status.
func (c *Client) Connected() bool {
	return c.Bus.Connected()
}

// Close tears down subscriptions and both store connections.
func (c *Client) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe")
		}
	}
	c.Bus.Close()
	c.Pool.Close()
}
