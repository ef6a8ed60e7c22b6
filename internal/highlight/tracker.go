package highlight

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sounder plays the audio cue for a genuine arrival.
type Sounder interface {
	Play()
}

// Config holds configuration for highlight tracking.
type Config struct {
	// Duration is how long an entry stays highlighted.
	Duration time.Duration
	// SweepInterval is the cadence of the expiry sweep.
	SweepInterval time.Duration
}

// DefaultConfig returns default highlight configuration.
func DefaultConfig() Config {
	return Config{
		Duration:      5 * time.Second,
		SweepInterval: time.Second,
	}
}

// Tracker maintains the ephemeral highlighted state per order, independent
// of the order's own TTL. Highlight state is client-local and never
// written back to the remote store; each display decides for itself what
// it has already seen.
type Tracker struct {
	clock   clockwork.Clock
	config  Config
	pref    *SoundPreference
	sounder Sounder

	mu       sync.Mutex
	expiries map[uuid.UUID]time.Time
	onExpire func(id uuid.UUID)
}

// NewTracker creates a highlight tracker.
func NewTracker(clock clockwork.Clock, config Config, pref *SoundPreference, sounder Sounder) *Tracker {
	return &Tracker{
		clock:    clock,
		config:   config,
		pref:     pref,
		sounder:  sounder,
		expiries: make(map[uuid.UUID]time.Time),
	}
}

// SetExpireHandler registers a handler invoked once per entry when its
// highlight lapses.
func (t *Tracker) SetExpireHandler(fn func(id uuid.UUID)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Mark highlights an order for the configured duration and plays the audio
// cue if sound is enabled. Called once per genuine arrival.
func (t *Tracker) Mark(id uuid.UUID) {
	t.mu.Lock()
	t.expiries[id] = t.clock.Now().Add(t.config.Duration)
	t.mu.Unlock()

	if t.pref.Enabled() && t.sounder != nil {
		t.sounder.Play()
	}
}

// Active reports whether the order is currently highlighted.
func (t *Tracker) Active(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.expiries[id]
	return ok
}

// ActiveIDs returns the IDs of all currently highlighted orders.
func (t *Tracker) ActiveIDs() []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(t.expiries))
	for id := range t.expiries {
		ids = append(ids, id)
	}
	return ids
}

// Sweep removes entries whose highlight window has passed and returns
// them, invoking the expire handler for each.
func (t *Tracker) Sweep() []uuid.UUID {
	now := t.clock.Now()

	t.mu.Lock()
	var expired []uuid.UUID
	for id, deadline := range t.expiries {
		if !deadline.After(now) {
			expired = append(expired, id)
			delete(t.expiries, id)
		}
	}
	onExpire := t.onExpire
	t.mu.Unlock()

	if onExpire != nil {
		for _, id := range expired {
			onExpire(id)
		}
	}
	return expired
}

// Run sweeps at the configured interval until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if expired := t.Sweep(); len(expired) > 0 {
				log.Debug().Int("expired", len(expired)).Msg("highlights lapsed")
			}
		}
	}
}
