package clocksync

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ServerTimeSource provides the remote store's authoritative clock as
// epoch milliseconds.
type ServerTimeSource interface {
	ServerTime(ctx context.Context) (int64, error)
}

// Config holds configuration for clock synchronization.
type Config struct {
	ResyncInterval time.Duration
	SampleTimeout  time.Duration
}

// DefaultConfig returns default clock sync configuration.
func DefaultConfig() Config {
	return Config{
		ResyncInterval: time.Minute,
		SampleTimeout:  5 * time.Second,
	}
}

// Sync tracks the offset between the local clock and the remote store's
// clock so TTL comparisons are correct across devices. Until the first
// sample succeeds the offset is zero and ServerNow falls back to the
// local clock.
type Sync struct {
	source ServerTimeSource
	clock  clockwork.Clock
	config Config

	mu     sync.RWMutex
	offset int64 // server minus local, milliseconds
}

// New creates a clock sync against the given server time source.
func New(source ServerTimeSource, clock clockwork.Clock, config Config) *Sync {
	return &Sync{
		source: source,
		clock:  clock,
		config: config,
	}
}

// ServerNow returns the current server time estimate in epoch milliseconds.
func (s *Sync) ServerNow() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock.Now().UnixMilli() + s.offset
}

// Offset returns the current server-minus-local offset in milliseconds.
func (s *Sync) Offset() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

// Resync takes one offset sample immediately. The sample is adjusted by
// half the round trip so the server reading is compared against the local
// clock at the moment the server produced it.
func (s *Sync) Resync(ctx context.Context) error {
	sampleCtx, cancel := context.WithTimeout(ctx, s.config.SampleTimeout)
	defer cancel()

	before := s.clock.Now()
	serverMs, err := s.source.ServerTime(sampleCtx)
	if err != nil {
		return err
	}
	rtt := s.clock.Now().Sub(before)
	local := before.Add(rtt / 2).UnixMilli()

	s.mu.Lock()
	s.offset = serverMs - local
	offset := s.offset
	s.mu.Unlock()

	log.Debug().
		Int64("offset_ms", offset).
		Dur("rtt", rtt).
		Msg("clock offset updated")
	return nil
}

// Run samples once at start and then on every resync tick until the
// context is cancelled. Failed samples keep the previous offset; the next
// tick retries, nothing else does.
func (s *Sync) Run(ctx context.Context) {
	if err := s.Resync(ctx); err != nil {
		log.Warn().Err(err).Msg("initial clock sample failed, using local clock")
	}

	ticker := s.clock.NewTicker(s.config.ResyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.Resync(ctx); err != nil {
				log.Warn().Err(err).Msg("clock resync failed")
			}
		}
	}
}
