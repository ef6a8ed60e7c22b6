package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/feed"
	"github.com/readylabs/readyboard/internal/highlight"
	"github.com/readylabs/readyboard/internal/models"
)

// Service fans the room's order state out to attached displays: full board
// snapshots on every change, plus arrival and highlight-expiry events.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler

	roomID  string
	feed    *feed.Feed
	tracker *highlight.Tracker
	pref    *highlight.SoundPreference
}

// Config holds configuration for the display gateway.
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default gateway configuration.
func DefaultConfig() Config {
	return Config{ConnectionConfig: DefaultConnectionConfig()}
}

// NewService builds the gateway and hooks it into the feed, arrival
// detector and highlight tracker. Handlers go through the components'
// swappable handler slots, so the wiring here never resubscribes anything.
func NewService(config Config, roomID string, f *feed.Feed, detector *feed.Detector, tracker *highlight.Tracker, pref *highlight.SoundPreference) *Service {
	cm := NewConnectionManager(config.ConnectionConfig)

	s := &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		roomID:            roomID,
		feed:              f,
		tracker:           tracker,
		pref:              pref,
	}

	f.SetSnapshotHandler(s.broadcastBoard)
	detector.SetArrivalHandler(s.handleArrival)
	tracker.SetExpireHandler(s.handleHighlightExpired)
	cm.SetAttachHandler(s.attachEvents)

	return s
}

// Start runs the gateway until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Info().Str("room_id", s.roomID).Msg("display gateway started")
	s.connectionManager.Start(ctx)
}

// RegisterRoutes registers the gateway's HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
}

func (s *Service) broadcastBoard(orders []models.Order) {
	event, err := newEvent(s.roomID, EventTypeBoard, BoardPayload{
		Orders:      orders,
		Highlighted: s.tracker.ActiveIDs(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build board event")
		return
	}
	s.connectionManager.Broadcast(s.roomID, event)
}

// handleArrival is the genuine-arrival hook: it marks the highlight (which
// plays the local cue) and tells displays, carrying the sound toggle so
// browser displays know whether to chime.
func (s *Service) handleArrival(order models.Order) {
	s.tracker.Mark(order.ID)

	event, err := newEvent(s.roomID, EventTypeOrderAdded, OrderAddedPayload{
		Order: order,
		Sound: s.pref.Enabled(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build order added event")
		return
	}
	s.connectionManager.Broadcast(s.roomID, event)
}

func (s *Service) handleHighlightExpired(id uuid.UUID) {
	event, err := newEvent(s.roomID, EventTypeHighlightExpired, HighlightExpiredPayload{OrderID: id})
	if err != nil {
		log.Error().Err(err).Msg("failed to build highlight expired event")
		return
	}
	s.connectionManager.Broadcast(s.roomID, event)
}

// attachEvents produces the catch-up sent to a freshly attached display:
// the current board exactly as this client sees it.
func (s *Service) attachEvents(roomID string) []*BoardEvent {
	event, err := newEvent(roomID, EventTypeBoard, BoardPayload{
		Orders:      s.feed.Snapshot(),
		Highlighted: s.tracker.ActiveIDs(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build attach board event")
		return nil
	}
	return []*BoardEvent{event}
}
