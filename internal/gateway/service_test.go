package gateway

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readylabs/readyboard/internal/feed"
	"github.com/readylabs/readyboard/internal/highlight"
	"github.com/readylabs/readyboard/internal/models"
	"github.com/readylabs/readyboard/internal/store"
)

type staticLister struct {
	orders []models.Order
}

func (l *staticLister) ListOrders(ctx context.Context, roomID string) ([]models.Order, error) {
	return l.orders, nil
}

func newTestGateway(t *testing.T, lister *staticLister) (*Service, *feed.Feed, *feed.Detector) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	f := feed.New(lister, "lobby", clock, feed.DefaultConfig())
	detector := feed.NewDetector(f.IsReady)

	pref, err := highlight.LoadSoundPreference(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	tracker := highlight.NewTracker(clock, highlight.DefaultConfig(), pref, nil)

	return NewService(DefaultConfig(), "lobby", f, detector, tracker, pref), f, detector
}

func drainEvent(t *testing.T, s *Service) *BoardEvent {
	t.Helper()
	select {
	case msg := <-s.connectionManager.broadcastCh:
		return msg.event
	default:
		t.Fatal("expected a broadcast event")
		return nil
	}
}

func TestArrivalMarksHighlightAndBroadcasts(t *testing.T) {
	s, f, detector := newTestGateway(t, &staticLister{})
	require.NoError(t, f.Refresh(context.Background()))
	drainEvent(t, s) // board snapshot from the refresh

	order := models.Order{ID: uuid.New(), RoomID: "lobby", Number: 42}
	detector.Observe(store.OrderAddedEvent{Order: order})

	assert.True(t, s.tracker.Active(order.ID))

	event := drainEvent(t, s)
	assert.Equal(t, EventTypeOrderAdded, event.Type)

	var payload OrderAddedPayload
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, order.ID, payload.Order.ID)
	assert.True(t, payload.Sound)
}

func TestSnapshotBroadcastsBoard(t *testing.T) {
	lister := &staticLister{orders: []models.Order{
		{ID: uuid.New(), Number: 7, CreatedAt: 100},
	}}
	s, f, _ := newTestGateway(t, lister)

	require.NoError(t, f.Refresh(context.Background()))

	event := drainEvent(t, s)
	assert.Equal(t, EventTypeBoard, event.Type)

	var payload BoardPayload
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	require.Len(t, payload.Orders, 1)
	assert.Equal(t, 7, payload.Orders[0].Number)
}

func TestAttachEventsCarryCurrentBoard(t *testing.T) {
	lister := &staticLister{orders: []models.Order{
		{ID: uuid.New(), Number: 3},
	}}
	s, f, _ := newTestGateway(t, lister)
	require.NoError(t, f.Refresh(context.Background()))

	events := s.attachEvents("lobby")
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeBoard, events[0].Type)
}

func TestBroadcastToEmptyRoomDoesNotBlock(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	for i := 0; i < 300; i++ {
		event, err := newEvent("lobby", EventTypeBoard, BoardPayload{})
		require.NoError(t, err)
		cm.Broadcast("lobby", event)
	}
	// Channel capacity exceeded: surplus events are dropped, not blocked on.
	assert.Equal(t, 256, len(cm.broadcastCh))
}

func TestStatsEmpty(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	stats := cm.Stats()
	assert.Equal(t, 0, stats["total_connections"])
	assert.Equal(t, 0, stats["active_rooms"])
}
