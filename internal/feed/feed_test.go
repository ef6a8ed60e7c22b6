package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readylabs/readyboard/internal/models"
	"github.com/readylabs/readyboard/internal/store"
)

type mockLister struct {
	listOrdersFn func(ctx context.Context, roomID string) ([]models.Order, error)
}

func (m *mockLister) ListOrders(ctx context.Context, roomID string) ([]models.Order, error) {
	return m.listOrdersFn(ctx, roomID)
}

func newTestFeed(lister *mockLister) *Feed {
	return New(lister, "lobby", clockwork.NewFakeClock(), DefaultConfig())
}

func TestRefreshSortsNewestFirstNumberDesc(t *testing.T) {
	lister := &mockLister{
		listOrdersFn: func(ctx context.Context, roomID string) ([]models.Order, error) {
			return []models.Order{
				{Number: 5, CreatedAt: 100},
				{Number: 9, CreatedAt: 300},
				{Number: 2, CreatedAt: 300},
				{Number: 1, CreatedAt: 200},
			}, nil
		},
	}
	f := newTestFeed(lister)

	require.NoError(t, f.Refresh(context.Background()))

	numbers := make([]int, 0, 4)
	for _, o := range f.Snapshot() {
		numbers = append(numbers, o.Number)
	}
	assert.Equal(t, []int{9, 2, 1, 5}, numbers)
}

func TestReadyLatchFlipsOnceEvenWhenEmpty(t *testing.T) {
	calls := 0
	lister := &mockLister{
		listOrdersFn: func(ctx context.Context, roomID string) ([]models.Order, error) {
			calls++
			return nil, nil
		},
	}
	f := newTestFeed(lister)

	assert.False(t, f.IsReady())
	select {
	case <-f.Ready():
		t.Fatal("ready latch set before first snapshot")
	default:
	}

	require.NoError(t, f.Refresh(context.Background()))
	assert.True(t, f.IsReady())

	// A second refresh must not attempt to flip (and close) again.
	require.NoError(t, f.Refresh(context.Background()))
	assert.True(t, f.IsReady())
	assert.Equal(t, 2, calls)

	select {
	case <-f.Ready():
	default:
		t.Fatal("ready channel not closed")
	}
}

func TestRefreshFailureKeepsSnapshotAndLatch(t *testing.T) {
	fail := true
	lister := &mockLister{
		listOrdersFn: func(ctx context.Context, roomID string) ([]models.Order, error) {
			if fail {
				return nil, errors.New("store unreachable")
			}
			return []models.Order{{Number: 1}}, nil
		},
	}
	f := newTestFeed(lister)

	assert.Error(t, f.Refresh(context.Background()))
	assert.False(t, f.IsReady(), "failed fetch must not flip the latch")

	fail = false
	require.NoError(t, f.Refresh(context.Background()))
	assert.True(t, f.IsReady())
	assert.Len(t, f.Snapshot(), 1)
}

func TestSnapshotHandlerSwapsWithoutResubscribe(t *testing.T) {
	lister := &mockLister{
		listOrdersFn: func(ctx context.Context, roomID string) ([]models.Order, error) {
			return nil, nil
		},
	}
	f := newTestFeed(lister)

	var got []string
	f.SetSnapshotHandler(func([]models.Order) { got = append(got, "first") })
	require.NoError(t, f.Refresh(context.Background()))

	f.SetSnapshotHandler(func([]models.Order) { got = append(got, "second") })
	require.NoError(t, f.Refresh(context.Background()))

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestRecentAddedTailIsBounded(t *testing.T) {
	f := New(&mockLister{}, "lobby", clockwork.NewFakeClock(), Config{AddedTailSize: 3})

	for i := 1; i <= 5; i++ {
		f.RecordAdded(store.OrderAddedEvent{
			Order: models.Order{ID: uuid.New(), Number: i},
		})
	}

	tail := f.RecentAdded()
	require.Len(t, tail, 3)
	for i, event := range tail {
		assert.Equal(t, i+3, event.Order.Number, fmt.Sprintf("tail[%d]", i))
	}
}

func TestNudgeCoalesces(t *testing.T) {
	f := newTestFeed(&mockLister{})

	f.Nudge()
	f.Nudge()
	f.Nudge()

	assert.Len(t, f.refreshCh, 1)
}
