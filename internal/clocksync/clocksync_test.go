package clocksync

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTimeSource struct {
	serverTimeFn func(ctx context.Context) (int64, error)
}

func (m *mockTimeSource) ServerTime(ctx context.Context) (int64, error) {
	return m.serverTimeFn(ctx)
}

func TestOffsetZeroBeforeFirstSample(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(&mockTimeSource{}, clock, DefaultConfig())

	assert.Equal(t, int64(0), s.Offset())
	assert.Equal(t, clock.Now().UnixMilli(), s.ServerNow())
}

func TestResyncAdjustsOffset(t *testing.T) {
	clock := clockwork.NewFakeClock()
	serverAhead := int64(30_000)
	source := &mockTimeSource{
		serverTimeFn: func(ctx context.Context) (int64, error) {
			return clock.Now().UnixMilli() + serverAhead, nil
		},
	}
	s := New(source, clock, DefaultConfig())

	require.NoError(t, s.Resync(context.Background()))
	assert.Equal(t, serverAhead, s.Offset())
	assert.Equal(t, clock.Now().UnixMilli()+serverAhead, s.ServerNow())
}

func TestResyncFailureKeepsPreviousOffset(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fail := false
	source := &mockTimeSource{
		serverTimeFn: func(ctx context.Context) (int64, error) {
			if fail {
				return 0, errors.New("store unreachable")
			}
			return clock.Now().UnixMilli() - 5000, nil
		},
	}
	s := New(source, clock, DefaultConfig())

	require.NoError(t, s.Resync(context.Background()))
	require.Equal(t, int64(-5000), s.Offset())

	fail = true
	assert.Error(t, s.Resync(context.Background()))
	assert.Equal(t, int64(-5000), s.Offset())
}
