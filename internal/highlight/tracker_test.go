package highlight

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSounder struct {
	plays int
}

func (s *countingSounder) Play() { s.plays++ }

func newTestTracker(t *testing.T, enabled bool) (*Tracker, *clockwork.FakeClock, *countingSounder) {
	t.Helper()
	pref, err := LoadSoundPreference(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	require.NoError(t, pref.SetEnabled(enabled))

	clock := clockwork.NewFakeClock()
	sounder := &countingSounder{}
	return NewTracker(clock, DefaultConfig(), pref, sounder), clock, sounder
}

func TestMarkHighlightsForFiveSeconds(t *testing.T) {
	tracker, clock, _ := newTestTracker(t, true)
	id := uuid.New()

	tracker.Mark(id)
	assert.True(t, tracker.Active(id))

	// Just short of the window: a sweep must keep it.
	clock.Advance(4900 * time.Millisecond)
	assert.Empty(t, tracker.Sweep())
	assert.True(t, tracker.Active(id))

	// Past the window: the next sweep removes it.
	clock.Advance(100 * time.Millisecond)
	expired := tracker.Sweep()
	require.Len(t, expired, 1)
	assert.Equal(t, id, expired[0])
	assert.False(t, tracker.Active(id))
}

func TestSweepInvokesExpireHandlerOncePerEntry(t *testing.T) {
	tracker, clock, _ := newTestTracker(t, true)
	id := uuid.New()

	var lapsed []uuid.UUID
	tracker.SetExpireHandler(func(id uuid.UUID) { lapsed = append(lapsed, id) })

	tracker.Mark(id)
	clock.Advance(5 * time.Second)
	tracker.Sweep()
	tracker.Sweep()

	assert.Equal(t, []uuid.UUID{id}, lapsed)
}

func TestSoundPlaysOncePerArrival(t *testing.T) {
	tracker, _, sounder := newTestTracker(t, true)

	tracker.Mark(uuid.New())
	tracker.Mark(uuid.New())

	assert.Equal(t, 2, sounder.plays)
}

func TestSoundMutedWhenDisabled(t *testing.T) {
	tracker, _, sounder := newTestTracker(t, false)

	tracker.Mark(uuid.New())

	assert.Equal(t, 0, sounder.plays)
	assert.True(t, tracker.Active(tracker.ActiveIDs()[0]), "highlight still applies with sound off")
}
