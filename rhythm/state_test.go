package rhythm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateInitial(t *testing.T) {
	t.Parallel()

	var s State
	assert.True(t, s.IsStopped())
	assert.Equal(t, 0, s.CurrentBeat)
	assert.Equal(t, 0, s.CurrentMeasure)
	assert.Nil(t, s.SessionStart)
	assert.Nil(t, s.LastBeat)
}

func TestStateMeasureRollover(t *testing.T) {
	t.Parallel()

	var s State
	now := time.Now()
	s.Start(now)

	for i := 0; i < 4; i++ {
		s.AdvanceBeat(4, now.Add(time.Duration(i)*time.Second))
	}

	assert.Equal(t, 0, s.CurrentBeat)
	assert.Equal(t, 1, s.CurrentMeasure)
	assert.Equal(t, 4, s.TotalBeatsPlayed)
}

func TestStateStopResets(t *testing.T) {
	t.Parallel()

	var s State
	now := time.Now()
	s.Start(now)
	s.AdvanceBeat(4, now)
	s.AdvanceBeat(4, now)

	s.Stop()

	assert.True(t, s.IsStopped())
	assert.Equal(t, 0, s.CurrentBeat)
	assert.Equal(t, 0, s.CurrentMeasure)
	assert.Nil(t, s.SessionStart)
	assert.Nil(t, s.LastBeat)
}

func TestStatePauseResumePreservesPosition(t *testing.T) {
	t.Parallel()

	var s State
	now := time.Now()
	s.Start(now)
	s.AdvanceBeat(3, now)
	s.AdvanceBeat(3, now)
	sessionStart := *s.SessionStart

	s.Pause()
	assert.True(t, s.IsPaused())
	assert.Equal(t, 2, s.CurrentBeat)

	s.Resume(now.Add(time.Minute))
	assert.True(t, s.IsPlaying())
	assert.Equal(t, 2, s.CurrentBeat)
	assert.Equal(t, 0, s.CurrentMeasure)

	// session start survives a pause/resume cycle
	require.NotNil(t, s.SessionStart)
	assert.Equal(t, sessionStart, *s.SessionStart)
}

func TestStateGuardedTransitions(t *testing.T) {
	t.Parallel()

	var s State
	now := time.Now()

	// pause while stopped does nothing
	s.Pause()
	assert.True(t, s.IsStopped())

	// resume while playing does nothing
	s.Start(now)
	s.Resume(now)
	assert.True(t, s.IsPlaying())

	// stop always resets, even from paused
	s.Pause()
	s.Stop()
	assert.True(t, s.IsStopped())
}

func TestStateStartPreservesExistingSession(t *testing.T) {
	t.Parallel()

	var s State
	first := time.Now()
	s.Start(first)
	s.Pause()

	s.Start(first.Add(time.Hour))
	require.NotNil(t, s.SessionStart)
	assert.Equal(t, first, *s.SessionStart)
}

func TestStateSessionDuration(t *testing.T) {
	t.Parallel()

	var s State
	_, ok := s.SessionDuration(time.Now())
	assert.False(t, ok)

	now := time.Now()
	s.Start(now)
	d, ok := s.SessionDuration(now.Add(90 * time.Second))
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, d)
}

func TestStateSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	var s State
	now := time.Now()
	s.Start(now)

	snap := s.Snapshot()
	s.AdvanceBeat(4, now.Add(time.Second))
	s.Stop()

	assert.Equal(t, StatusPlaying, snap.Status)
	require.NotNil(t, snap.SessionStart)
	assert.Equal(t, now, *snap.SessionStart)
}
