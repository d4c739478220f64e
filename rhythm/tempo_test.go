package rhythm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempoInterval(t *testing.T) {
	t.Parallel()

	tc, err := NewTempoConfig(60)
	require.NoError(t, err)
	assert.Equal(t, 1.0, tc.IntervalSeconds())
	assert.Equal(t, time.Second, tc.Interval())

	tc, err = NewTempoConfig(120)
	require.NoError(t, err)
	assert.Equal(t, 500.0, tc.IntervalMilliseconds())
	assert.Equal(t, 500*time.Millisecond, tc.Interval())
}

func TestTempoValidationBoundaries(t *testing.T) {
	t.Parallel()

	var verr *ValidationError

	_, err := NewTempoConfig(10)
	require.ErrorAs(t, err, &verr)

	_, err = NewTempoConfig(500)
	require.ErrorAs(t, err, &verr)

	// the range is inclusive on both ends
	_, err = NewTempoConfig(MinBPM)
	require.NoError(t, err)

	_, err = NewTempoConfig(MaxBPM)
	require.NoError(t, err)
}

func TestAdjustBPMClamps(t *testing.T) {
	t.Parallel()

	tc, err := NewTempoConfig(120)
	require.NoError(t, err)

	assert.Equal(t, MaxBPM, tc.AdjustBPM(10000).BPM)
	assert.Equal(t, MinBPM, tc.AdjustBPM(-10000).BPM)
	assert.Equal(t, 125, tc.AdjustBPM(5).BPM)

	// clamping is idempotent
	assert.Equal(t, MaxBPM, tc.AdjustBPM(10000).AdjustBPM(10000).BPM)
}

func TestTempoFromMarking(t *testing.T) {
	t.Parallel()

	tc, err := TempoFromMarking("Andante")
	require.NoError(t, err)
	assert.Equal(t, "Andante", tc.Name)
	assert.GreaterOrEqual(t, tc.BPM, 73)
	assert.LessOrEqual(t, tc.BPM, 77)

	_, err = TempoFromMarking("Ludicrous")
	require.ErrorIs(t, err, ErrUnknownMarking)
}

func TestMarkingLookupFirstMatchWins(t *testing.T) {
	t.Parallel()

	// 45-60 BPM is covered by both Largo and Lento; Largo is declared first
	tc, err := NewTempoConfig(50)
	require.NoError(t, err)

	marking, ok := tc.Marking()
	require.True(t, ok)
	assert.Equal(t, "Largo", marking)

	// well outside every range
	tc, err = NewTempoConfig(350)
	require.NoError(t, err)
	_, ok = tc.Marking()
	assert.False(t, ok)
}

func TestTempoMarkingsOrder(t *testing.T) {
	t.Parallel()

	names := TempoMarkings()
	require.Len(t, names, 11)
	assert.Equal(t, "Grave", names[0])
	assert.Equal(t, "Prestissimo", names[len(names)-1])
}

func TestTempoString(t *testing.T) {
	t.Parallel()

	tc, err := TempoFromMarking("Allegro")
	require.NoError(t, err)
	assert.Equal(t, "Allegro (120 BPM)", tc.String())

	tc, err = NewTempoConfig(90)
	require.NoError(t, err)
	assert.Equal(t, "90 BPM (Moderato)", tc.String())

	tc, err = NewTempoConfig(350)
	require.NoError(t, err)
	assert.Equal(t, "350 BPM", tc.String())
}
