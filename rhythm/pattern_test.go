package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSignature(t *testing.T, s string) TimeSignature {
	t.Helper()
	ts, err := ParseTimeSignature(s)
	require.NoError(t, err)
	return ts
}

func TestDefaultAccentsSimpleMeter(t *testing.T) {
	t.Parallel()

	p := NewBeatPattern(mustSignature(t, "4/4"))

	bt, err := p.BeatTypeAt(0)
	require.NoError(t, err)
	assert.Equal(t, BeatAccent, bt)

	for _, click := range []int{1, 2, 3} {
		bt, err := p.BeatTypeAt(click)
		require.NoError(t, err)
		assert.Equal(t, BeatNormal, bt, "click %d", click)
	}
}

func TestDefaultAccentsCompoundMeter(t *testing.T) {
	t.Parallel()

	p := NewBeatPattern(mustSignature(t, "6/8"))

	want := map[int]BeatType{
		0: BeatAccent,
		1: BeatNormal,
		2: BeatNormal,
		3: BeatAccent,
		4: BeatNormal,
		5: BeatNormal,
	}
	for click, expected := range want {
		bt, err := p.BeatTypeAt(click)
		require.NoError(t, err)
		assert.Equal(t, expected, bt, "click %d", click)
	}
}

func TestSubdivisions(t *testing.T) {
	t.Parallel()

	p := NewBeatPattern(mustSignature(t, "4/4"))
	require.NoError(t, p.SetSubdivisions(2))

	assert.Equal(t, 8, p.TotalClicksPerMeasure())

	// click 1 is off the beat grid, click 2 is beat index 1
	bt, err := p.BeatTypeAt(1)
	require.NoError(t, err)
	assert.Equal(t, BeatSubdivision, bt)

	bt, err = p.BeatTypeAt(2)
	require.NoError(t, err)
	assert.Equal(t, BeatNormal, bt)

	bt, err = p.BeatTypeAt(0)
	require.NoError(t, err)
	assert.Equal(t, BeatAccent, bt)
}

func TestSetSubdivisionsValidation(t *testing.T) {
	t.Parallel()

	p := NewBeatPattern(mustSignature(t, "4/4"))

	var verr *ValidationError
	require.ErrorAs(t, p.SetSubdivisions(0), &verr)
	require.ErrorAs(t, p.SetSubdivisions(5), &verr)

	// failed calls leave the grid unchanged
	assert.Equal(t, 1, p.Subdivisions())

	require.NoError(t, p.SetSubdivisions(4))
	assert.Equal(t, 16, p.TotalClicksPerMeasure())
}

func TestBeatTypeAtOutOfRange(t *testing.T) {
	t.Parallel()

	p := NewBeatPattern(mustSignature(t, "3/4"))

	_, err := p.BeatTypeAt(-1)
	require.ErrorIs(t, err, ErrClickOutOfRange)

	_, err = p.BeatTypeAt(3)
	require.ErrorIs(t, err, ErrClickOutOfRange)

	_, err = p.BeatTypeAt(2)
	require.NoError(t, err)
}

func TestSetCustomAccents(t *testing.T) {
	t.Parallel()

	p := NewBeatPattern(mustSignature(t, "4/4"))

	var verr *ValidationError
	require.ErrorAs(t, p.SetCustomAccents([]bool{true, false}), &verr)

	// rejected mask leaves the default accents in place
	assert.Equal(t, []bool{true, false, false, false}, p.Accents())

	mask := []bool{true, false, true, false}
	require.NoError(t, p.SetCustomAccents(mask))

	bt, err := p.BeatTypeAt(2)
	require.NoError(t, err)
	assert.Equal(t, BeatAccent, bt)

	// the pattern keeps its own copy of the mask
	mask[2] = false
	bt, err = p.BeatTypeAt(2)
	require.NoError(t, err)
	assert.Equal(t, BeatAccent, bt)
}

func TestPatternClone(t *testing.T) {
	t.Parallel()

	p := NewBeatPattern(mustSignature(t, "4/4"))
	require.NoError(t, p.SetSubdivisions(2))

	c := p.Clone()
	require.NoError(t, c.SetCustomAccents([]bool{false, true, false, true}))

	bt, err := p.BeatTypeAt(0)
	require.NoError(t, err)
	assert.Equal(t, BeatAccent, bt, "clone mutation leaked into the original")
}
