package rhythm

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// BeatType classifies a single click within a measure.
type BeatType int

const (
	// BeatAccent is an emphasised beat, typically the downbeat.
	BeatAccent BeatType = iota
	// BeatNormal is a regular, unaccented beat.
	BeatNormal
	// BeatSubdivision is a click that falls between beats.
	BeatSubdivision
)

func (bt BeatType) String() string {
	switch bt {
	case BeatAccent:
		return "accent"
	case BeatNormal:
		return "normal"
	case BeatSubdivision:
		return "subdivision"
	}
	return fmt.Sprintf("BeatType(%d)", int(bt))
}

const (
	// MinSubdivisions is the coarsest click grid: one click per beat.
	MinSubdivisions = 1
	// MaxSubdivisions is the finest click grid: four clicks per beat.
	MaxSubdivisions = 4
)

// BeatPattern decides which clicks in a measure are accents, plain beats or
// subdivisions. The accent mask always has exactly one entry per beat.
type BeatPattern struct {
	timeSignature TimeSignature
	subdivisions  int
	accents       []bool
}

// NewBeatPattern builds a pattern for the given time signature with one click
// per beat and the default accents for that meter.
func NewBeatPattern(ts TimeSignature) *BeatPattern {
	return &BeatPattern{
		timeSignature: ts,
		subdivisions:  MinSubdivisions,
		accents:       defaultAccents(ts),
	}
}

// defaultAccents accents the downbeat, or every third beat in compound meter.
func defaultAccents(ts TimeSignature) []bool {
	accents := make([]bool, ts.BeatsPerMeasure)
	if ts.IsCompound() {
		for i := range accents {
			accents[i] = i%3 == 0
		}
		return accents
	}
	accents[0] = true
	return accents
}

// TimeSignature returns the pattern's time signature.
func (p *BeatPattern) TimeSignature() TimeSignature {
	return p.timeSignature
}

// Subdivisions returns the number of clicks per beat.
func (p *BeatPattern) Subdivisions() int {
	return p.subdivisions
}

// SetSubdivisions changes the number of clicks per beat.
func (p *BeatPattern) SetSubdivisions(n int) error {
	if n < MinSubdivisions || n > MaxSubdivisions {
		return validationErrorf("subdivisions must be between %d and %d, got %d", MinSubdivisions, MaxSubdivisions, n)
	}
	p.subdivisions = n
	return nil
}

// TotalClicksPerMeasure returns how many clicks make up one full measure.
func (p *BeatPattern) TotalClicksPerMeasure() int {
	return p.timeSignature.BeatsPerMeasure * p.subdivisions
}

// BeatTypeAt classifies the click at the given zero-based index within the
// measure.
func (p *BeatPattern) BeatTypeAt(click int) (BeatType, error) {
	if click < 0 || click >= p.TotalClicksPerMeasure() {
		return BeatNormal, ErrClickOutOfRange
	}

	if click%p.subdivisions != 0 {
		return BeatSubdivision, nil
	}

	beat := click / p.subdivisions
	if p.accents[beat] {
		return BeatAccent, nil
	}
	return BeatNormal, nil
}

// SetCustomAccents replaces the accent mask. The mask must have one entry per
// beat in the measure; on failure the existing mask is kept.
func (p *BeatPattern) SetCustomAccents(accents []bool) error {
	if len(accents) != p.timeSignature.BeatsPerMeasure {
		return validationErrorf("accent mask length must match beats per measure (%d), got %d",
			p.timeSignature.BeatsPerMeasure, len(accents))
	}
	p.accents = slices.Clone(accents)
	return nil
}

// Accents returns a copy of the accent mask.
func (p *BeatPattern) Accents() []bool {
	return slices.Clone(p.accents)
}

// Clone returns an independent copy of the pattern.
func (p *BeatPattern) Clone() *BeatPattern {
	return &BeatPattern{
		timeSignature: p.timeSignature,
		subdivisions:  p.subdivisions,
		accents:       slices.Clone(p.accents),
	}
}

func (p *BeatPattern) String() string {
	return fmt.Sprintf("%s x%d", p.timeSignature, p.subdivisions)
}
