package rhythm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TimeSignature is an immutable musical time signature: how many beats make
// up a measure and which note value carries one beat.
type TimeSignature struct {
	BeatsPerMeasure int
	BeatUnit        int
}

var validBeatUnits = []int{1, 2, 4, 8, 16}

// CommonSignatures lists the time signatures a shell typically offers.
var CommonSignatures = []TimeSignature{
	{4, 4},
	{3, 4},
	{6, 8},
	{2, 4},
	{5, 4},
	{7, 8},
	{12, 8},
}

// NewTimeSignature validates and builds a time signature.
func NewTimeSignature(beatsPerMeasure, beatUnit int) (TimeSignature, error) {
	if beatsPerMeasure < 1 {
		return TimeSignature{}, validationErrorf("beats per measure must be at least 1, got %d", beatsPerMeasure)
	}
	valid := false
	for _, u := range validBeatUnits {
		if beatUnit == u {
			valid = true
			break
		}
	}
	if !valid {
		return TimeSignature{}, validationErrorf("beat unit must be one of %v, got %d", validBeatUnits, beatUnit)
	}
	return TimeSignature{BeatsPerMeasure: beatsPerMeasure, BeatUnit: beatUnit}, nil
}

// ParseTimeSignature parses the canonical "N/M" form, e.g. "4/4" or "6/8".
func ParseTimeSignature(s string) (TimeSignature, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return TimeSignature{}, validationErrorf("invalid time signature format: %q", s)
	}

	beats, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeSignature{}, errors.Wrapf(err, "invalid time signature %q", s)
	}
	unit, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return TimeSignature{}, errors.Wrapf(err, "invalid time signature %q", s)
	}

	return NewTimeSignature(beats, unit)
}

// IsCompound reports whether the signature is a compound meter (6/8, 9/8,
// 12/8, ...), which groups beats in threes.
func (ts TimeSignature) IsCompound() bool {
	return ts.BeatUnit == 8 && ts.BeatsPerMeasure%3 == 0
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.BeatsPerMeasure, ts.BeatUnit)
}
