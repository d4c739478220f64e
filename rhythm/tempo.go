package rhythm

import (
	"fmt"
	"time"

	"github.com/mkral/taktell/utils"
)

const (
	// MinBPM is the slowest supported tempo.
	MinBPM = 20
	// MaxBPM is the fastest supported tempo.
	MaxBPM = 400
	// DefaultBPM is the tempo a fresh engine starts with.
	DefaultBPM = 120
)

// TempoConfig is an immutable tempo: a validated BPM plus an optional name.
// Changing tempo means constructing a new value.
type TempoConfig struct {
	BPM  int
	Name string
}

type tempoMarking struct {
	name   string
	minBPM int
	maxBPM int
}

// Some marking ranges overlap (Largo/Lento, Adagio/Largo). Lookups take the
// first match in table order, so the order here is load-bearing.
var tempoMarkings = []tempoMarking{
	{"Grave", 25, 45},
	{"Largo", 40, 60},
	{"Lento", 45, 60},
	{"Adagio", 55, 65},
	{"Andante", 73, 77},
	{"Moderato", 86, 97},
	{"Allegretto", 98, 109},
	{"Allegro", 109, 132},
	{"Vivace", 132, 140},
	{"Presto", 168, 177},
	{"Prestissimo", 178, 240},
}

// NewTempoConfig validates and builds a tempo.
func NewTempoConfig(bpm int) (TempoConfig, error) {
	if bpm < MinBPM || bpm > MaxBPM {
		return TempoConfig{}, validationErrorf("BPM must be between %d and %d, got %d", MinBPM, MaxBPM, bpm)
	}
	return TempoConfig{BPM: bpm}, nil
}

// TempoFromMarking builds a tempo from an Italian tempo marking, using the
// midpoint of the marking's BPM range.
func TempoFromMarking(name string) (TempoConfig, error) {
	for _, m := range tempoMarkings {
		if m.name == name {
			return TempoConfig{BPM: (m.minBPM + m.maxBPM) / 2, Name: m.name}, nil
		}
	}
	return TempoConfig{}, ErrUnknownMarking
}

// TempoMarkings returns the marking names in table order.
func TempoMarkings() []string {
	names := make([]string, 0, len(tempoMarkings))
	for _, m := range tempoMarkings {
		names = append(names, m.name)
	}
	return names
}

// Interval returns the time between beats.
func (tc TempoConfig) Interval() time.Duration {
	return time.Duration(float64(time.Minute) / float64(tc.BPM))
}

// IntervalSeconds returns the time between beats in seconds.
func (tc TempoConfig) IntervalSeconds() float64 {
	return 60.0 / float64(tc.BPM)
}

// IntervalMilliseconds returns the time between beats in milliseconds.
func (tc TempoConfig) IntervalMilliseconds() float64 {
	return tc.IntervalSeconds() * 1000
}

// Marking returns the first tempo marking whose range contains the BPM.
func (tc TempoConfig) Marking() (string, bool) {
	for _, m := range tempoMarkings {
		if tc.BPM >= m.minBPM && tc.BPM <= m.maxBPM {
			return m.name, true
		}
	}
	return "", false
}

// AdjustBPM returns a new tempo shifted by delta, clamped into the valid
// range. The name carries over.
func (tc TempoConfig) AdjustBPM(delta int) TempoConfig {
	return TempoConfig{
		BPM:  utils.Clamp(tc.BPM+delta, MinBPM, MaxBPM),
		Name: tc.Name,
	}
}

func (tc TempoConfig) String() string {
	if tc.Name != "" {
		return fmt.Sprintf("%s (%d BPM)", tc.Name, tc.BPM)
	}
	if marking, ok := tc.Marking(); ok {
		return fmt.Sprintf("%d BPM (%s)", tc.BPM, marking)
	}
	return fmt.Sprintf("%d BPM", tc.BPM)
}
