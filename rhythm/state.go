package rhythm

import (
	"fmt"
	"time"
)

// Status is the metronome's run status.
type Status int

const (
	// StatusStopped means no session is active.
	StatusStopped Status = iota
	// StatusPlaying means the timing loop is firing beats.
	StatusPlaying
	// StatusPaused means a session is suspended with its position intact.
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// State tracks the metronome's run status, position within the piece and
// session timing. It is owned exclusively by the engine; external callers see
// copies made with Snapshot. The timestamp fields are nil while no session is
// active.
type State struct {
	Status           Status
	CurrentBeat      int
	CurrentMeasure   int
	TotalBeatsPlayed int
	SessionStart     *time.Time
	LastBeat         *time.Time
}

// Start moves to playing. The session start stamp is only set if unset, so it
// survives a pause/resume cycle.
func (s *State) Start(now time.Time) {
	s.Status = StatusPlaying
	if s.SessionStart == nil {
		t := now
		s.SessionStart = &t
	}
	t := now
	s.LastBeat = &t
}

// Stop moves to stopped, resets the position and clears the session stamps.
func (s *State) Stop() {
	s.Status = StatusStopped
	s.CurrentBeat = 0
	s.CurrentMeasure = 0
	s.SessionStart = nil
	s.LastBeat = nil
}

// Pause suspends playback without touching the position. No-op unless playing.
func (s *State) Pause() {
	if s.Status == StatusPlaying {
		s.Status = StatusPaused
	}
}

// Resume continues playback from a pause. No-op unless paused.
func (s *State) Resume(now time.Time) {
	if s.Status == StatusPaused {
		s.Status = StatusPlaying
		t := now
		s.LastBeat = &t
	}
}

// AdvanceBeat moves to the next beat, rolling into the next measure on
// wraparound.
func (s *State) AdvanceBeat(beatsPerMeasure int, now time.Time) {
	s.CurrentBeat = (s.CurrentBeat + 1) % beatsPerMeasure
	if s.CurrentBeat == 0 {
		s.CurrentMeasure++
	}
	s.TotalBeatsPlayed++
	t := now
	s.LastBeat = &t
}

// ResetPosition zeroes the beat and measure counters without stopping.
func (s *State) ResetPosition() {
	s.CurrentBeat = 0
	s.CurrentMeasure = 0
}

// IsPlaying reports whether the metronome is playing.
func (s State) IsPlaying() bool {
	return s.Status == StatusPlaying
}

// IsStopped reports whether the metronome is stopped.
func (s State) IsStopped() bool {
	return s.Status == StatusStopped
}

// IsPaused reports whether the metronome is paused.
func (s State) IsPaused() bool {
	return s.Status == StatusPaused
}

// SessionDuration returns how long the current session has been running, or
// false if no session is active.
func (s *State) SessionDuration(now time.Time) (time.Duration, bool) {
	if s.SessionStart == nil {
		return 0, false
	}
	return now.Sub(*s.SessionStart), true
}

// Snapshot returns an independent copy of the state.
func (s *State) Snapshot() State {
	out := *s
	if s.SessionStart != nil {
		t := *s.SessionStart
		out.SessionStart = &t
	}
	if s.LastBeat != nil {
		t := *s.LastBeat
		out.LastBeat = &t
	}
	return out
}

func (s *State) String() string {
	return fmt.Sprintf("%s beat=%d measure=%d", s.Status, s.CurrentBeat, s.CurrentMeasure)
}
