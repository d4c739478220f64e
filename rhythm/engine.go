package rhythm

import (
	"sync"
	"time"

	"github.com/mkral/taktell/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"k8s.io/utils/clock"
)

// Sink renders a beat's sound. Implementations live outside the core; a
// failed render never stops the timing loop.
type Sink interface {
	Render(beatType BeatType) error
}

// BeatListener is invoked once per fired beat with the beat's zero-based
// number within the measure and its classification.
type BeatListener func(beatNumber int, beatType BeatType)

// StateListener is invoked with a state snapshot on every status transition.
type StateListener func(state State)

// ListenerID is the registration handle returned when adding a listener.
type ListenerID int64

type beatListenerEntry struct {
	id ListenerID
	fn BeatListener
}

type stateListenerEntry struct {
	id ListenerID
	fn StateListener
}

const (
	// loopJoinTimeout bounds how long Stop and Pause wait for the timing
	// loop to exit. The loop is cooperative; on a missed join it still
	// exits on its next wake.
	loopJoinTimeout = time.Second

	// driftWarnThreshold is the overrun magnitude above which the loop
	// logs a timing-drift warning.
	driftWarnThreshold = 5 * time.Millisecond
)

// Engine is the metronome scheduler. It owns the current tempo, beat pattern
// and run state, drives a background timing loop that fires beats through the
// sink, and notifies registered listeners. All fields are guarded by mu; the
// loop goroutine and callers serialize through it.
type Engine struct {
	mu   sync.Mutex
	clk  clock.Clock
	sink Sink

	tempo   TempoConfig
	pattern *BeatPattern
	state   State

	stopCh chan struct{}
	doneCh chan struct{}

	nextListenerID ListenerID
	beatListeners  []beatListenerEntry
	stateListeners []stateListenerEntry

	lastDrift time.Duration
}

// NewEngine builds an engine ticking at 120 BPM in 4/4 through the given
// sink. A nil clk falls back to the real clock.
func NewEngine(clk clock.Clock, sink Sink) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	ts, _ := NewTimeSignature(4, 4)
	return &Engine{
		clk:     clk,
		sink:    sink,
		tempo:   TempoConfig{BPM: DefaultBPM},
		pattern: NewBeatPattern(ts),
	}
}

// Start begins playback, resuming in place if the engine is paused. Starting
// while already playing is a logged no-op. Fails with ErrNoSink if the engine
// was built without an audio sink.
func (e *Engine) Start() error {
	log := logger.GetProjectLogger()

	e.mu.Lock()
	if e.state.IsPlaying() {
		e.mu.Unlock()
		log.Warn("metronome already playing")
		return nil
	}
	if e.sink == nil {
		e.mu.Unlock()
		return ErrNoSink
	}

	now := e.clk.Now()
	if e.state.IsPaused() {
		e.state.Resume(now)
		log.Info("metronome resumed")
	} else {
		e.state.Start(now)
		log.Infof("metronome started at %s", e.tempo)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	e.stopCh = stop
	e.doneCh = done

	snap := e.state.Snapshot()
	listeners := slices.Clone(e.stateListeners)
	e.mu.Unlock()

	go e.run(stop, done)

	notifyStateListeners(log, listeners, snap)
	return nil
}

// Stop halts playback, resets the position and clears the session stamps.
// Stopping while already stopped is a logged no-op.
func (e *Engine) Stop() {
	log := logger.GetProjectLogger()

	e.mu.Lock()
	if e.state.IsStopped() {
		e.mu.Unlock()
		log.Warn("metronome already stopped")
		return
	}
	e.mu.Unlock()

	e.haltLoop(log)

	e.mu.Lock()
	e.state.Stop()
	snap := e.state.Snapshot()
	listeners := slices.Clone(e.stateListeners)
	e.mu.Unlock()

	log.Info("metronome stopped")
	notifyStateListeners(log, listeners, snap)
}

// Pause suspends playback, keeping the beat and measure position. Pausing
// while not playing is a logged no-op.
func (e *Engine) Pause() {
	log := logger.GetProjectLogger()

	e.mu.Lock()
	if !e.state.IsPlaying() {
		e.mu.Unlock()
		log.Warn("cannot pause - metronome not playing")
		return
	}
	e.mu.Unlock()

	e.haltLoop(log)

	e.mu.Lock()
	e.state.Pause()
	snap := e.state.Snapshot()
	listeners := slices.Clone(e.stateListeners)
	e.mu.Unlock()

	log.Info("metronome paused")
	notifyStateListeners(log, listeners, snap)
}

// TogglePlayback pauses when playing, otherwise starts (resuming if paused).
func (e *Engine) TogglePlayback() error {
	e.mu.Lock()
	playing := e.state.IsPlaying()
	e.mu.Unlock()

	if playing {
		e.Pause()
		return nil
	}
	return e.Start()
}

// haltLoop signals the timing loop to exit and waits for it, bounded by
// loopJoinTimeout. The engine lock must not be held: the loop needs it to
// finish its current beat.
func (e *Engine) haltLoop(log *logrus.Entry) {
	e.mu.Lock()
	stop, done := e.stopCh, e.doneCh
	e.stopCh, e.doneCh = nil, nil
	e.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)

	select {
	case <-done:
	case <-e.clk.After(loopJoinTimeout):
		log.Warnf("timing loop did not exit within %s", loopJoinTimeout)
	}
}

// run is the timing loop. It keeps an absolute deadline for the next beat,
// re-reads the interval every iteration so live tempo changes apply
// beat-to-beat, and resynchronizes instead of bursting catch-up beats when
// processing falls behind.
func (e *Engine) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	log := logger.GetProjectLogger()

	next := e.clk.Now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		now := e.clk.Now()

		e.mu.Lock()
		interval := e.tempo.Interval()
		e.mu.Unlock()

		next = next.Add(interval)
		if next.Before(now) {
			drift := now.Sub(next)
			e.mu.Lock()
			e.lastDrift = drift
			e.mu.Unlock()
			if drift > driftWarnThreshold {
				log.Warnf("timing drift detected: %.2fms", float64(drift)/float64(time.Millisecond))
			}
			next = now.Add(interval)
		}

		e.fireBeat(log)

		t := e.clk.NewTimer(next.Sub(e.clk.Now()))
		select {
		case <-stop:
			t.Stop()
			return
		case <-t.C():
		}
	}
}

// fireBeat plays and records a single beat, then notifies beat listeners.
// Listeners always observe the state after the beat's advancement.
func (e *Engine) fireBeat(log *logrus.Entry) {
	e.mu.Lock()
	beat := e.state.CurrentBeat
	click := beat * e.pattern.Subdivisions()

	beatType, err := e.pattern.BeatTypeAt(click)
	if err != nil {
		// Indices are derived from our own state, so this should not happen.
		log.Errorf("could not classify click %d: %v", click, err)
		beatType = BeatNormal
	}

	if err := e.sink.Render(beatType); err != nil {
		log.Warnf("audio render failed: %v", err)
	}

	e.state.AdvanceBeat(e.pattern.TimeSignature().BeatsPerMeasure, e.clk.Now())
	listeners := slices.Clone(e.beatListeners)
	e.mu.Unlock()

	for _, l := range listeners {
		invokeBeatListener(log, l.fn, beat, beatType)
	}
}

// TapTempo records a tap at the given instant and derives a tempo from the
// interval since the previous tap. The first tap only records its timestamp.
// Intervals outside the valid BPM range are silently ignored so erratic
// tapping never produces a bogus tempo.
func (e *Engine) TapTempo(now time.Time) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.LastBeat == nil {
		t := now
		e.state.LastBeat = &t
		return 0, false
	}

	interval := now.Sub(*e.state.LastBeat)
	t := now
	e.state.LastBeat = &t

	if interval <= 0 {
		return 0, false
	}

	bpm := int(60.0 / interval.Seconds())
	if bpm < MinBPM || bpm > MaxBPM {
		return 0, false
	}

	e.tempo = TempoConfig{BPM: bpm}
	logger.GetProjectLogger().Infof("tap tempo: %d BPM", bpm)
	return bpm, true
}

// SetTempo swaps in a new tempo. Takes effect on the next beat.
func (e *Engine) SetTempo(tc TempoConfig) {
	e.mu.Lock()
	e.tempo = tc
	e.mu.Unlock()
	logger.GetProjectLogger().Infof("tempo changed to %s", tc)
}

// Tempo returns the current tempo.
func (e *Engine) Tempo() TempoConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo
}

// SetBPM validates and applies a new tempo in beats per minute.
func (e *Engine) SetBPM(bpm int) error {
	tc, err := NewTempoConfig(bpm)
	if err != nil {
		return err
	}
	e.SetTempo(tc)
	return nil
}

// BPM returns the current tempo in beats per minute.
func (e *Engine) BPM() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo.BPM
}

// AdjustBPM shifts the tempo by delta, clamped to the valid range, and
// returns the resulting BPM.
func (e *Engine) AdjustBPM(delta int) int {
	e.mu.Lock()
	e.tempo = e.tempo.AdjustBPM(delta)
	bpm := e.tempo.BPM
	e.mu.Unlock()
	return bpm
}

// SetTempoMarking applies a tempo by its Italian marking name.
func (e *Engine) SetTempoMarking(name string) error {
	tc, err := TempoFromMarking(name)
	if err != nil {
		return err
	}
	e.SetTempo(tc)
	return nil
}

// TempoInfo returns a human-readable description of the current tempo.
func (e *Engine) TempoInfo() string {
	return e.Tempo().String()
}

// SetBeatPattern swaps in a new beat pattern and resets the beat/measure
// position, since the old position is meaningless under a new meter. The
// engine keeps its own copy.
func (e *Engine) SetBeatPattern(p *BeatPattern) {
	e.mu.Lock()
	e.pattern = p.Clone()
	e.state.ResetPosition()
	e.mu.Unlock()
	logger.GetProjectLogger().Infof("beat pattern changed to %s", p)
}

// Pattern returns a copy of the current beat pattern.
func (e *Engine) Pattern() *BeatPattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern.Clone()
}

// SetTimeSignature parses and applies a time signature like "3/4",
// preserving the current subdivision count.
func (e *Engine) SetTimeSignature(text string) error {
	ts, err := ParseTimeSignature(text)
	if err != nil {
		return err
	}

	e.mu.Lock()
	p := NewBeatPattern(ts)
	if err := p.SetSubdivisions(e.pattern.Subdivisions()); err != nil {
		e.mu.Unlock()
		return err
	}
	e.pattern = p
	e.state.ResetPosition()
	e.mu.Unlock()

	logger.GetProjectLogger().Infof("time signature set to %s", ts)
	return nil
}

// TimeSignature returns the current time signature.
func (e *Engine) TimeSignature() TimeSignature {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern.TimeSignature()
}

// SetSubdivisions changes the number of clicks per beat and resets the
// beat/measure position.
func (e *Engine) SetSubdivisions(n int) error {
	e.mu.Lock()
	if err := e.pattern.SetSubdivisions(n); err != nil {
		e.mu.Unlock()
		return err
	}
	e.state.ResetPosition()
	e.mu.Unlock()

	logger.GetProjectLogger().Infof("subdivisions set to %d", n)
	return nil
}

// Subdivisions returns the number of clicks per beat.
func (e *Engine) Subdivisions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern.Subdivisions()
}

// SetCustomAccents replaces the accent mask. The mask length must match the
// beats per measure.
func (e *Engine) SetCustomAccents(accents []bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern.SetCustomAccents(accents)
}

// Accents returns a copy of the current accent mask.
func (e *Engine) Accents() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern.Accents()
}

// State returns a snapshot of the current run state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// LastDrift returns the most recent recorded scheduling overrun.
func (e *Engine) LastDrift() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDrift
}

// AddBeatListener registers a per-beat listener and returns its handle.
func (e *Engine) AddBeatListener(fn BeatListener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextListenerID++
	e.beatListeners = append(e.beatListeners, beatListenerEntry{id: e.nextListenerID, fn: fn})
	return e.nextListenerID
}

// RemoveBeatListener unregisters a beat listener. Unknown handles are a
// no-op, so a listener may remove itself during its own invocation.
func (e *Engine) RemoveBeatListener(id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.beatListeners {
		if l.id == id {
			e.beatListeners = append(e.beatListeners[:i], e.beatListeners[i+1:]...)
			return
		}
	}
}

// AddStateListener registers a status-transition listener and returns its
// handle.
func (e *Engine) AddStateListener(fn StateListener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextListenerID++
	e.stateListeners = append(e.stateListeners, stateListenerEntry{id: e.nextListenerID, fn: fn})
	return e.nextListenerID
}

// RemoveStateListener unregisters a state listener. Unknown handles are a
// no-op.
func (e *Engine) RemoveStateListener(id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.stateListeners {
		if l.id == id {
			e.stateListeners = append(e.stateListeners[:i], e.stateListeners[i+1:]...)
			return
		}
	}
}

func invokeBeatListener(log *logrus.Entry, fn BeatListener, beat int, beatType BeatType) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("beat listener panicked: %v", r)
		}
	}()
	fn(beat, beatType)
}

func notifyStateListeners(log *logrus.Entry, listeners []stateListenerEntry, snap State) {
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("state listener panicked: %v", r)
				}
			}()
			l.fn(snap)
		}()
	}
}
