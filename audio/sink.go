package audio

import (
	"math"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/fogleman/ease"
	"github.com/mkral/taktell/logger"
	"github.com/mkral/taktell/rhythm"
	"github.com/pkg/errors"
)

const (
	playbackRate  = beep.SampleRate(44100)
	clickDuration = 50 * time.Millisecond
)

// ErrNotInitialized is returned by Render before Init has been called.
var ErrNotInitialized = errors.New("audio sink not initialized")

// clickFrequencies pitches the generated clicks so the three beat roles are
// easy to tell apart by ear.
var clickFrequencies = map[rhythm.BeatType]int{
	rhythm.BeatAccent:      1200,
	rhythm.BeatNormal:      800,
	rhythm.BeatSubdivision: 600,
}

// Sink renders beat clicks through the speaker. It implements rhythm.Sink.
// Each beat type has its own pre-rendered buffer: generated sine clicks by
// default, optionally replaced by WAV files.
type Sink struct {
	mu          sync.Mutex
	format      beep.Format
	buffers     map[rhythm.BeatType]*beep.Buffer
	volume      float64
	muted       bool
	initialized bool
}

// NewSink builds an uninitialized sink at full volume.
func NewSink() *Sink {
	return &Sink{
		format:  beep.Format{SampleRate: playbackRate, NumChannels: 2, Precision: 2},
		buffers: make(map[rhythm.BeatType]*beep.Buffer),
		volume:  1.0,
	}
}

// Init opens the speaker and renders the default click for every beat type.
func (s *Sink) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		logger.GetProjectLogger().Warn("audio sink already initialized")
		return nil
	}

	if err := speaker.Init(s.format.SampleRate, s.format.SampleRate.N(time.Second/10)); err != nil {
		return errors.Wrap(err, "initializing speaker")
	}

	for bt, freq := range clickFrequencies {
		buf, err := s.generateClick(freq)
		if err != nil {
			return errors.Wrapf(err, "generating %s click", bt)
		}
		s.buffers[bt] = buf
	}

	s.initialized = true
	return nil
}

// generateClick renders a short sine burst under a fast decay envelope so it
// reads as a tick rather than a sustained tone.
func (s *Sink) generateClick(freq int) (*beep.Buffer, error) {
	tone, err := generators.SinTone(s.format.SampleRate, freq)
	if err != nil {
		return nil, err
	}

	n := s.format.SampleRate.N(clickDuration)
	buf := beep.NewBuffer(s.format)
	buf.Append(envelope(beep.Take(n, tone), n))
	return buf, nil
}

// envelope fades the burst out with a sharp exponential decay so it reads as
// a tick rather than a sustained tone.
func envelope(s beep.Streamer, length int) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := 0; i < n; i++ {
			gain := 1 - ease.OutExpo(float64(pos)/float64(length))
			samples[i][0] *= gain
			samples[i][1] *= gain
			pos++
		}
		return n, ok
	})
}

// LoadWAV replaces the click for one beat type with a decoded WAV file,
// resampling it to the playback rate when needed. Init must have been called.
func (s *Sink) LoadWAV(bt rhythm.BeatType, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening sound file %s", path)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return errors.Wrapf(err, "decoding sound file %s", path)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != s.format.SampleRate {
		src = beep.Resample(4, format.SampleRate, s.format.SampleRate, streamer)
	}

	buf := beep.NewBuffer(s.format)
	buf.Append(src)
	s.buffers[bt] = buf

	logger.GetProjectLogger().Infof("loaded %s sound from %s", bt, path)
	return nil
}

// Render plays the click for the given beat type. A muted sink renders
// silence successfully.
func (s *Sink) Render(bt rhythm.BeatType) error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.muted {
		s.mu.Unlock()
		return nil
	}
	buf := s.buffers[bt]
	vol := s.volume
	s.mu.Unlock()

	if buf == nil {
		return errors.Errorf("no sound loaded for %s", bt)
	}

	shot := buf.Streamer(0, buf.Len())
	speaker.Play(&effects.Volume{
		Streamer: shot,
		Base:     2,
		Volume:   volumeGain(vol),
		Silent:   vol <= 0,
	})
	return nil
}

// volumeGain maps a linear [0,1] volume onto the exponential gain scale the
// mixer expects. 1.0 is unity gain.
func volumeGain(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log2(v)
}

// SetVolume sets the playback volume, clamped into [0,1].
func (s *Sink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = math.Max(0, math.Min(1, v))
}

// Volume returns the current playback volume.
func (s *Sink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Mute silences the sink without touching the volume.
func (s *Sink) Mute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = true
}

// Unmute restores playback.
func (s *Sink) Unmute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = false
}

// ToggleMute flips the mute state and returns the new value.
func (s *Sink) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	return s.muted
}

// IsMuted reports whether the sink is muted.
func (s *Sink) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Close drops any queued playback.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		speaker.Clear()
	}
}
