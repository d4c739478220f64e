package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/gosuri/uilive"
	"github.com/mkral/taktell/audio"
	"github.com/mkral/taktell/logger"
	"github.com/mkral/taktell/oscremote"
	"github.com/mkral/taktell/rhythm"
	"k8s.io/utils/clock"
)

var (
	tempo        = flag.Int("tempo", rhythm.DefaultBPM, "beats per minute")
	marking      = flag.String("marking", "", "Italian tempo marking, e.g. Allegro (overrides -tempo)")
	timesig      = flag.String("timesig", "4/4", "time signature, e.g. 4/4 or 6/8")
	subdivisions = flag.Int("subdivisions", 1, "clicks per beat (1-4)")
	volume       = flag.Float64("volume", 1.0, "playback volume (0.0-1.0)")
	accentWAV    = flag.String("accent-sound", "", "WAV file for accented beats")
	normalWAV    = flag.String("normal-sound", "", "WAV file for normal beats")
	subWAV       = flag.String("subdivision-sound", "", "WAV file for subdivision clicks")
	oscAddr      = flag.String("osc", "", "OSC control listen address, e.g. 127.0.0.1:9000")
)

func main() {
	flag.Parse()
	Run()
}

// Run wires up the audio sink, engine and control surfaces, then blocks on
// the keyboard loop until the user quits.
func Run() {
	log := logger.GetProjectLogger()

	log.Info("Initializing audio sink...")
	sink := audio.NewSink()
	if err := sink.Init(); err != nil {
		log.Fatalf("error initializing audio. err='%v'", err)
	}
	defer sink.Close()
	sink.SetVolume(*volume)
	loadSounds(sink)

	engine := rhythm.NewEngine(clock.RealClock{}, sink)
	if err := configureEngine(engine); err != nil {
		log.Fatalf("invalid configuration. err='%v'", err)
	}

	if *oscAddr != "" {
		remote, err := oscremote.NewServer(*oscAddr, engine)
		if err != nil {
			log.Fatalf("error setting up OSC control. err='%v'", err)
		}
		defer remote.Close()
		go func() {
			if err := remote.ListenAndServe(); err != nil {
				log.Errorf("OSC server stopped: %v", err)
			}
		}()
	}

	display := uilive.New()
	display.Start()
	defer display.Stop()

	engine.AddBeatListener(func(beat int, bt rhythm.BeatType) {
		renderStatus(display, engine, beat, bt)
	})
	engine.AddStateListener(func(s rhythm.State) {
		renderStatus(display, engine, -1, rhythm.BeatNormal)
	})

	if err := keyboard.Open(); err != nil {
		log.Fatalf("error opening keyboard. err='%v'", err)
	}
	defer keyboard.Close()

	fmt.Println("space: play/pause | t: tap tempo | +/-: tempo | m: mute | s: stop | q: quit")

	if err := engine.Start(); err != nil {
		log.Fatalf("error starting metronome. err='%v'", err)
	}
	defer engine.Stop()

	for {
		char, key, err := keyboard.GetKey()
		if err != nil {
			log.Errorf("keyboard error: %v", err)
			return
		}

		switch {
		case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q':
			log.Info("shutting down taktell")
			return
		case key == keyboard.KeySpace:
			if err := engine.TogglePlayback(); err != nil {
				log.Errorf("could not toggle playback: %v", err)
			}
		case char == 't':
			engine.TapTempo(time.Now())
		case char == '+' || char == '=':
			engine.AdjustBPM(1)
		case char == '-':
			engine.AdjustBPM(-1)
		case char == 'm':
			sink.ToggleMute()
		case char == 's':
			engine.Stop()
		}
	}
}

// configureEngine applies the command-line tempo and meter settings.
func configureEngine(engine *rhythm.Engine) error {
	if *marking != "" {
		if err := engine.SetTempoMarking(*marking); err != nil {
			return err
		}
	} else if err := engine.SetBPM(*tempo); err != nil {
		return err
	}

	if err := engine.SetTimeSignature(*timesig); err != nil {
		return err
	}
	return engine.SetSubdivisions(*subdivisions)
}

// loadSounds replaces generated clicks with user-supplied WAV files.
func loadSounds(sink *audio.Sink) {
	log := logger.GetProjectLogger()

	overrides := map[rhythm.BeatType]string{
		rhythm.BeatAccent:      *accentWAV,
		rhythm.BeatNormal:      *normalWAV,
		rhythm.BeatSubdivision: *subWAV,
	}
	for bt, path := range overrides {
		if path == "" {
			continue
		}
		if err := sink.LoadWAV(bt, path); err != nil {
			log.Fatalf("error loading sound. err='%v'", err)
		}
	}
}

// renderStatus redraws the one-line transport display. A negative beat means
// no beat is highlighted.
func renderStatus(w *uilive.Writer, engine *rhythm.Engine, beat int, bt rhythm.BeatType) {
	state := engine.State()
	beats := engine.TimeSignature().BeatsPerMeasure

	var grid strings.Builder
	for i := 0; i < beats; i++ {
		switch {
		case i == beat && bt == rhythm.BeatAccent:
			grid.WriteString("[#] ")
		case i == beat:
			grid.WriteString("[*] ")
		default:
			grid.WriteString(" .  ")
		}
	}

	fmt.Fprintf(w, "%s | %s | %s | measure %d\n%s\n",
		state.Status, engine.TimeSignature(), engine.TempoInfo(), state.CurrentMeasure, grid.String())
}
