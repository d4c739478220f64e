// Package oscremote exposes the metronome's control surface over OSC so
// external gear (pedals, DAW scripts, lighting consoles) can drive it.
package oscremote

import (
	"net"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/mkral/taktell/logger"
	"github.com/mkral/taktell/rhythm"
	"github.com/pkg/errors"
)

// Control addresses. Tempo takes an int32 BPM, timesig a string like "6/8",
// subdivisions an int32, accents a string mask like "1010".
const (
	AddrStart        = "/taktell/start"
	AddrStop         = "/taktell/stop"
	AddrPause        = "/taktell/pause"
	AddrTap          = "/taktell/tap"
	AddrTempo        = "/taktell/tempo"
	AddrTimeSig      = "/taktell/timesig"
	AddrSubdivisions = "/taktell/subdivisions"
	AddrAccents      = "/taktell/accents"
)

// Server listens for OSC control messages over UDP and maps them onto engine
// calls. Handler errors are logged, never fatal.
type Server struct {
	engine *rhythm.Engine
	addr   string
	now    func() time.Time
	srv    *osc.Server
	conn   net.PacketConn
}

// NewServer wires a dispatcher for all control addresses. It does not listen
// yet; call ListenAndServe.
func NewServer(addr string, engine *rhythm.Engine) (*Server, error) {
	s := &Server{
		engine: engine,
		addr:   addr,
		now:    time.Now,
	}

	d := osc.NewStandardDispatcher()
	handlers := map[string]osc.HandlerFunc{
		AddrStart:        s.handleStart,
		AddrStop:         s.handleStop,
		AddrPause:        s.handlePause,
		AddrTap:          s.handleTap,
		AddrTempo:        s.handleTempo,
		AddrTimeSig:      s.handleTimeSig,
		AddrSubdivisions: s.handleSubdivisions,
		AddrAccents:      s.handleAccents,
	}
	for address, handler := range handlers {
		if err := d.AddMsgHandler(address, handler); err != nil {
			return nil, errors.Wrapf(err, "registering OSC handler %s", address)
		}
	}

	s.srv = &osc.Server{Addr: addr, Dispatcher: d}
	return s, nil
}

// ListenAndServe blocks serving OSC messages until Close is called.
func (s *Server) ListenAndServe() error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.addr)
	}
	s.conn = conn

	logger.GetProjectLogger().Infof("OSC control listening on %s", s.addr)
	return s.srv.Serve(conn)
}

// Close stops the server.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Server) handleStart(msg *osc.Message) {
	if err := s.engine.Start(); err != nil {
		logger.GetProjectLogger().Errorf("OSC start failed: %v", err)
	}
}

func (s *Server) handleStop(msg *osc.Message) {
	s.engine.Stop()
}

func (s *Server) handlePause(msg *osc.Message) {
	s.engine.Pause()
}

func (s *Server) handleTap(msg *osc.Message) {
	if bpm, ok := s.engine.TapTempo(s.now()); ok {
		logger.GetProjectLogger().Infof("OSC tap tempo: %d BPM", bpm)
	}
}

func (s *Server) handleTempo(msg *osc.Message) {
	log := logger.GetProjectLogger()

	bpm, ok := intArgument(msg)
	if !ok {
		log.Warnf("OSC tempo message needs an int argument, got %v", msg.Arguments)
		return
	}
	if err := s.engine.SetBPM(bpm); err != nil {
		log.Errorf("OSC tempo rejected: %v", err)
	}
}

func (s *Server) handleTimeSig(msg *osc.Message) {
	log := logger.GetProjectLogger()

	text, ok := stringArgument(msg)
	if !ok {
		log.Warnf("OSC timesig message needs a string argument, got %v", msg.Arguments)
		return
	}
	if err := s.engine.SetTimeSignature(text); err != nil {
		log.Errorf("OSC timesig rejected: %v", err)
	}
}

func (s *Server) handleSubdivisions(msg *osc.Message) {
	log := logger.GetProjectLogger()

	n, ok := intArgument(msg)
	if !ok {
		log.Warnf("OSC subdivisions message needs an int argument, got %v", msg.Arguments)
		return
	}
	if err := s.engine.SetSubdivisions(n); err != nil {
		log.Errorf("OSC subdivisions rejected: %v", err)
	}
}

func (s *Server) handleAccents(msg *osc.Message) {
	log := logger.GetProjectLogger()

	text, ok := stringArgument(msg)
	if !ok {
		log.Warnf("OSC accents message needs a string argument, got %v", msg.Arguments)
		return
	}

	mask := make([]bool, 0, len(text))
	for _, c := range text {
		switch c {
		case '1':
			mask = append(mask, true)
		case '0':
			mask = append(mask, false)
		default:
			log.Warnf("OSC accents mask must contain only 0 and 1, got %q", text)
			return
		}
	}

	if err := s.engine.SetCustomAccents(mask); err != nil {
		log.Errorf("OSC accents rejected: %v", err)
	}
}

func intArgument(msg *osc.Message) (int, bool) {
	if len(msg.Arguments) == 0 {
		return 0, false
	}
	switch v := msg.Arguments[0].(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	}
	return 0, false
}

func stringArgument(msg *osc.Message) (string, bool) {
	if len(msg.Arguments) == 0 {
		return "", false
	}
	v, ok := msg.Arguments[0].(string)
	return v, ok
}
