// Package xboard implements a client for the XBoard line protocol as
// spoken by fairy-stockfish and friends: command issuance, a polled read
// loop feeding a broadcast dispatcher, and per-slot response handlers.
// The protocol carries no correlation IDs, so every registered handler
// sees every line and claims only the shapes it recognizes.
package xboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/fairy-xboard/internal/board"
	"github.com/park285/fairy-xboard/internal/variant"
)

type State int

const (
	StateUninitialized State = iota
	StateHandshaking
	StateReady
	StateThinking
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateThinking:
		return "thinking"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const (
	slotFeature  = "feature"
	slotMove     = "move"
	slotAnalysis = "analysis"
	slotHint     = "hint"

	defaultPollInterval = 10 * time.Millisecond
	handshakeTimeout    = 5 * time.Second
)

type Config struct {
	EnginePath   string
	Variant      variant.Variant
	PollInterval time.Duration
	Logger       *zap.Logger
}

// registration boxes a slot's predicate+callback pair. Handlers return
// true once they have claimed a terminal line and want to be removed.
type registration struct {
	slot string
	fn   func(line string) bool
}

// Session owns the engine lifecycle state and the pending-request
// registry. One read loop goroutine feeds dispatch; at most one handler is
// registered per slot, and re-registering a slot supersedes the previous
// handler without resolving it.
type Session struct {
	tr   Transport
	log  *zap.Logger
	path string
	poll time.Duration

	mu       sync.Mutex
	state    State
	vname    variant.Variant
	info     variant.Info
	usermove bool
	handlers map[string]*registration

	reader   LineReader
	loopStop context.CancelFunc
	loopDone chan struct{}
}

func NewSession(tr Transport, cfg Config) (*Session, error) {
	if tr == nil {
		return nil, ErrTransportUnavailable
	}
	if cfg.EnginePath == "" {
		return nil, fmt.Errorf("engine path required")
	}
	v := cfg.Variant
	if v == "" {
		v = variant.Default
	}
	info, err := variant.Lookup(v)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Session{
		tr:       tr,
		log:      log,
		path:     cfg.EnginePath,
		poll:     poll,
		state:    StateUninitialized,
		vname:    v,
		info:     info,
		handlers: make(map[string]*registration),
	}, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) casState(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

// Variant returns the variant the session currently has selected.
func (s *Session) Variant() variant.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vname
}

func (s *Session) variantInfo() variant.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Initialize spawns the engine, starts the read loop and performs the
// protocol handshake: `xboard` + `protover 2`, then waiting for the
// feature negotiation to report done. A non-default configured variant is
// selected before the session becomes ready.
func (s *Session) Initialize(ctx context.Context) error {
	if !s.casState(StateUninitialized, StateHandshaking) && !s.casState(StateStopped, StateHandshaking) {
		return fmt.Errorf("initialize from state %s", s.State())
	}

	if err := s.tr.Spawn(s.path); err != nil {
		s.setState(StateUninitialized)
		return fmt.Errorf("spawn engine: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.loopStop = cancel
	s.loopDone = make(chan struct{})
	s.usermove = false
	s.reader.Reset()
	s.mu.Unlock()
	go s.readLoop(loopCtx)

	handshakeCtx, cancelHandshake := context.WithTimeout(ctx, handshakeTimeout)
	defer cancelHandshake()

	done := make(chan struct{}, 1)
	reg := s.register(slotFeature, func(line string) bool {
		if !strings.HasPrefix(line, "feature") {
			return false
		}
		if strings.Contains(line, "usermove=1") {
			s.mu.Lock()
			s.usermove = true
			s.mu.Unlock()
		}
		if !strings.Contains(line, "done=1") {
			return false
		}
		select {
		case done <- struct{}{}:
		default:
		}
		return true
	})

	if err := s.sendAll("xboard", "protover 2"); err != nil {
		s.deregister(reg)
		return err
	}

	select {
	case <-done:
	case <-handshakeCtx.Done():
		s.deregister(reg)
		return fmt.Errorf("feature negotiation: %w", handshakeCtx.Err())
	}

	if v := s.Variant(); v != variant.Default {
		if err := s.SendCommand("variant " + v.String()); err != nil {
			return fmt.Errorf("select variant %s: %w", v, err)
		}
	}
	if err := s.sendAll("new", "post"); err != nil {
		return err
	}

	s.setState(StateReady)
	s.log.Info("engine session ready", zap.String("variant", s.Variant().String()))
	return nil
}

// readLoop is the single consumer of the transport: it polls for newly
// available output, assembles lines and dispatches them. Out-of-band
// transport errors are logged here; pending requests are left untouched
// and time out through their own contexts.
func (s *Session) readLoop(ctx context.Context) {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-s.tr.Errors():
			s.log.Error("engine transport error", zap.Error(err))
		case <-ticker.C:
			chunk := s.tr.ReadAvailable()
			if chunk == "" {
				continue
			}
			for _, line := range s.reader.Feed(chunk) {
				s.dispatch(line)
			}
		}
	}
}

// dispatch fans each line out to every registered handler. Handlers
// self-filter; a handler returning true is removed, unless it has already
// been superseded by a newer registration for the same slot.
func (s *Session) dispatch(line string) {
	s.mu.Lock()
	regs := make([]*registration, 0, len(s.handlers))
	for _, reg := range s.handlers {
		regs = append(regs, reg)
	}
	s.mu.Unlock()

	for _, reg := range regs {
		if reg.fn(line) {
			s.deregister(reg)
		}
	}
}

func (s *Session) register(slot string, fn func(string) bool) *registration {
	reg := &registration{slot: slot, fn: fn}
	s.mu.Lock()
	if _, exists := s.handlers[slot]; exists {
		s.log.Warn("superseding pending handler", zap.String("slot", slot))
	}
	s.handlers[slot] = reg
	s.mu.Unlock()
	return reg
}

func (s *Session) deregister(reg *registration) {
	s.mu.Lock()
	if s.handlers[reg.slot] == reg {
		delete(s.handlers, reg.slot)
	}
	s.mu.Unlock()
}

// SendCommand writes one command line to the transport.
func (s *Session) SendCommand(text string) error {
	if s.tr == nil || !s.tr.IsRunning() {
		return ErrTransportUnavailable
	}
	s.log.Debug("engine command", zap.String("cmd", text))
	return s.tr.WriteLine(text)
}

func (s *Session) sendAll(cmds ...string) error {
	for _, cmd := range cmds {
		if err := s.SendCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}

func matchMoveLine(line string) (string, bool) {
	if !strings.HasPrefix(line, "move ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(line, "move "))
	if token == "" {
		return "", false
	}
	return token, true
}

// RequestBestMove sets up the position, grants the engine a time budget
// and resolves with the move from the terminal `move <token>` line. All
// other line shapes are ignored by the slot handler.
func (s *Session) RequestBestMove(ctx context.Context, fen string, budget time.Duration) (board.Move, error) {
	if st := s.State(); st != StateReady {
		return board.Move{}, fmt.Errorf("request best move in state %s", st)
	}
	info := s.variantInfo()

	ch := make(chan string, 1)
	reg := s.register(slotMove, func(line string) bool {
		token, ok := matchMoveLine(line)
		if !ok {
			return false
		}
		select {
		case ch <- token:
		default:
		}
		return true
	})

	secs := int(budget / time.Second)
	if secs < 1 {
		secs = 1
	}
	if err := s.sendAll("force", "setboard "+fen, fmt.Sprintf("st %d", secs), "go"); err != nil {
		s.deregister(reg)
		return board.Move{}, err
	}
	s.casState(StateReady, StateThinking)
	defer s.casState(StateThinking, StateReady)

	select {
	case token := <-ch:
		return board.ParseMove(token, info.Files, info.Ranks)
	case <-ctx.Done():
		s.deregister(reg)
		return board.Move{}, ctx.Err()
	}
}

// RequestAnalysis folds the engine's thinking lines into a snapshot until
// the terminal move line arrives, then returns the final snapshot. Each
// intermediate state is passed to onProgress when set.
func (s *Session) RequestAnalysis(ctx context.Context, fen string, depth int, onProgress func(Snapshot)) (Snapshot, error) {
	if st := s.State(); st != StateReady {
		return Snapshot{}, fmt.Errorf("request analysis in state %s", st)
	}
	if depth < 1 {
		return Snapshot{}, fmt.Errorf("depth %d out of range", depth)
	}
	info := s.variantInfo()

	snap := &Snapshot{}
	ch := make(chan Snapshot, 1)
	reg := s.register(slotAnalysis, func(line string) bool {
		if _, ok := matchMoveLine(line); ok {
			select {
			case ch <- snap.Clone():
			default:
			}
			return true
		}
		if snap.Fold(line, info.Files, info.Ranks) && onProgress != nil {
			onProgress(snap.Clone())
		}
		return false
	})

	if err := s.sendAll("force", "setboard "+fen, fmt.Sprintf("sd %d", depth), "go"); err != nil {
		s.deregister(reg)
		return Snapshot{}, err
	}
	s.casState(StateReady, StateThinking)
	defer s.casState(StateThinking, StateReady)

	select {
	case final := <-ch:
		return final, nil
	case <-ctx.Done():
		s.deregister(reg)
		return Snapshot{}, ctx.Err()
	}
}

// Hint asks the engine for a suggestion for the side to move.
func (s *Session) Hint(ctx context.Context) (board.Move, error) {
	info := s.variantInfo()

	ch := make(chan string, 1)
	reg := s.register(slotHint, func(line string) bool {
		if !strings.HasPrefix(line, "Hint: ") {
			return false
		}
		token := strings.TrimSpace(strings.TrimPrefix(line, "Hint: "))
		if token == "" {
			return false
		}
		select {
		case ch <- token:
		default:
		}
		return true
	})

	if err := s.SendCommand("hint"); err != nil {
		s.deregister(reg)
		return board.Move{}, err
	}

	select {
	case token := <-ch:
		return board.ParseMove(token, info.Files, info.Ranks)
	case <-ctx.Done():
		s.deregister(reg)
		return board.Move{}, ctx.Err()
	}
}

// OpponentMove forwards a move made outside the engine. The token is
// validated against the variant's dimensions before anything is sent;
// legality stays the engine's call. Engines that negotiated usermove=1
// get the prefixed form, everyone else the bare token.
func (s *Session) OpponentMove(token string) error {
	info := s.variantInfo()
	if _, err := board.ParseMove(token, info.Files, info.Ranks); err != nil {
		return err
	}
	s.mu.Lock()
	prefixed := s.usermove
	s.mu.Unlock()
	if prefixed {
		return s.SendCommand("usermove " + token)
	}
	return s.SendCommand(token)
}

// MoveNow interrupts the current search.
func (s *Session) MoveNow() error {
	return s.SendCommand("?")
}

// SetVariant switches the engine to v. On a failed send the engine keeps
// whatever was last selected, so the session does too.
func (s *Session) SetVariant(v variant.Variant) error {
	info, err := variant.Lookup(v)
	if err != nil {
		return err
	}
	if err := s.SendCommand("variant " + v.String()); err != nil {
		return err
	}
	s.mu.Lock()
	s.vname = v
	s.info = info
	s.mu.Unlock()
	return nil
}

// Quit tears the session down: the read loop stops, the engine is asked
// to quit and the process is stopped. Registrations are released without
// resolving; a caller still waiting is expected to hold its own context
// deadline.
func (s *Session) Quit() error {
	s.mu.Lock()
	if s.state == StateStopped || s.state == StateUninitialized {
		s.mu.Unlock()
		return nil
	}
	s.state = StateShuttingDown
	stop := s.loopStop
	done := s.loopDone
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	if err := s.SendCommand("quit"); err != nil {
		s.log.Warn("quit command not delivered", zap.Error(err))
	}
	err := s.tr.Stop()

	s.mu.Lock()
	s.handlers = make(map[string]*registration)
	s.state = StateStopped
	s.mu.Unlock()
	s.reader.Reset()

	s.log.Info("engine session stopped")
	return err
}
