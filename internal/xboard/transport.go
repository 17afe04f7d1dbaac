package xboard

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrTransportUnavailable = errors.New("engine transport unavailable")
	ErrTransportWriteError  = errors.New("engine transport write failed")
)

// Transport is the process-IPC capability the session drives. Transport
// errors surface on the out-of-band channel; they are logged by the
// session and never fail a pending request on their own.
type Transport interface {
	Spawn(path string) error
	WriteLine(line string) error
	ReadAvailable() string
	Stop() error
	IsRunning() bool
	Errors() <-chan error
}

// ExecTransport runs the engine as a child process with piped stdio. A
// reader goroutine drains stdout into an internal buffer so that
// ReadAvailable never blocks.
type ExecTransport struct {
	log *zap.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	pending strings.Builder
	running bool

	errs chan error
}

func NewExecTransport(log *zap.Logger) *ExecTransport {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecTransport{
		log:  log,
		errs: make(chan error, 8),
	}
}

func (t *ExecTransport) Spawn(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("engine already running")
	}

	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("start engine: %w", err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.running = true
	t.pending.Reset()
	t.log.Info("engine process started", zap.String("path", path), zap.Int("pid", cmd.Process.Pid))

	go t.readLoop(stdout)
	return nil
}

func (t *ExecTransport) readLoop(stdout io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			t.mu.Lock()
			t.pending.Write(buf[:n])
			t.mu.Unlock()
		}
		if err != nil {
			t.mu.Lock()
			wasRunning := t.running
			t.running = false
			t.mu.Unlock()
			if wasRunning && !errors.Is(err, io.EOF) {
				t.report(fmt.Errorf("engine stdout: %w", err))
			}
			return
		}
	}
}

func (t *ExecTransport) report(err error) {
	select {
	case t.errs <- err:
	default:
		t.log.Warn("transport error dropped", zap.Error(err))
	}
}

func (t *ExecTransport) WriteLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running || t.stdin == nil {
		return ErrTransportUnavailable
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := io.WriteString(t.stdin, line); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportWriteError, err)
	}
	return nil
}

// ReadAvailable returns everything the engine has written since the last
// call, possibly ending mid-line. Empty when nothing is buffered.
func (t *ExecTransport) ReadAvailable() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending.String()
	t.pending.Reset()
	return out
}

func (t *ExecTransport) Stop() error {
	t.mu.Lock()
	cmd := t.cmd
	stdin := t.stdin
	t.cmd = nil
	t.stdin = nil
	t.running = false
	t.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd == nil {
		return nil
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	err := cmd.Wait()
	if err != nil && !strings.Contains(err.Error(), "killed") {
		return fmt.Errorf("engine exit: %w", err)
	}
	return nil
}

func (t *ExecTransport) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *ExecTransport) Errors() <-chan error { return t.errs }
