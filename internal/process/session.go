package process

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
)

const (
	readChunk = 4096
	killAfter = time.Second
)

// Session connects a supervised process to the update loop. Output holds
// merged stdout and stderr chunks in arrival order.
type Session struct {
	proc *Process
	out  *Queue[[]byte]
	in   *Queue[[]byte]
	pipe *os.File

	stop   chan struct{}
	wg     sync.WaitGroup
	eof    atomic.Bool
	closed atomic.Bool
}

// NewSession starts argv under sup with dir as working directory (empty
// means the current one) and starts the reader and writer goroutines.
func NewSession(sup *Supervisor, name string, argv []string, dir string) (*Session, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = pw
	cmd.Stderr = pw

	proc, err := sup.Start(name, cmd)
	// The child holds its own copy of the write end.
	_ = pw.Close()
	if err != nil {
		_ = pr.Close()
		return nil, err
	}

	s := &Session{
		proc: proc,
		out:  NewQueue[[]byte](),
		in:   NewQueue[[]byte](),
		pipe: pr,
		stop: make(chan struct{}),
	}
	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	return s, nil
}

// Process returns the underlying process.
func (s *Session) Process() *Process { return s.proc }

// Output returns the queue of output chunks.
func (s *Session) Output() *Queue[[]byte] { return s.out }

// EOF reports whether the output stream has ended.
func (s *Session) EOF() bool { return s.eof.Load() }

// Write queues p for the process's stdin. It never blocks.
func (s *Session) Write(p []byte) {
	if s.closed.Load() || len(p) == 0 {
		return
	}
	s.in.Push(append([]byte(nil), p...))
}

func (s *Session) readLoop() {
	defer s.wg.Done()
	defer s.eof.Store(true)

	buf := make([]byte, readChunk)
	for {
		n, err := s.pipe.Read(buf)
		if n > 0 {
			s.out.Push(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.wg.Done()

	stdin := s.proc.Stdin
	for {
		select {
		case <-s.stop:
			return
		case <-s.in.Ready():
			for _, chunk := range s.in.Drain() {
				if stdin == nil {
					continue
				}
				// Write errors are dropped; the reader sees the exit.
				_, _ = stdin.Write(chunk)
			}
		}
	}
}

// Close stops the writer, closes stdin, terminates the process if it is
// still running and waits for both goroutines.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stop)
	s.in.Close()

	var err error
	if s.proc.Stdin != nil {
		err = multierr.Append(err, ignoreClosed(s.proc.Stdin.Close()))
	}
	if s.proc.IsRunning() {
		err = multierr.Append(err, ignoreNotStarted(s.proc.Terminate()))
	}
	select {
	case <-s.proc.Done():
	case <-time.After(killAfter):
		_ = s.proc.Kill()
		<-s.proc.Done()
	}
	err = multierr.Append(err, ignoreClosed(s.pipe.Close()))
	s.wg.Wait()
	s.out.Close()
	return err
}

func ignoreClosed(err error) error {
	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

func ignoreNotStarted(err error) error {
	if errors.Is(err, ErrProcessNotStarted) || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
