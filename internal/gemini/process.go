package gemini

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// process is the supervisor surface the streaming pipeline needs. The real
// implementation wraps exec.Cmd; tests substitute a fake. All operations are
// safe to call concurrently and are no-ops on a process that already exited.
type process interface {
	// Output is the process's combined stdout+stderr stream.
	Output() io.Reader

	// Terminate requests cooperative shutdown (SIGTERM) and returns
	// immediately.
	Terminate()

	// Kill forcibly ends the process and returns immediately.
	Kill()

	// Wait blocks up to timeout for exit and reports whether the process
	// has exited. Callers escalate to Kill when it reports false.
	Wait(timeout time.Duration) bool

	// Exited reports without blocking whether the process has exited.
	Exited() bool

	// PID identifies the process for logging.
	PID() int
}

// supervisor owns a spawned gemini CLI process for the duration of one
// invocation. The reap goroutine is the sole caller of cmd.Wait(); everyone
// else coordinates through the waitDone channel, so the process is reaped
// exactly once and Wait is never called twice.
type supervisor struct {
	cmd      *exec.Cmd
	output   io.ReadCloser
	waitDone chan struct{}
	log      *slog.Logger
}

// startProcess launches the CLI with an explicit argument vector (no shell),
// no stdin, the given working directory, and stderr folded into the stdout
// pipe so the relay sees a single combined line stream.
//
// The pipe is created by hand rather than via StdoutPipe: Wait closes a
// StdoutPipe's read end as soon as the child exits, discarding any buffered
// tail the relay has not drained yet. With our own pipe, the relay keeps the
// read end until it hits natural EOF no matter when the reaper runs.
func startProcess(binary string, args []string, dir string, log *slog.Logger) (*supervisor, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, &LaunchError{Binary: binary, Err: err}
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &LaunchError{Binary: binary, Err: err}
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &LaunchError{Binary: binary, Err: err}
	}
	// The child holds its own copy of the write end; dropping ours makes
	// the child's exit the only thing that can EOF the read end.
	pw.Close()

	s := &supervisor{
		cmd:      cmd,
		output:   pr,
		waitDone: make(chan struct{}),
		log:      log,
	}
	log.Debug("process started", "pid", cmd.Process.Pid, "binary", path)

	go s.reap()
	return s, nil
}

// reap waits for the process to exit and signals waitDone. Sole caller of
// cmd.Wait().
func (s *supervisor) reap() {
	err := s.cmd.Wait()
	s.log.Debug("process exited", "pid", s.cmd.Process.Pid, "error", err)
	close(s.waitDone)
}

func (s *supervisor) Output() io.Reader {
	return s.output
}

func (s *supervisor) Terminate() {
	if s.Exited() {
		return
	}
	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already-exited races land here; nothing to do.
		s.log.Debug("terminate signal not delivered", "pid", s.PID(), "error", err)
	}
}

func (s *supervisor) Kill() {
	if s.Exited() {
		return
	}
	if err := s.cmd.Process.Kill(); err != nil {
		s.log.Debug("kill not delivered", "pid", s.PID(), "error", err)
	}
}

func (s *supervisor) Wait(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-s.waitDone:
		return true
	case <-t.C:
		return false
	}
}

func (s *supervisor) Exited() bool {
	select {
	case <-s.waitDone:
		return true
	default:
		return false
	}
}

func (s *supervisor) PID() int {
	return s.cmd.Process.Pid
}

// Ensure supervisor implements process at compile time.
var _ process = (*supervisor)(nil)
