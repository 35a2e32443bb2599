// Package gemini runs the gemini CLI as a supervised subprocess and turns its
// stream-json output into an aggregated result. The pipeline is one relay
// goroutine feeding a bounded line channel, a consumer that decodes and
// aggregates on the calling goroutine, a wall-clock governor, and a shutdown
// reconciler that guarantees no process or goroutine outlives the invocation.
package gemini

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gudastudio/gemini-mcp/internal/config"
)

// Pipeline timing. These are protocol constants, not tunables; the
// configurable knobs live in internal/config.
const (
	// putTimeout bounds how long the relay waits for channel space before
	// dropping a line.
	putTimeout = 1 * time.Second

	// pollInterval paces the consumer's wait for the next line, so the
	// deadline is re-checked at least this often.
	pollInterval = 500 * time.Millisecond

	// shutdownWait bounds the reconciler's first wait for process exit
	// before escalating to kill.
	shutdownWait = 5 * time.Second

	// killReapWait bounds the wait for the process to be reaped after a
	// kill. Expiry is logged, never blocked on further.
	killReapWait = 2 * time.Second

	// relayJoinWait bounds the reconciler's wait for the relay goroutine.
	// A relay stuck on a read that survived the kill is abandoned; its
	// deferred channel close still fires whenever the read finally fails.
	relayJoinWait = 5 * time.Second
)

// Runner executes gemini CLI invocations. A Runner is cheap and carries no
// per-invocation state; Run may be called repeatedly.
type Runner struct {
	binary          string
	defaultModel    string
	defaultTimeout  time.Duration
	grace           time.Duration
	channelCapacity int
	putTimeout      time.Duration
	pollInterval    time.Duration
	log             *slog.Logger

	// start is the process launcher, injectable for tests.
	start func(binary string, args []string, dir string, log *slog.Logger) (process, error)
}

// NewRunner builds a Runner from the loaded configuration.
func NewRunner(cfg *config.Config, log *slog.Logger) *Runner {
	return &Runner{
		binary:          cfg.Binary,
		defaultModel:    cfg.Model,
		defaultTimeout:  cfg.Timeout(),
		grace:           cfg.GraceInterval.Duration,
		channelCapacity: cfg.ChannelCapacity,
		putTimeout:      putTimeout,
		pollInterval:    pollInterval,
		log:             log,
		start: func(binary string, args []string, dir string, log *slog.Logger) (process, error) {
			return startProcess(binary, args, dir, log)
		},
	}
}

// Run executes one invocation end to end and always returns a Result; every
// failure mode is folded into the result rather than surfaced as a panic or
// a hung call. On return, the subprocess has exited or been killed and the
// relay goroutine has finished or been abandoned after its bounded wait.
func (r *Runner) Run(opts RunOptions) Result {
	if info, err := os.Stat(opts.WorkDir); err != nil || !info.IsDir() {
		return Result{Error: fmt.Sprintf("the workspace root directory `%s` does not exist", opts.WorkDir)}
	}

	if opts.Model == "" {
		opts.Model = r.defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	args := BuildCommandArgs(opts)
	p, err := r.start(r.binary, args, opts.WorkDir, r.log)
	if err != nil {
		r.log.Error("failed to start gemini CLI", "binary", r.binary, "error", err)
		return Result{Error: err.Error()}
	}
	r.log.Debug("invocation started", "pid", p.PID(), "timeout", timeout)

	lines := newLineChannel(r.channelCapacity)
	relayDone := make(chan struct{})
	go r.relay(p, lines, relayDone)

	agg := newAggregator(r.log)
	runErr := r.consume(p, lines, relayDone, agg, timeout)

	r.reconcile(p, lines, relayDone, agg)

	var timeoutErr *TimeoutError
	if errors.As(runErr, &timeoutErr) {
		res := Result{Error: timeoutErr.Error()}
		if opts.ReturnAllMessages {
			res.AllMessages = agg.events
		}
		return res
	}

	return agg.finalize(opts.ReturnAllMessages)
}

// consume drains the line channel into the aggregator until the stream ends
// or the deadline passes. The deadline is checked at the top of every
// iteration, so a flood of buffered lines cannot postpone timeout
// enforcement past one iteration.
func (r *Runner) consume(p process, lines *lineChannel, relayDone chan struct{}, agg *aggregator, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	poll := time.NewTimer(r.pollInterval)
	defer poll.Stop()

	for {
		if time.Now().After(deadline) {
			r.log.Warn("invocation deadline exceeded, killing process", "pid", p.PID(), "timeout", timeout)
			p.Kill()
			if !p.Wait(killReapWait) {
				r.log.Warn("killed process not reaped in time", "pid", p.PID())
			}
			return &TimeoutError{Timeout: timeout}
		}

		poll.Reset(r.pollInterval)
		select {
		case line, ok := <-lines.ch:
			if !ok {
				// End-of-stream marker from the relay.
				return nil
			}
			agg.line(line)
		case <-poll.C:
			// No line this interval. If the process is gone and the relay
			// has finished, any remaining buffered lines are drained by
			// the reconciler.
			if p.Exited() && closed(relayDone) {
				return nil
			}
		}
	}
}

// reconcile is the shutdown path every invocation passes through, success or
// failure. It bounds each wait so Run can never hang: process exit (escalate
// to kill), relay join (abandon if stuck), then a non-blocking drain of any
// lines still buffered in the channel.
func (r *Runner) reconcile(p process, lines *lineChannel, relayDone chan struct{}, agg *aggregator) {
	if !p.Wait(shutdownWait) {
		r.log.Warn("process still running at shutdown, killing", "pid", p.PID())
		p.Kill()
		if !p.Wait(killReapWait) {
			r.log.Warn("killed process not reaped in time", "pid", p.PID())
		}
	}

	joinTimer := time.NewTimer(relayJoinWait)
	defer joinTimer.Stop()
	select {
	case <-relayDone:
	case <-joinTimer.C:
		r.log.Warn("relay did not finish in time, abandoning", "pid", p.PID())
		// The channel may still be open; the non-blocking drain below is
		// safe either way.
	}

	for {
		select {
		case line, ok := <-lines.ch:
			if !ok {
				return
			}
			agg.line(line)
		default:
			return
		}
	}
}

// closed reports without blocking whether ch has been closed.
func closed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
