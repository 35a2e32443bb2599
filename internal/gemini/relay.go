package gemini

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// relayState tracks the relay's shutdown protocol explicitly rather than
// inferring it from timing side effects.
type relayState int

const (
	// relayStreaming: relaying lines, watching for the sentinel.
	relayStreaming relayState = iota
	// relayDraining: sentinel observed, waiting the grace interval so any
	// final buffered output can flush before termination.
	relayDraining
	// relayTerminated: termination requested, reading stops.
	relayTerminated
)

// relay reads the process's combined output line by line, forwards each line
// into the channel, and terminates the process once the turn-completion
// sentinel appears. It runs as the invocation's single background goroutine.
//
// The channel is closed exactly once when the loop exits for any reason
// (stream end, sentinel, read error); done is closed after that, so a closed
// done guarantees the end-of-stream marker is already enqueued.
func (r *Runner) relay(p process, lines *lineChannel, done chan struct{}) {
	defer close(done)
	defer lines.close()

	out := p.Output()
	// The relay is the output's sole reader, so it owns closing it.
	defer func() {
		if c, ok := out.(io.Closer); ok {
			c.Close()
		}
	}()

	reader := bufio.NewReader(out)
	state := relayStreaming

	for state != relayTerminated {
		raw, err := reader.ReadString('\n')
		if raw != "" {
			line := strings.TrimSpace(raw)
			if !lines.put(line, r.putTimeout) {
				// Saturated channel: drop the newest line rather
				// than stall the subprocess's output drain.
				r.log.Debug("line channel full, dropped line")
			}
			if state == relayStreaming && isTurnCompleted(line) {
				state = relayDraining
				r.log.Debug("turn completion sentinel observed", "grace", r.grace)
				time.Sleep(r.grace)
				p.Terminate()
				state = relayTerminated
				continue
			}
		}
		if err != nil {
			if err != io.EOF {
				r.log.Debug("relay read error", "error", err)
			}
			return
		}
	}
}

// isTurnCompleted reports whether the line is the turn-completion sentinel.
// A line that is not valid JSON is never the sentinel; the consumer does its
// own decode-error accounting, so nothing is reported from here.
func isTurnCompleted(line string) bool {
	if !gjson.Valid(line) {
		return false
	}
	return gjson.Get(line, "type").String() == eventTypeTurnCompleted
}
