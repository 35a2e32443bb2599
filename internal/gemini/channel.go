package gemini

import "time"

// lineChannel is the bounded conduit carrying output lines from the relay
// goroutine to the stream consumer. It is single-producer/single-consumer:
// the relay is the only writer and closes the channel exactly once when its
// read loop exits, which is the consumer's end-of-stream marker.
//
// The backpressure policy is deliberately lossy: a put that cannot complete
// within its timeout drops the line instead of blocking, so an unresponsive
// consumer can never stall the subprocess's output drain. Do not replace
// this with an unbounded queue or a blocking producer.
type lineChannel struct {
	ch chan string
}

func newLineChannel(capacity int) *lineChannel {
	return &lineChannel{ch: make(chan string, capacity)}
}

// put enqueues one line, waiting at most timeout for buffer space.
// Reports whether the line was accepted.
func (c *lineChannel) put(line string, timeout time.Duration) bool {
	select {
	case c.ch <- line:
		return true
	default:
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case c.ch <- line:
		return true
	case <-t.C:
		return false
	}
}

// close marks end of stream. Must be called exactly once, by the producer.
func (c *lineChannel) close() {
	close(c.ch)
}
