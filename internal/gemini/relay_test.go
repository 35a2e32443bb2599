package gemini

import (
	"strings"
	"testing"
	"time"

	"github.com/gudastudio/gemini-mcp/internal/testutil"
)

func drainAll(lines *lineChannel) []string {
	var got []string
	for l := range lines.ch {
		got = append(got, l)
	}
	return got
}

func TestRelayTerminatesOnSentinel(t *testing.T) {
	stream := `{"type":"message","role":"assistant","content":"a"}` + "\n" +
		`{"type":"turn.completed"}` + "\n" +
		`{"type":"message","role":"assistant","content":"after sentinel"}` + "\n"
	proc := newFakeProc(strings.NewReader(stream))

	r := newTestRunner(nil)
	lines := newLineChannel(10)
	done := make(chan struct{})
	go r.relay(proc, lines, done)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not finish")
	}

	if !proc.signalled("terminate") {
		t.Error("sentinel did not trigger terminate")
	}
	got := drainAll(lines)
	if len(got) != 2 {
		t.Fatalf("relayed %d lines, want 2 (reading stops after sentinel)", len(got))
	}
	if !isTurnCompleted(got[1]) {
		t.Errorf("last relayed line = %q, want the sentinel", got[1])
	}
}

func TestRelayClosesChannelOnEOF(t *testing.T) {
	stream := `{"type":"message","role":"assistant","content":"a"}` + "\n" +
		`{"type":"message","role":"assistant","content":"b"}` + "\n"
	proc := newFakeProc(strings.NewReader(stream))

	r := newTestRunner(nil)
	lines := newLineChannel(10)
	done := make(chan struct{})
	go r.relay(proc, lines, done)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not finish")
	}

	if proc.signalled("terminate") || proc.signalled("kill") {
		t.Error("plain EOF sent a signal")
	}
	if got := drainAll(lines); len(got) != 2 {
		t.Errorf("relayed %d lines, want 2", len(got))
	}
	// The range above only returns because the channel is closed; a second
	// receive must also report closed.
	if _, ok := <-lines.ch; ok {
		t.Error("channel still open after relay exit")
	}
}

func TestRelayHandlesMissingTrailingNewline(t *testing.T) {
	proc := newFakeProc(strings.NewReader(`{"type":"turn.completed"}`))

	r := newTestRunner(nil)
	lines := newLineChannel(10)
	done := make(chan struct{})
	go r.relay(proc, lines, done)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not finish")
	}

	got := drainAll(lines)
	if len(got) != 1 || !isTurnCompleted(got[0]) {
		t.Errorf("relayed lines = %v, want the unterminated sentinel line", got)
	}
	if !proc.signalled("terminate") {
		t.Error("sentinel on the final partial line did not trigger terminate")
	}
}

func TestRelayDropsWhenConsumerStalls(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString(`{"type":"message","role":"assistant","content":"x"}`)
		b.WriteString("\n")
	}
	proc := newFakeProc(strings.NewReader(b.String()))

	r := &Runner{
		grace:      time.Millisecond,
		putTimeout: time.Millisecond,
		log:        testutil.DiscardLogger(),
	}
	lines := newLineChannel(2)
	done := make(chan struct{})
	start := time.Now()
	go r.relay(proc, lines, done)

	// Nobody consumes; the relay must still finish promptly by dropping.
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay deadlocked on a full channel")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("relay took %v with a stalled consumer", elapsed)
	}

	if got := drainAll(lines); len(got) != 2 {
		t.Errorf("channel holds %d lines, want capacity-bounded 2", len(got))
	}
}
