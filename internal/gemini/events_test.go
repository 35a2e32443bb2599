package gemini

import (
	"strings"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	t.Run("assistant message", func(t *testing.T) {
		ev, err := decodeEvent(`{"type":"message","role":"assistant","content":"hello","session_id":"s1"}`)
		if err != nil {
			t.Fatalf("decodeEvent() error = %v", err)
		}
		if ev.Type != "message" || ev.Role != "assistant" || ev.Content != "hello" {
			t.Errorf("decoded fields = %q/%q/%q", ev.Type, ev.Role, ev.Content)
		}
		if ev.SessionID == nil || *ev.SessionID != "s1" {
			t.Errorf("SessionID = %v, want s1", ev.SessionID)
		}
	})

	t.Run("absent session_id decodes to nil", func(t *testing.T) {
		ev, err := decodeEvent(`{"type":"tool.start"}`)
		if err != nil {
			t.Fatalf("decodeEvent() error = %v", err)
		}
		if ev.SessionID != nil {
			t.Errorf("SessionID = %v, want nil", *ev.SessionID)
		}
	})

	t.Run("null session_id decodes to nil", func(t *testing.T) {
		ev, err := decodeEvent(`{"type":"message","session_id":null}`)
		if err != nil {
			t.Fatalf("decodeEvent() error = %v", err)
		}
		if ev.SessionID != nil {
			t.Errorf("SessionID = %v, want nil", *ev.SessionID)
		}
	})

	t.Run("invalid JSON errors", func(t *testing.T) {
		if _, err := decodeEvent("not json at all"); err == nil {
			t.Error("decodeEvent() accepted malformed input")
		}
	})

	t.Run("non-object JSON errors", func(t *testing.T) {
		// Valid JSON, but not objects; none of these is an event.
		for _, line := range []string{`null`, `[{"type":"message"}]`, `"message"`, `42`, `true`} {
			if _, err := decodeEvent(line); err == nil {
				t.Errorf("decodeEvent(%q) accepted a non-object line", line)
			}
		}
	})
}

func TestEventMarshalPreservesRawLine(t *testing.T) {
	line := `{"type":"message","role":"assistant","content":"hi","session_id":"s","custom_field":42}`
	ev, err := decodeEvent(line)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	out, err := ev.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(out) != line {
		t.Errorf("MarshalJSON() = %s, want original line", out)
	}
	if !strings.Contains(string(out), "custom_field") {
		t.Error("unrecognized field lost in round trip")
	}
}

func TestIsTurnCompleted(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"sentinel", `{"type":"turn.completed"}`, true},
		{"sentinel with extras", `{"type":"turn.completed","session_id":"s"}`, true},
		{"other type", `{"type":"message"}`, false},
		{"sentinel text in content only", `{"type":"message","content":"turn.completed"}`, false},
		{"invalid json", `turn.completed`, false},
		{"empty line", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTurnCompleted(tt.line); got != tt.want {
				t.Errorf("isTurnCompleted(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
