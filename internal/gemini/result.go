package gemini

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Aggregation limits from the line protocol's error-handling contract.
const (
	// errorLogLimit bounds the accumulated decode-error log. New entries
	// are appended only while the log is under this size.
	errorLogLimit = 2000

	// errorSnippetLimit truncates each logged malformed line.
	errorSnippetLimit = 200

	// deprecationNotice is emitted by some CLI versions as an assistant
	// message; it is noise and is excluded from the aggregated text.
	deprecationNotice = "The --prompt (-p) flag has been deprecated"
)

// Result is the aggregated outcome of one invocation. The JSON field names
// are the wire contract with MCP callers.
type Result struct {
	Success       bool    `json:"success"`
	SessionID     string  `json:"SESSION_ID,omitempty"`
	AgentMessages string  `json:"agent_messages,omitempty"`
	Error         string  `json:"error,omitempty"`
	AllMessages   []Event `json:"all_messages,omitempty"`
}

// aggregator builds the result incrementally as the consumer (and later the
// shutdown reconciler) feeds it lines. It is only ever touched from the
// invocation's calling goroutine, so it needs no locking.
type aggregator struct {
	log         *slog.Logger
	agentText   strings.Builder
	sessionID   string
	sessionSeen bool
	events      []Event
	errLog      strings.Builder
}

func newAggregator(log *slog.Logger) *aggregator {
	return &aggregator{log: log}
}

// line decodes one stream line and folds it into the accumulated state.
// Decode failures are recorded and recovered; they never abort the stream.
func (a *aggregator) line(line string) {
	ev, err := decodeEvent(line)
	if err != nil {
		a.recordDecodeError(line)
		return
	}

	a.events = append(a.events, ev)

	if ev.Type == "message" && ev.Role == "assistant" {
		if !strings.Contains(ev.Content, deprecationNotice) {
			a.agentText.WriteString(ev.Content)
		}
	}

	if ev.SessionID != nil {
		// Last write wins. Differing ids within one stream are accepted
		// silently; the debug line is for operators chasing anomalies.
		if a.sessionSeen && a.sessionID != *ev.SessionID {
			a.log.Debug("session id changed mid-stream", "previous", a.sessionID, "current", *ev.SessionID)
		}
		a.sessionID = *ev.SessionID
		a.sessionSeen = true
	}
}

func (a *aggregator) recordDecodeError(line string) {
	if a.errLog.Len() >= errorLogLimit {
		return
	}
	snippet := line
	if len(snippet) > errorSnippetLimit {
		cut := errorSnippetLimit
		// Back up so the cut never splits a multi-byte rune.
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	a.errLog.WriteString("\n[json decode error] ")
	a.errLog.WriteString(snippet)
}

// finalize computes the termination verdict. A stream that never produced a
// session id is a failure (the conversation cannot be tracked); a valid
// session with no assistant text is a failure too, but one the caller can
// follow up on with the same session id.
func (a *aggregator) finalize(returnAll bool) Result {
	var res Result
	errText := strings.TrimSpace(a.errLog.String())

	switch {
	case !a.sessionSeen:
		res.Error = strings.TrimSpace(noSessionMessage + "\n" + errText)
	case a.agentText.Len() == 0:
		res.Error = strings.TrimSpace(emptyResponseMessage + "\n" + errText)
	default:
		res.Success = true
		res.SessionID = a.sessionID
		res.AgentMessages = a.agentText.String()
	}

	if returnAll {
		res.AllMessages = a.events
	}
	return res
}
