package gemini

import (
	"fmt"
	"time"
)

// Verdict messages surfaced to the caller when the stream produced no usable
// conversation. The session-id message wins over the empty-response message
// when both apply, because a caller without a session id cannot recover at all.
const (
	noSessionMessage = "Failed to get `SESSION_ID` from the gemini session."

	emptyResponseMessage = "Failed to retrieve `agent_messages` from the Gemini session. " +
		"This might be due to Gemini performing a tool call. " +
		"You can continue using the `SESSION_ID` to proceed."
)

// LaunchError reports that the gemini CLI could not be located or spawned.
// No process exists when this is returned.
type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that an invocation exceeded its wall-clock budget.
// The process has been killed by the time this is returned.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gemini CLI execution timed out after %v. "+
		"This may indicate the CLI is waiting for authentication or is stuck.", e.Timeout)
}

// AuthError reports a failed pre-flight authentication probe.
type AuthError struct {
	Status string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gemini CLI authentication check failed: %s. "+
		"Please run 'gemini auth login' manually in your terminal.", e.Status)
}
