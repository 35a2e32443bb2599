package gemini

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// authProbeTimeout bounds the version probe. A CLI that hangs here is almost
// always waiting for interactive login.
const authProbeTimeout = 10 * time.Second

// CheckAuth probes whether the gemini CLI is installed and responsive by
// running its version command. It reports readiness and a human-readable
// status: the version string on success, the failure reason otherwise.
func CheckAuth(binary string) (bool, string) {
	ctx, cancel := context.WithTimeout(context.Background(), authProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, "--version").CombinedOutput()
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return false, "gemini CLI timed out during auth check"
	case errors.Is(err, exec.ErrNotFound):
		return false, "gemini CLI not found in PATH"
	case err != nil:
		return false, fmt.Sprintf("auth check failed: %v", err)
	}
	return true, strings.TrimSpace(string(out))
}
