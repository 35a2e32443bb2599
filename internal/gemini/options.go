package gemini

import "time"

// RunOptions holds the caller-supplied parameters for one invocation.
type RunOptions struct {
	// Prompt is the task instruction sent to the CLI.
	Prompt string

	// WorkDir is the workspace root the CLI runs in. It must exist;
	// Run fails before spawning anything if it does not.
	WorkDir string

	// Sandbox isolates file modifications inside the CLI's sandbox.
	Sandbox bool

	// ResumeSessionID resumes an existing conversation when non-empty.
	ResumeSessionID string

	// Model overrides the CLI's default model when non-empty.
	Model string

	// ReturnAllMessages retains every decoded event in the result.
	ReturnAllMessages bool

	// Timeout is the wall-clock budget. Zero means the configured default.
	Timeout time.Duration
}

// BuildCommandArgs builds the gemini CLI argument vector for the options.
// Exported so argument construction can be verified independently of
// process execution.
func BuildCommandArgs(opts RunOptions) []string {
	args := []string{"--prompt", opts.Prompt, "-o", "stream-json"}

	if opts.Sandbox {
		args = append(args, "--sandbox")
	}

	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}

	if opts.ResumeSessionID != "" {
		args = append(args, "--resume", opts.ResumeSessionID)
	}

	return args
}
