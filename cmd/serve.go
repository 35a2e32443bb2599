package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/gudastudio/gemini-mcp/internal/gemini"
	"github.com/gudastudio/gemini-mcp/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Starts the MCP server on stdin/stdout. Register this command with your
MCP client to expose the gemini tool. All logging goes to stderr or the
configured log file; stdout carries only the MCP protocol.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	defer logger.Close()

	s := server.NewMCPServer("gemini-mcp", version,
		server.WithToolCapabilities(false),
	)
	s.AddTool(geminiTool(), handleGemini)

	logger.Default().Info("MCP server starting", "version", version)
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func geminiTool() mcp.Tool {
	return mcp.NewTool("gemini",
		mcp.WithDescription("Runs the gemini CLI with a prompt and returns the aggregated "+
			"assistant response plus a SESSION_ID that later calls can resume. "+
			"Use SESSION_ID to continue a conversation, sandbox to isolate file changes, "+
			"and return_all_messages to inspect the raw event stream."),
		mcp.WithString("PROMPT",
			mcp.Required(),
			mcp.Description("The task for gemini to perform"),
		),
		mcp.WithString("cd",
			mcp.Required(),
			mcp.Description("Absolute path to the workspace root gemini runs in; must exist"),
		),
		mcp.WithBoolean("sandbox",
			mcp.Description("Run gemini in sandbox mode so file modifications stay isolated"),
		),
		mcp.WithString("SESSION_ID",
			mcp.Description("Session id from a previous call to resume that conversation"),
		),
		mcp.WithBoolean("return_all_messages",
			mcp.Description("Include every raw stream event in the result as all_messages"),
		),
		mcp.WithString("model",
			mcp.Description("Override the gemini model for this call"),
		),
		mcp.WithNumber("timeout",
			mcp.DefaultNumber(300),
			mcp.Description("Wall-clock budget in seconds for this call"),
		),
	)
}

func handleGemini(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("PROMPT")
	if err != nil {
		return mcp.NewToolResultError("Missing or invalid 'PROMPT' argument"), nil
	}
	workDir, err := request.RequireString("cd")
	if err != nil {
		return mcp.NewToolResultError("Missing or invalid 'cd' argument"), nil
	}

	opts := gemini.RunOptions{
		Prompt:            prompt,
		WorkDir:           workDir,
		Sandbox:           boolArg(request, "sandbox"),
		ResumeSessionID:   stringArg(request, "SESSION_ID"),
		Model:             stringArg(request, "model"),
		ReturnAllMessages: boolArg(request, "return_all_messages"),
	}
	if secs := numberArg(request, "timeout"); secs > 0 {
		opts.Timeout = time.Duration(secs * float64(time.Second))
	}

	// Ordering matters: the workspace check must not spawn anything, and the
	// auth probe spawns a version subprocess, so the check runs first.
	if info, statErr := os.Stat(workDir); statErr != nil || !info.IsDir() {
		return toolResult(gemini.Result{
			Error: fmt.Sprintf("the workspace root directory `%s` does not exist", workDir),
		})
	}

	conf := activeConfig()
	if ok, status := gemini.CheckAuth(conf.Binary); !ok {
		authErr := &gemini.AuthError{Status: status}
		return toolResult(gemini.Result{Error: authErr.Error()})
	}

	log := logger.WithRequest(uuid.NewString())
	log.Info("gemini tool call", "workdir", workDir, "sandbox", opts.Sandbox,
		"resume", opts.ResumeSessionID != "")

	res := gemini.NewRunner(conf, log).Run(opts)
	return toolResult(res)
}

// toolResult marshals the result into the tool's JSON text payload.
func toolResult(res gemini.Result) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(request mcp.CallToolRequest, key string) string {
	if arguments, ok := request.Params.Arguments.(map[string]any); ok {
		if v, ok := arguments[key].(string); ok {
			return v
		}
	}
	return ""
}

func boolArg(request mcp.CallToolRequest, key string) bool {
	if arguments, ok := request.Params.Arguments.(map[string]any); ok {
		if v, ok := arguments[key].(bool); ok {
			return v
		}
	}
	return false
}

func numberArg(request mcp.CallToolRequest, key string) float64 {
	if arguments, ok := request.Params.Arguments.(map[string]any); ok {
		if v, ok := arguments[key].(float64); ok {
			return v
		}
	}
	return 0
}
