package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gudastudio/gemini-mcp/internal/config"
	"github.com/gudastudio/gemini-mcp/internal/logger"
)

var (
	quietMode             bool
	version, commit, date string
	cfg                   *config.Config
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "gemini-mcp",
	Short: "MCP server exposing the gemini CLI as a tool",
	Long: `gemini-mcp wraps the gemini CLI behind an MCP stdio server. Each tool
call spawns a supervised gemini subprocess, streams its JSON output, and
returns the aggregated assistant response together with a session id that
later calls can resume.

Configure with ~/.gemini-mcp/config.yaml; every key is optional.`,
	Example: `  gemini-mcp serve      # Start the MCP server on stdio
  gemini-mcp doctor     # Check that the gemini CLI is installed and responsive`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to info level only")

	// Hide the auto-generated completion command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

func initConfig() {
	path, err := config.Path()
	if err == nil {
		cfg, err = config.Load(path)
	}
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Warning: %v, using defaults\n", err)
		cfg = config.Default()
	}

	logger.SetDebug(cfg.Debug && !quietMode)
	if cfg.LogFile != "" {
		if err := logger.Init(cfg.LogFile); err != nil {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "Warning: cannot open log file %s: %v\n", cfg.LogFile, err)
		}
	}
}

// activeConfig returns the loaded configuration, falling back to defaults
// when cobra's initializer has not run (direct handler calls in tests).
func activeConfig() *config.Config {
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("gemini-mcp %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("gemini-mcp %s\n", version)
}
