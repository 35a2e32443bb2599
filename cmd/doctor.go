package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/gudastudio/gemini-mcp/internal/config"
	"github.com/gudastudio/gemini-mcp/internal/gemini"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the gemini CLI is installed and responsive",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	conf := activeConfig()
	out := cmd.OutOrStdout()

	path, err := exec.LookPath(conf.Binary)
	if err != nil {
		return fmt.Errorf("gemini CLI %q not found in PATH", conf.Binary)
	}
	fmt.Fprintf(out, "✓ gemini CLI found: %s\n", path)

	ok, status := gemini.CheckAuth(conf.Binary)
	if !ok {
		return fmt.Errorf("gemini CLI is not responsive: %s", status)
	}
	fmt.Fprintf(out, "✓ gemini CLI responsive: %s\n", status)

	if cfgPath, err := config.Path(); err == nil {
		fmt.Fprintf(out, "✓ config: %s\n", cfgPath)
	}
	fmt.Fprintf(out, "✓ default timeout: %s\n", conf.Timeout())
	return nil
}
