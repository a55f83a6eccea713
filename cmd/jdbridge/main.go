// Command jdbridge is the debug-inspection and expression-evaluation
// engine's entrypoint: it loads configuration, wires every component, and
// serves the Orchestration layer's tools over MCP on stdio.
//
// Grounded on teranos-QNTX/cmd/qntx/main.go's cobra root command shape: a
// package-level rootCmd with a PersistentPreRunE that initializes logging,
// subcommands added in init(), and a main() that only calls Execute.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "jdbridge",
	Short: "JDWP debug-inspection and expression-evaluation engine",
	Long: `jdbridge attaches to a Java runtime over the Java Debug Wire Protocol,
projects its live state to an automation client, controls execution, and
evaluates source-level expressions inside the running target by compiling
and injecting bytecode through the debug channel itself.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(verbose); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
