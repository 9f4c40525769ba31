// Command cma assembles and runs a single CMa source file, printing
// whatever the program writes to its output channel and forwarding the
// program's exit code as the process exit code.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jakobteuber/virtual-machines/pkg/cma"
	"github.com/jakobteuber/virtual-machines/pkg/diag"
	"github.com/jakobteuber/virtual-machines/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "cma FILE",
	Short: "Assemble and run a CMa program",
	Long: `cma assembles the textual CMa assembly in FILE and runs it to
completion, printing everything the program writes via the print/debug
opcodes and exiting with the program's own exit code (memory cell 0).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debugTrace, err := cmd.Flags().GetBool("debug-trace")
		if err != nil {
			return err
		}
		return run(args[0], debugTrace)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().Bool("debug-trace", false,
		"trace every debug opcode hit to stderr")
}

func run(path string, debugTrace bool) error {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		return err
	}

	prog, err := cma.Assemble(string(source))
	if err != nil {
		return err
	}

	engine := cma.New(prog)
	engine.DebugTrace = debugTrace
	code, err := engine.Run()
	if err != nil {
		return err
	}
	os.Exit(int(code))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		diag.Exit(err)
	}
}
