// Command mama assembles and runs a single MaMa source file, printing
// whatever the program writes to its output channel and forwarding the
// program's exit code as the process exit code.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jakobteuber/virtual-machines/pkg/diag"
	"github.com/jakobteuber/virtual-machines/pkg/mama"
	"github.com/jakobteuber/virtual-machines/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "mama FILE",
	Short: "Assemble and run a MaMa program",
	Long: `mama assembles the textual MaMa assembly in FILE and runs it to
completion, printing everything the program writes via the print/debug
opcodes and exiting with the program's own exit code (the stack top at
halt).`,
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

	prog, err := mama.Assemble(string(source))
	if err != nil {
		return err
	}

	engine := mama.New(prog, nil)
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
