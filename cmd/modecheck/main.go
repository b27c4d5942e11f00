// Command modecheck drives the mode/coercion/scope core over a pre-built
// syntax tree and prints its diagnostics.
//
// Building a real Algol 68 syntax tree is the scanner/parser's job, out of
// scope for this core (spec.md §1); this driver's "check" subcommand
// exercises the core end-to-end against the small set of built-in example
// programs bundled for demonstration, the same role cmd/ailang/main.go's
// "check" command plays for the teacher's type checker.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version info, set by ldflags during build.
	version = "dev"
	commit  = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	root := &cobra.Command{
		Use:   "modecheck",
		Short: "Algol 68 mode system, coercion-insertion and scope checker",
	}

	var configPath string
	checkCmd := &cobra.Command{
		Use:   "check [example]",
		Short: "Mode-check a bundled example program and print diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0], configPath)
		},
	}
	checkCmd.Flags().StringVar(&configPath, "config", "", "path to a checker-limits YAML file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s (%s)\n", bold("modecheck"), version, commit)
		},
	}

	root.AddCommand(checkCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}
}
