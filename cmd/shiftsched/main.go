// Command shiftsched is the CLI surface spec §6 names: a single `run`
// subcommand driving a config file through the scheduling engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "shiftsched",
		Short: "Shift scheduling engine",
	}
	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeError)
	}
}
