// Command reports loads one source and prints the coverage reports.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "reports",
		Short:         "Service billing coverage reports",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(NewShowCmd(os.Stdout))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
